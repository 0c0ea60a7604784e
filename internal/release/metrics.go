package release

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blockrelease_transitions_total",
	Help: "Release commands by command and outcome.",
}, []string{"command", "outcome"})

// outcome labels a command result for the transitions counter.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
