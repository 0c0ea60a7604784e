package registry

import "sort"

// Environment keys known to the release workflow.
const (
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// EnvironmentConfig describes one deployment environment.
type EnvironmentConfig struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	Order       int    `json:"order"` // release order, lower goes first
}

var environments = []EnvironmentConfig{
	{
		Key:         EnvStaging,
		Label:       "Staging",
		Description: "Pre-release environment for final verification",
		Color:       "default",
		Order:       1,
	},
	{
		Key:         EnvProduction,
		Label:       "Production",
		Description: "Live environment serving end users",
		Color:       "success",
		Order:       2,
	},
}

var environmentMap = func() map[string]EnvironmentConfig {
	m := make(map[string]EnvironmentConfig, len(environments))
	for _, env := range environments {
		m[env.Key] = env
	}
	return m
}()

// Environment returns the configuration for key, if it exists.
func Environment(key string) (EnvironmentConfig, bool) {
	env, ok := environmentMap[key]
	return env, ok
}

// IsEnvironment reports whether key names a known environment.
func IsEnvironment(key string) bool {
	_, ok := environmentMap[key]
	return ok
}

// EnvironmentLabel returns the display label, or the key itself when unknown.
func EnvironmentLabel(key string) string {
	if env, ok := environmentMap[key]; ok {
		return env.Label
	}
	return key
}

// EnvironmentColor returns the display color, or "default" when unknown.
func EnvironmentColor(key string) string {
	if env, ok := environmentMap[key]; ok {
		return env.Color
	}
	return "default"
}

// Environments returns a copy of the catalogue sorted by release order.
func Environments() []EnvironmentConfig {
	sorted := make([]EnvironmentConfig, len(environments))
	copy(sorted, environments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// EnvironmentKeys returns the environment keys in release order.
func EnvironmentKeys() []string {
	sorted := Environments()
	keys := make([]string, len(sorted))
	for i, env := range sorted {
		keys[i] = env.Key
	}
	return keys
}
