package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/localnerve/blockrelease/internal/config"
	"github.com/localnerve/blockrelease/internal/database"
	"github.com/localnerve/blockrelease/internal/utils"
	"gorm.io/gorm"
)

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Packages     string            `json:"packages"`
	Authorizer   string            `json:"authorizer,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, detail string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	msg := fmt.Sprintf("%s %s: %v", component, detail, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage = strings.Join([]string{r.ErrorMessage, msg}, "; ")
	}
	log.Printf("Health check failed - %s", msg)
}

// HealthCheck reports database, package store and (in authorizer mode)
// identity provider reachability. packages may be nil.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, packages Pinger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	if err := database.Ping(ctx, db); err != nil {
		result.Database = "unreachable"
		result.fail("database", "ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBAppDatabase
	}

	if packages == nil {
		result.Packages = "disabled"
	} else if err := packages.Ping(ctx); err != nil {
		result.Packages = "unreachable"
		result.fail("packages", "store unavailable", err)
	} else {
		result.Packages = "ok"
	}

	if cfg.AuthMode == config.AuthModeAuthorizer {
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
			result.Authorizer = "unreachable"
			result.fail("authorizer", "ping failed", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}
	result.Details["auth_mode"] = cfg.AuthMode

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
