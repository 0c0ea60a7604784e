package helpers

import (
	"net/http"
	"testing"
	"time"

	"github.com/localnerve/blockrelease/internal/services"
)

// TestJWTSecret signs tokens for services started in jwt auth mode.
const TestJWTSecret = "blockrelease-test-secret"

// IssueToken signs a bearer token for actor with TestJWTSecret.
func IssueToken(t *testing.T, actor string) string {
	t.Helper()
	provider, err := services.NewJWTProvider(TestJWTSecret)
	if err != nil {
		t.Fatalf("Failed to create JWT provider: %v", err)
	}
	token, err := provider.IssueToken(actor, actor+"@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// Authorize sets the credential for actor on req in the given auth mode.
func Authorize(t *testing.T, req *http.Request, mode, actor string) {
	t.Helper()
	switch mode {
	case "jwt":
		req.Header.Set("Authorization", "Bearer "+IssueToken(t, actor))
	default:
		req.Header.Set("X-Actor-Id", actor)
	}
}
