package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/blockrelease/internal/services"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := run(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"migrate", "seed", "approvals", "versions", "token"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got: %s", sub, out)
		}
	}
	if !strings.Contains(out, "--actor") {
		t.Errorf("expected --actor flag, got: %s", out)
	}
}

func TestApprovalsHelp(t *testing.T) {
	out, err := run(t, "approvals", "--help")
	if err != nil {
		t.Fatalf("approvals --help failed: %v", err)
	}
	for _, sub := range []string{"list", "submit", "approve", "reject"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected approvals help to list %q, got: %s", sub, out)
		}
	}
}

func TestRejectRequiresComment(t *testing.T) {
	_, err := run(t, "approvals", "reject", "some-id")
	if err == nil || !strings.Contains(err.Error(), "comment") {
		t.Fatalf("expected missing comment error, got %v", err)
	}
}

func TestPublishRequiresEnv(t *testing.T) {
	_, err := run(t, "versions", "publish", "some-id")
	if err == nil || !strings.Contains(err.Error(), "env") {
		t.Fatalf("expected missing env error, got %v", err)
	}
}

func TestTokenIssuesVerifiableJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	out, err := run(t, "--env-file", t.TempDir()+"/none.env", "--actor", "ops", "token", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	provider, _ := services.NewJWTProvider("test-secret")
	identity, err := provider.Authenticate(t.Context(), services.Credentials{BearerToken: strings.TrimSpace(out)})
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if identity.ActorID != "ops" {
		t.Errorf("ActorID = %q, want ops", identity.ActorID)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
	if got := orDash(nil); got != "-" {
		t.Errorf("orDash(nil) = %q", got)
	}
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if got := formatTime(&ts); got != "2026-03-01 09:30" {
		t.Errorf("formatTime = %q", got)
	}
}
