package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_APP_DATABASE", "blockrelease.db")
	t.Setenv("AUTH_MODE", AuthModeHeader)
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Expected default port 3000, got %s", cfg.Port)
	}
	if cfg.DBAppConnectionLimit != 5 {
		t.Errorf("Expected default connection limit 5, got %d", cfg.DBAppConnectionLimit)
	}
	if cfg.TraceOutput != "" {
		t.Errorf("Expected tracing disabled by default, got %q", cfg.TraceOutput)
	}
}

func TestLoadEnvFile(t *testing.T) {
	setBaseEnv(t)
	// registered so the original value is restored, then cleared for godotenv
	t.Setenv("PORT", "unused")
	os.Unsetenv("PORT")
	envFile := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(envFile, []byte("PORT=4100\nPACKAGE_PUBLIC_URL=https://cdn.example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("PACKAGE_PUBLIC_URL")
	})

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "4100" {
		t.Errorf("Expected port from env file, got %s", cfg.Port)
	}
	if cfg.PackagePublicURL != "https://cdn.example.com" {
		t.Errorf("Expected public URL from env file, got %s", cfg.PackagePublicURL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DBType:               "mysql",
		DBAppDatabase:        "blocks",
		DBAppUser:            "app",
		DBAppConnectionLimit: 5,
		AuthMode:             AuthModeHeader,
		PackageStoreURL:      "mem://localhost/packages",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing database", func(c *Config) { c.DBAppDatabase = "" }, true},
		{"missing user", func(c *Config) { c.DBAppUser = "" }, true},
		{"sqlite needs no user", func(c *Config) { c.DBType = "sqlite"; c.DBAppUser = "" }, false},
		{"jwt needs secret", func(c *Config) { c.AuthMode = AuthModeJWT }, true},
		{"jwt with secret", func(c *Config) { c.AuthMode = AuthModeJWT; c.JWTSecret = "s3cret" }, false},
		{"authorizer needs url", func(c *Config) { c.AuthMode = AuthModeAuthorizer }, true},
		{"unknown mode", func(c *Config) { c.AuthMode = "basic" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
