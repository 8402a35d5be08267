package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfigFile(t, `
app:
  port: 9090
  gin_mode: release
database:
  dsn: "host=db user=forum"
redis:
  addr: "redis:6379"
token:
  secret: "unit-test-secret"
  issuer: "qnaforum"
  session_ttl: 24h
code:
  length: 8
  ttl: 10m
  grace: 9m
lockout:
  threshold: 3
  duration: 15m
moderation:
  accept_rating_bonus: 25
  gateway_timeout: 5s
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("session TTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.CodeLength != 8 {
		t.Errorf("code length = %d, want 8", cfg.CodeLength)
	}
	if cfg.CodeTTL != 10*time.Minute || cfg.CodeGrace != 9*time.Minute {
		t.Errorf("code timing = (%v, %v)", cfg.CodeTTL, cfg.CodeGrace)
	}
	if cfg.LockoutThreshold != 3 || cfg.LockoutDuration != 15*time.Minute {
		t.Errorf("lockout = (%d, %v)", cfg.LockoutThreshold, cfg.LockoutDuration)
	}
	if cfg.AcceptRatingBonus != 25 {
		t.Errorf("rating bonus = %d, want 25", cfg.AcceptRatingBonus)
	}
	if len(cfg.TrustedIssuers) != 2 {
		t.Errorf("trusted issuers = %v, want the google defaults", cfg.TrustedIssuers)
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
token:
  secret: "unit-test-secret"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("session TTL = %v, want 168h default", cfg.SessionTTL)
	}
	if cfg.CodeTTL != 15*time.Minute || cfg.CodeGrace != 14*time.Minute {
		t.Errorf("code timing = (%v, %v), want defaults", cfg.CodeTTL, cfg.CodeGrace)
	}
	if cfg.CodeLength != 6 {
		t.Errorf("code length = %d, want 6", cfg.CodeLength)
	}
	if cfg.LockoutThreshold != 5 {
		t.Errorf("lockout threshold = %d, want 5", cfg.LockoutThreshold)
	}
	if cfg.AcceptRatingBonus != 10 {
		t.Errorf("rating bonus = %d, want 10", cfg.AcceptRatingBonus)
	}
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing token secret",
			content: "app:\n  port: 8080\n",
		},
		{
			name: "grace not shorter than TTL",
			content: `
token:
  secret: "unit-test-secret"
code:
  ttl: 10m
  grace: 10m
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := LoadFrom(path); err == nil {
				t.Error("LoadFrom() expected an error")
			}
		})
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
token:
  secret: "file-secret"
`)
	t.Setenv("TOKEN_SECRET", "env-secret")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.TokenSecret != "env-secret" {
		t.Errorf("token secret = %q, want the env override", cfg.TokenSecret)
	}
}
