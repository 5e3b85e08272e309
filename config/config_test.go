package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
fundingflow:
  name: "fundingflow"
  version: "1.0.0"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Address != ":3001" {
		t.Errorf("Server.Address = %q, want :3001", cfg.Server.Address)
	}
	if cfg.Fetch.Interval != 30*time.Second {
		t.Errorf("Fetch.Interval = %v, want 30s", cfg.Fetch.Interval)
	}
	if cfg.Redis.TTL() != 30*time.Second {
		t.Errorf("Redis.TTL() = %v, want 30s", cfg.Redis.TTL())
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "fundingflow:\n  version: \"1.0.0\"\n"},
		{"missing version", "fundingflow:\n  name: \"fundingflow\"\n"},
		{"zero ttl", "fundingflow:\n  name: \"f\"\n  version: \"1\"\nredis:\n  ttl_seconds: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() expected validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("LIGHTER_API_KEY", "lk-test")
	t.Setenv("ASTER_API_SECRET", "as-secret")

	path := writeConfig(t, `
fundingflow:
  name: "fundingflow"
  version: "1.0.0"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q, want redis.internal:6380", cfg.Redis.Addr)
	}
	if cfg.Exchanges.Lighter.APIKey != "lk-test" {
		t.Errorf("Lighter.APIKey = %q, want lk-test", cfg.Exchanges.Lighter.APIKey)
	}
	if cfg.Exchanges.Aster.APISecret != "as-secret" {
		t.Errorf("Aster.APISecret = %q, want as-secret", cfg.Exchanges.Aster.APISecret)
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "funding", User: "app", Password: "pw"}
	want := "postgres://app:pw@db:5432/funding?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
