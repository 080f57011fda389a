package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentd.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TEST_AGENTD_DSN", "postgres://real-host/db")
	path := writeConfig(t, `{
		"server": {"port": ${TEST_AGENTD_PORT:9090}, "log_level": "${TEST_AGENTD_LEVEL:debug}"},
		"database": {"postgres": {"dsn": "${TEST_AGENTD_DSN:postgres://fallback/db}"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Unset vars fall back to their defaults.
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	// Set vars win over defaults.
	if cfg.Database.Postgres.DSN != "postgres://real-host/db" {
		t.Errorf("DSN = %q", cfg.Database.Postgres.DSN)
	}
}

func TestLoadEmptyDefault(t *testing.T) {
	path := writeConfig(t, `{"embedding": {"api_key": "${TEST_AGENTD_MISSING_KEY:}"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.Embedding.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/agentd.json"); err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on invalid JSON")
	}
}
