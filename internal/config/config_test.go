package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"QUIZ_CLIENT_CONFIG", "QUIZ_API_URL", "QUIZ_HTTP_TIMEOUT", "QUIZ_SESSION_BACKEND",
		"QUIZ_SESSION_PATH", "QUIZ_REDIS_ADDR", "QUIZ_REDIS_DB", "QUIZ_REDIS_TTL", "LOG_MODE", "LOG_FILE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Fatalf("server url = %q, want %q", cfg.ServerURL, defaultServerURL)
	}
	if cfg.Session.Backend != BackendSQLite {
		t.Fatalf("backend = %q, want sqlite", cfg.Session.Backend)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Fatalf("timeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "client.yaml")
	content := []byte(`server_url: http://quiz.test/api
http_timeout: 3s
session:
  backend: memory
log:
  mode: prod
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_HTTP_TIMEOUT", "7s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "http://quiz.test/api" {
		t.Fatalf("server url from file not applied: %q", cfg.ServerURL)
	}
	if cfg.Session.Backend != BackendMemory {
		t.Fatalf("backend from file not applied: %q", cfg.Session.Backend)
	}
	if cfg.Log.Mode != "prod" {
		t.Fatalf("log mode = %q", cfg.Log.Mode)
	}
	if cfg.HTTPTimeout != 7*time.Second {
		t.Fatalf("env override not applied, timeout = %v", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsRedisWithoutAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZ_SESSION_BACKEND", "redis")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error for redis backend without address")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZ_SESSION_BACKEND", "etcd")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("QUIZ_REDIS_DB", "abc")
	if got := envInt("QUIZ_REDIS_DB", 4); got != 4 {
		t.Fatalf("envInt = %d, want 4", got)
	}
}

func TestLoadRedisTTLFromFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "client.yaml")
	content := []byte(`session:
  backend: redis
  redis_addr: 127.0.0.1:6379
  redis_ttl: 24h
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Session.RedisTTL != 24*time.Hour {
		t.Fatalf("redis ttl = %v, want 24h", cfg.Session.RedisTTL)
	}

	t.Setenv("QUIZ_REDIS_TTL", "90m")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Session.RedisTTL != 90*time.Minute {
		t.Fatalf("env override not applied, redis ttl = %v", cfg.Session.RedisTTL)
	}
}
