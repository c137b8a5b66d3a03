package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const (
	defaultServerURL   = "http://127.0.0.1:8000/api"
	defaultHTTPTimeout = 10 * time.Second
	defaultLogMode     = "dev"
)

type Config struct {
	ServerURL   string        `yaml:"server_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Session     SessionConfig `yaml:"session"`
	Log         LogConfig     `yaml:"log"`
}

type SessionConfig struct {
	Backend   string        `yaml:"backend"`
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	RedisTTL  time.Duration `yaml:"redis_ttl"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
	File string `yaml:"file"`
}

func Default() Config {
	return Config{
		ServerURL:   defaultServerURL,
		HTTPTimeout: defaultHTTPTimeout,
		Session: SessionConfig{
			Backend: BackendSQLite,
			Path:    defaultSessionPath(),
		},
		Log: LogConfig{Mode: defaultLogMode},
	}
}

// Load layers defaults, the optional YAML file and environment overrides, in
// that order. A missing file at path is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("QUIZ_CLIENT_CONFIG"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("server_url is required")
	}
	switch c.Session.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Session.RedisAddr) == "" {
			return errors.New("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.RedisTTL < 0 {
		return errors.New("session.redis_ttl must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerURL = envString("QUIZ_API_URL", cfg.ServerURL)
	cfg.HTTPTimeout = envDuration("QUIZ_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Session.Backend = strings.ToLower(envString("QUIZ_SESSION_BACKEND", cfg.Session.Backend))
	cfg.Session.Path = envString("QUIZ_SESSION_PATH", cfg.Session.Path)
	cfg.Session.RedisAddr = envString("QUIZ_REDIS_ADDR", cfg.Session.RedisAddr)
	cfg.Session.RedisDB = envInt("QUIZ_REDIS_DB", cfg.Session.RedisDB)
	cfg.Session.RedisTTL = envDuration("QUIZ_REDIS_TTL", cfg.Session.RedisTTL)
	cfg.Log.Mode = envString("LOG_MODE", cfg.Log.Mode)
	cfg.Log.File = envString("LOG_FILE", cfg.Log.File)
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "quiz-sessions.db"
	}
	return filepath.Join(dir, "quiz-client", "sessions.db")
}
