package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"quiz-client/internal/cli"
	"quiz-client/internal/config"
	"quiz-client/internal/logger"
	"quiz-client/internal/session"
	sessionredis "quiz-client/internal/session/redis"
	sessionsqlite "quiz-client/internal/session/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	serverURL := flag.String("server", "", "quiz API base URL")
	backend := flag.String("session-backend", "", "attempt storage: sqlite, redis or memory")
	sessionPath := flag.String("session-path", "", "sqlite file for saved attempts")
	redisAddr := flag.String("redis-addr", "", "redis address for saved attempts")
	logMode := flag.String("log-mode", "", "log mode: dev or prod")
	logFile := flag.String("log-file", "", "write logs to this file instead of stderr")
	timeout := flag.Duration("timeout", 0, "HTTP request timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, *serverURL, *backend, *sessionPath, *redisAddr, *logMode, *logFile)
	if *timeout > 0 {
		cfg.HTTPTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionBackend, closeBackend, err := openBackend(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeBackend()
	log.Info("session storage ready", "backend", cfg.Session.Backend)

	return cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		ServerURL:   cfg.ServerURL,
		HTTPTimeout: cfg.HTTPTimeout,
		Sessions:    session.NewRepository(sessionBackend, log),
		Logger:      log,
	})
}

func applyFlags(cfg *config.Config, serverURL, backend, sessionPath, redisAddr, logMode, logFile string) {
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if backend != "" {
		cfg.Session.Backend = backend
	}
	if sessionPath != "" {
		cfg.Session.Path = sessionPath
	}
	if redisAddr != "" {
		cfg.Session.RedisAddr = redisAddr
	}
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
}

func openBackend(ctx context.Context, cfg config.SessionConfig) (session.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := sessionredis.NewStore(ctx, sessionredis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
			TTL:  cfg.RedisTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis session store: %w", err)
		}
		return store, closer(store), nil
	case config.BackendMemory:
		return session.NewMemoryBackend(), func() {}, nil
	default:
		store, err := sessionsqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, closer(store), nil
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
