package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/config"
	"smartlocker-web/internal/db"
	"smartlocker-web/internal/guard"
	"smartlocker-web/internal/http/router"
	"smartlocker-web/internal/logging"
	"smartlocker-web/internal/security"
	"smartlocker-web/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the yaml config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = security.RandomSecret()
		if err != nil {
			logger.Fatal("generate session secret", zap.Error(err))
		}
		logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}
	keys, err := security.DeriveKeys(secret)
	if err != nil {
		logger.Fatal("derive cookie keys", zap.Error(err))
	}

	// Initialize session backend
	backend, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open session backend", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}
	defer closeBackend()

	// Setup router
	r, err := router.Setup(router.Deps{
		API:      apiclient.New(cfg.APIURL(), cfg.Timeout(), logger),
		Sessions: security.NewCookieSessions(keys, cfg.CookieSecure),
		Backend:  backend,
		Guard:    guard.Default(),
		Poll:     cfg.Poll(),
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("setup router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Start server
	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("api_base_url", cfg.APIURL()),
		zap.String("session_backend", cfg.SessionBackend),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// openBackend returns nil for the cookie backend, whose sessions live in the
// browser.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.Backend, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendSQL:
		database, err := db.Init(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		store := db.NewSessionStore(database)
		go pruneSessions(ctx, store, cfg.SessionLifetime(), logger)
		return store, func() { _ = database.Close() }, nil

	case config.BackendRedis:
		rdb := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisTLS)
		store := storage.NewRedisSessions(rdb, cfg.SessionLifetime())
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable at startup; protected pages show a loading state until it recovers", zap.Error(err))
		}
		return store, func() { _ = rdb.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}

func pruneSessions(ctx context.Context, store *db.SessionStore, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Prune(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("prune sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("pruned idle sessions", zap.Int64("count", n))
			}
		}
	}
}
