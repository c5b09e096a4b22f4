package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-progress/internal/api"
	"github.com/p-n-ai/pai-progress/internal/catalog"
	"github.com/p-n-ai/pai-progress/internal/live"
	"github.com/p-n-ai/pai-progress/internal/platform/cache"
	"github.com/p-n-ai/pai-progress/internal/platform/config"
	"github.com/p-n-ai/pai-progress/internal/platform/database"
	"github.com/p-n-ai/pai-progress/internal/session"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:     a.handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /api/live holds WebSocket connections open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", a.storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// app is the wired server with the resources it must release.
type app struct {
	handler http.Handler
	storage string
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp builds the service graph. PostgreSQL and Redis are used when their
// URLs are set; otherwise state lives in memory.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{storage: "memory"}
	checks := map[string]api.HealthChecker{}

	var (
		store  tracker.Store = tracker.NewMemoryStore()
		events tracker.EventLogger
	)
	if cfg.UsesDatabase() {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		pg, err := tracker.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		store = pg
		events = tracker.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
		a.storage = "postgres"
	}

	svcCfg := tracker.ServiceConfig{Store: store, Events: events}
	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.UsesCache() {
		c, err := cache.New(ctx, cfg.Cache.URL, cfg.Cache.AnalyticsTTL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := c.Close(); err != nil {
				slog.Warn("cache close failed", "error", err)
			}
		})
		svcCfg.Cache = c
		sessionStore = session.NewRedisStore(c.Client)
		checks["cache"] = c
	}

	catalogs, err := catalog.NewLoader(cfg.CatalogPath)
	if err != nil {
		slog.Warn("catalogs unavailable", "path", cfg.CatalogPath, "error", err)
		catalogs, _ = catalog.NewLoader("")
	}

	hub := live.NewHub()
	svcCfg.Live = hub

	srv := api.NewServer(api.Options{
		Service:        tracker.NewService(svcCfg),
		Sessions:       session.NewManager(sessionStore, cfg.Session.TTL),
		Hub:            hub,
		Catalogs:       catalogs,
		Checks:         checks,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		MaxCandidates:  cfg.Upload.MaxCandidates,
		LogRequests:    cfg.Log.Requests,
	})
	a.handler = srv.Handler()
	slog.Info("app configured", "storage", a.storage, "cache", cfg.UsesCache(), "catalogs", len(catalogs.All()))
	return a, nil
}
