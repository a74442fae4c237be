// Package runtime assembles the full server from configuration: storage,
// cache, blob store, services and the HTTP listener.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/StackLine-App/pokerbase/internal/app"
	"github.com/StackLine-App/pokerbase/internal/app/httpapi"
	"github.com/StackLine-App/pokerbase/internal/app/metrics"
	"github.com/StackLine-App/pokerbase/internal/app/storage/postgres"
	"github.com/StackLine-App/pokerbase/internal/auth"
	"github.com/StackLine-App/pokerbase/internal/blob"
	"github.com/StackLine-App/pokerbase/internal/cache"
	"github.com/StackLine-App/pokerbase/internal/config"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// Runtime owns the assembled application and its HTTP server.
type Runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	app    *app.Application
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
}

// New builds the runtime from configuration.
func New(cfg *config.Config) (*Runtime, error) {
	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	r := &Runtime{cfg: cfg, log: log}

	stores := app.Stores{}
	if cfg.Database.Driver == "postgres" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		}
		if cfg.Database.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
		}
		r.db = db

		pg := postgres.New(db)
		stores = app.Stores{
			Profiles:   pg,
			Follows:    pg,
			Sessions:   pg,
			Posts:      pg,
			Groups:     pg,
			Hands:      pg,
			Stakes:     pg,
			Challenges: pg,
		}
		log.WithField("driver", "postgres").Info("document store configured")
	} else {
		log.WithField("driver", "memory").Info("document store configured")
	}

	var profileCache cache.ProfileCache
	if cfg.Cache.Backend == "redis" {
		r.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		profileCache = cache.NewRedis(r.redis, time.Duration(cfg.Cache.TTLSec)*time.Second)
		log.WithField("backend", "redis").Info("profile cache configured")
	} else {
		profileCache = cache.NewMemory(time.Duration(cfg.Cache.TTLSec) * time.Second)
	}

	blobs, err := blob.NewDiskStore(cfg.Blob.Dir)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	r.app = app.New(stores, app.Options{
		Cache:              profileCache,
		Blobs:              blobs,
		FlowRefreshTimeout: time.Duration(cfg.Flow.RefreshTimeoutSec) * time.Second,
		Logger:             log,
	})

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("auth jwt_secret is required")
	}
	tokens, err := auth.NewTokenIssuer(secret, time.Duration(cfg.Auth.TokenTTLMin)*time.Minute)
	if err != nil {
		return nil, err
	}

	handler := httpapi.New(r.app, tokens, log)
	handler.SetRateLimit(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	if cfg.Audit.File != "" {
		if err := handler.SetAuditFile(cfg.Audit.File); err != nil {
			return nil, fmt.Errorf("open audit file: %w", err)
		}
		log.WithField("file", cfg.Audit.File).Info("audit trail streaming to file")
	}
	r.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      metrics.InstrumentHandler(handler.Router()),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
	}

	return r, nil
}

// Run starts the background services and serves HTTP until the context is
// canceled.
func (r *Runtime) Run(ctx context.Context) error {
	if r.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
	}

	if err := r.app.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		r.log.WithField("addr", r.server.Addr).Info("http server listening")
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return r.Shutdown()
	}
}

// Shutdown drains the HTTP server and stops the background services.
func (r *Runtime) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := r.server.Shutdown(ctx)
	r.app.Stop(ctx)

	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.db != nil {
		_ = r.db.Close()
	}

	r.log.Info("shutdown complete")
	return err
}
