package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"linkedin-ingest/internal/auth"
	"linkedin-ingest/internal/config"
	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/logging"
	"linkedin-ingest/internal/metrics"
	"linkedin-ingest/internal/models"
	"linkedin-ingest/internal/orchestrator"
	"linkedin-ingest/internal/profile"
	"linkedin-ingest/internal/session"
	"linkedin-ingest/internal/storage"
)

// app holds every wired component for one command invocation.
type app struct {
	cfg      models.Config
	logger   *zap.Logger
	storage  *storage.Storage
	cache    storage.DocumentCache
	sessions *session.Manager
	ingestor *orchestrator.Ingestor
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	st, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	cache, err := storage.NewDocumentCache(cfg.Cache)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger); err != nil {
				logger.Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	sessions := session.NewManager(cfg.Session, cfg.Account(), newAuthenticator(cfg.LinkedIn, logger), st.Sessions, logger,
		session.WithMetrics(mt))

	ingestor := orchestrator.New(cfg, orchestrator.Deps{
		Sessions: sessions,
		Builder:  profile.NewBuilder(nil),
		Cache:    cache,
		History:  st.History,
		Metrics:  mt,
		Logger:   logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		storage:  st,
		cache:    cache,
		sessions: sessions,
		ingestor: ingestor,
	}, nil
}

func newAuthenticator(cfg models.LinkedInConfig, logger *zap.Logger) linkedin.Authenticator {
	if cfg.LoginMethod == "browser" {
		return auth.NewBrowserAuthenticator(cfg, logger)
	}
	return linkedin.NewHTTPAuthenticator(cfg, logger)
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("close cache", zap.Error(err))
		}
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync() // Best-effort sync
}
