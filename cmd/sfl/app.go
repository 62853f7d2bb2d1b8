package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/config"
	"github.com/pbaille/sfl/internal/enrich"
	"github.com/pbaille/sfl/internal/fetcher"
	"github.com/pbaille/sfl/internal/llm"
	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/service"
	"github.com/pbaille/sfl/internal/store"
	"github.com/pbaille/sfl/internal/tasks"
)

// app holds everything a command needs to talk to the idea graph.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *store.Store
	blobs   blob.Store
	runner  *tasks.Runner
	svc     *service.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.closeResources()
		}
	}()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	a.store, err = store.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.store.Close)

	a.blobs, err = a.openBlobs(ctx)
	if err != nil {
		return nil, err
	}

	var enricher service.Enricher
	if cfg.Enrich.Enabled {
		client, err := llm.New(llm.Options{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		if client != nil {
			enricher = enrich.New(a.store, a.blobs, client, log, cfg.Enrich.Timeout)
		} else {
			log.Info("enrichment disabled: no language model configured")
		}
	}

	a.runner = tasks.New(log)
	a.svc = service.New(service.Deps{
		Store:    a.store,
		Blobs:    a.blobs,
		Fetcher:  fetcher.New(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes),
		Enricher: enricher,
		Tasks:    a.runner,
		Log:      log,
	})
	return a, nil
}

func (a *app) openBlobs(ctx context.Context) (blob.Store, error) {
	c := a.cfg.Blob
	switch c.Backend {
	case "memory":
		return blob.NewMemory(), nil
	case "redis":
		r, err := blob.NewRedis(ctx, c.RedisAddr, c.RedisPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	case "gcs":
		g, err := blob.NewGCS(ctx, c.GCSBucket)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		return g, nil
	default:
		return blob.NewFS(c.Dir)
	}
}

// close waits for background enrichment (bounded by ctx) and releases
// storage. Tasks still running when ctx expires are cancelled and lost.
func (a *app) close(ctx context.Context) error {
	if err := a.runner.Drain(ctx); err != nil {
		a.log.Warn("background tasks did not finish", "error", err)
	}
	err := a.closeResources()
	a.log.Sync()
	return err
}

func (a *app) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
