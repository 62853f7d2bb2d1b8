// Package service implements idea, connection, note, media, tag and graph
// operations over the record store and the blob store. Transports call it
// and translate its apierr errors.
package service

import (
	"context"
	"errors"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/enrich"
	"github.com/pbaille/sfl/internal/fetcher"
	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/store"
)

// Enricher runs post-create enrichment for one idea.
type Enricher interface {
	Enrich(ctx context.Context, ideaID string) enrich.Result
}

// Scheduler runs fn after the caller has returned.
type Scheduler interface {
	Go(name string, fn func(ctx context.Context)) bool
}

type Service struct {
	store    *store.Store
	blobs    blob.Store
	fetcher  *fetcher.Fetcher
	enricher Enricher
	tasks    Scheduler
	log      *logger.Logger
}

// Deps are the collaborators of a Service. Enricher and Tasks may be nil,
// which disables enrichment.
type Deps struct {
	Store    *store.Store
	Blobs    blob.Store
	Fetcher  *fetcher.Fetcher
	Enricher Enricher
	Tasks    Scheduler
	Log      *logger.Logger
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	f := d.Fetcher
	if f == nil {
		f = fetcher.New(0, 0)
	}
	return &Service{
		store:    d.Store,
		blobs:    d.Blobs,
		fetcher:  f,
		enricher: d.Enricher,
		tasks:    d.Tasks,
		log:      log.With("component", "service"),
	}
}

// scheduleEnrichment hands the idea to the background runner. The request
// that created the idea does not wait for it.
func (s *Service) scheduleEnrichment(ideaID string) {
	if s.enricher == nil || s.tasks == nil {
		return
	}
	s.tasks.Go("enrich", func(ctx context.Context) {
		s.enricher.Enrich(ctx, ideaID)
	})
}

// notFound converts store.ErrNotFound into a user-facing error.
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFoundf("%s not found", what)
	}
	return err
}
