package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/store"
)

// CreateConnectionInput is the body of a connection creation.
type CreateConnectionInput struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Label  string `json:"label"`
}

// CreateConnection links two existing ideas and returns the stored row. An
// identical edge is reported as a Conflict.
func (s *Service) CreateConnection(ctx context.Context, in CreateConnectionInput) (*domain.Connection, error) {
	if in.FromID == "" || in.ToID == "" {
		return nil, apierr.BadRequestf("from_id and to_id are required")
	}
	if err := s.endpointsExist(ctx, in.FromID, in.ToID); err != nil {
		return nil, err
	}

	c := &domain.Connection{
		ID:        uuid.NewString(),
		FromID:    in.FromID,
		ToID:      in.ToID,
		Label:     strings.TrimSpace(in.Label),
		CreatedAt: s.store.Now(),
	}
	err := s.store.InsertConnection(ctx, c)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apierr.Conflictf("Connection already exists")
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetConnection(ctx, c.ID)
}

// Link creates an edge unless an identical one exists, in which case the
// existing state is kept and inserted is false.
func (s *Service) Link(ctx context.Context, from, to, label string) (inserted bool, err error) {
	if err := s.endpointsExist(ctx, from, to); err != nil {
		return false, err
	}
	return s.store.LinkIdeas(ctx, &domain.Connection{
		ID:        uuid.NewString(),
		FromID:    from,
		ToID:      to,
		Label:     label,
		CreatedAt: s.store.Now(),
	})
}

func (s *Service) endpointsExist(ctx context.Context, from, to string) error {
	var g errgroup.Group
	var fromErr, toErr error
	g.Go(func() error { fromErr = s.ideaExists(ctx, from); return nil })
	g.Go(func() error { toErr = s.ideaExists(ctx, to); return nil })
	_ = g.Wait()
	if fromErr != nil {
		return fromErr
	}
	return toErr
}

func (s *Service) DeleteConnection(ctx context.Context, id string) error {
	if err := s.store.DeleteConnection(ctx, id); err != nil {
		return notFound(err, "Connection")
	}
	return nil
}

// ConnectionsForIdea lists edges in both directions with endpoint details.
func (s *Service) ConnectionsForIdea(ctx context.Context, id string) ([]domain.ConnectionView, error) {
	if err := s.ideaExists(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ConnectionsForIdea(ctx, id)
}

// ListConnections returns every edge, newest first.
func (s *Service) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	return s.store.ListConnections(ctx)
}
