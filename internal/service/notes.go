package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/domain"
)

func (s *Service) AddNote(ctx context.Context, ideaID, body string) (*domain.Note, error) {
	if err := s.ideaExists(ctx, ideaID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apierr.BadRequestf("body is required")
	}

	now := s.store.Now()
	n := &domain.Note{
		ID:        uuid.NewString(),
		IdeaID:    ideaID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, id, body string) (*domain.Note, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apierr.BadRequestf("body is required")
	}
	if err := s.store.UpdateNote(ctx, id, body, s.store.Now()); err != nil {
		return nil, notFound(err, "Note")
	}
	n, err := s.store.GetNote(ctx, id)
	if err != nil {
		return nil, notFound(err, "Note")
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return notFound(err, "Note")
	}
	return nil
}
