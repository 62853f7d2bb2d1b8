package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/store"
)

// CreateIdeaInput is the body of an idea creation.
type CreateIdeaInput struct {
	Type    string         `json:"type"`
	Title   *string        `json:"title"`
	URL     *string        `json:"url"`
	Summary *string        `json:"summary"`
	Data    domain.Content `json:"data"`
}

// UpdateIdeaInput changes an idea. Nil fields are left alone; an empty
// string clears the field. Nil Data leaves the content untouched.
type UpdateIdeaInput struct {
	Title   *string        `json:"title"`
	URL     *string        `json:"url"`
	Summary *string        `json:"summary"`
	Data    domain.Content `json:"data"`
}

// IdeaWithData is an idea with its content payload.
type IdeaWithData struct {
	Idea *domain.Idea   `json:"idea"`
	Data domain.Content `json:"data"`
}

// CreateIdea writes the content blob, then the row, and schedules
// enrichment. A failed row write leaves the blob behind; it is overwritten
// if the id is ever reused.
func (s *Service) CreateIdea(ctx context.Context, in CreateIdeaInput) (*IdeaWithData, error) {
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return nil, apierr.BadRequestf("type is required")
	}
	data := in.Data
	if data == nil {
		data = domain.Content{}
	}

	url := in.URL
	if url == nil && in.Type == domain.TypeMeta {
		if project, ok := data["project"].(string); ok && project != "" {
			url = &project
		}
	}

	id := uuid.NewString()
	now := s.store.Now()
	idea := &domain.Idea{
		ID:         id,
		Type:       in.Type,
		Title:      in.Title,
		URL:        url,
		Summary:    in.Summary,
		ContentRef: blob.DataKey(id),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := blob.PutJSON(ctx, s.blobs, idea.ContentRef, data); err != nil {
		return nil, fmt.Errorf("write idea content: %w", err)
	}
	if err := s.store.InsertIdea(ctx, idea); err != nil {
		return nil, err
	}

	s.log.Debug("idea created", "idea_id", id, "type", idea.Type)
	if idea.Type != domain.TypeTag {
		s.scheduleEnrichment(id)
	}
	return &IdeaWithData{Idea: idea, Data: data}, nil
}

// GetIdea loads an idea and reads its content, connections, notes and media
// concurrently.
func (s *Service) GetIdea(ctx context.Context, id string) (*domain.IdeaDetail, error) {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return nil, notFound(err, "Idea")
	}

	detail := &domain.IdeaDetail{Idea: idea, Data: domain.Content{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := blob.GetJSON(gctx, s.blobs, idea.ContentRef, &detail.Data)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Connections, err = s.store.ConnectionsForIdea(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Notes, err = s.store.NotesForIdea(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Media, err = s.store.MediaForIdea(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if detail.Data == nil {
		detail.Data = domain.Content{}
	}
	return detail, nil
}

func (s *Service) ListIdeas(ctx context.Context, opts domain.ListOptions) (domain.Page, error) {
	if opts.Limit < 0 {
		return domain.Page{}, apierr.BadRequestf("limit must be positive")
	}
	if opts.Cursor < 0 {
		return domain.Page{}, apierr.BadRequestf("invalid cursor")
	}
	return s.store.ListIdeas(ctx, opts)
}

// SearchIdeas matches title and summary. A query the search engine cannot
// parse gives no results.
func (s *Service) SearchIdeas(ctx context.Context, query string, limit int) ([]domain.Idea, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apierr.BadRequestf("Missing q parameter")
	}
	return s.store.SearchIdeas(ctx, query, limit)
}

// UpdateIdea applies in and replaces the content when in.Data is set.
func (s *Service) UpdateIdea(ctx context.Context, id string, in UpdateIdeaInput) (*IdeaWithData, error) {
	return s.update(ctx, id, in, false)
}

// MergeIdea applies in and merges in.Data shallowly into the existing
// content: top-level keys of in.Data overwrite, others are kept.
func (s *Service) MergeIdea(ctx context.Context, id string, in UpdateIdeaInput) (*IdeaWithData, error) {
	return s.update(ctx, id, in, true)
}

func (s *Service) update(ctx context.Context, id string, in UpdateIdeaInput, merge bool) (*IdeaWithData, error) {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return nil, notFound(err, "Idea")
	}

	data := domain.Content{}
	if _, err := blob.GetJSON(ctx, s.blobs, idea.ContentRef, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = domain.Content{}
	}

	if in.Data != nil {
		if merge {
			maps.Copy(data, in.Data)
		} else {
			data = in.Data
		}
		if err := blob.PutJSON(ctx, s.blobs, idea.ContentRef, data); err != nil {
			return nil, fmt.Errorf("write idea content: %w", err)
		}
	}

	if in.Title != nil {
		idea.Title = domain.StringPtr(*in.Title)
	}
	if in.URL != nil {
		idea.URL = domain.StringPtr(*in.URL)
	}
	if in.Summary != nil {
		idea.Summary = domain.StringPtr(*in.Summary)
	}
	idea.UpdatedAt = s.store.Now()
	if err := s.store.UpdateIdea(ctx, idea); err != nil {
		return nil, notFound(err, "Idea")
	}
	return &IdeaWithData{Idea: idea, Data: data}, nil
}

// DeleteIdea removes the idea's media blobs and content blob, then the row.
// Connections, notes and media rows go with the row.
func (s *Service) DeleteIdea(ctx context.Context, id string) error {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return notFound(err, "Idea")
	}
	media, err := s.store.MediaForIdea(ctx, id)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.blobs.Delete(gctx, idea.ContentRef) })
	for _, m := range media {
		g.Go(func() error { return s.blobs.Delete(gctx, m.BlobKey) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete idea blobs: %w", err)
	}

	if err := s.store.DeleteIdea(ctx, id); err != nil {
		return notFound(err, "Idea")
	}
	s.log.Debug("idea deleted", "idea_id", id, "media", len(media))
	return nil
}

// FetchContent downloads a page idea's url and stores the article text in
// its content. When no article can be extracted the content is marked
// with article=false instead.
func (s *Service) FetchContent(ctx context.Context, id string) (domain.Content, error) {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return nil, notFound(err, "Idea")
	}
	if idea.Type != domain.TypePage {
		return nil, apierr.BadRequestf("Only page ideas support content fetching")
	}
	if domain.Deref(idea.URL) == "" {
		return nil, apierr.BadRequestf("Idea has no URL")
	}

	data := domain.Content{}
	if _, err := blob.GetJSON(ctx, s.blobs, idea.ContentRef, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = domain.Content{}
	}

	text, err := s.fetcher.Article(ctx, *idea.URL)
	if err != nil {
		s.log.Debug("no article extracted", "idea_id", id, "url", *idea.URL, "error", err)
		data["article"] = false
	} else {
		data["text"] = text
	}

	if err := blob.PutJSON(ctx, s.blobs, idea.ContentRef, data); err != nil {
		return nil, fmt.Errorf("write idea content: %w", err)
	}
	return data, nil
}

// ideaExists reports a NotFound error naming id when the idea is missing.
func (s *Service) ideaExists(ctx context.Context, id string) error {
	_, err := s.store.GetIdea(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apierr.NotFoundf("Idea %s not found", id)
	}
	return err
}
