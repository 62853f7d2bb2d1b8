package service

import (
	"context"
	"strings"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/domain"
)

// CaptureInput is a quick note with optional tags.
type CaptureInput struct {
	Content string   `json:"content"`
	Title   string   `json:"title,omitempty"`
	TagIDs  []string `json:"tag_ids,omitempty"`
}

// Capture creates a note idea holding Content as its text and tags it with
// every id in TagIDs. Unknown tag ids are rejected before anything is
// written.
func (s *Service) Capture(ctx context.Context, in CaptureInput) (*IdeaWithData, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apierr.BadRequestf("content is required")
	}
	for _, tagID := range in.TagIDs {
		tag, err := s.store.GetIdea(ctx, tagID)
		if err != nil {
			return nil, notFound(err, "Tag "+tagID)
		}
		if tag.Type != domain.TypeTag {
			return nil, apierr.BadRequestf("idea %s is not a tag", tagID)
		}
	}

	created, err := s.CreateIdea(ctx, CreateIdeaInput{
		Type:  domain.TypeNote,
		Title: domain.StringPtr(in.Title),
		Data:  domain.Content{"text": in.Content},
	})
	if err != nil {
		return nil, err
	}
	for _, tagID := range in.TagIDs {
		if _, err := s.Link(ctx, created.Idea.ID, tagID, domain.LabelTaggedWith); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// TagIdea tags an idea. Tagging twice is a no-op.
func (s *Service) TagIdea(ctx context.Context, ideaID, tagID string) error {
	if ideaID == "" || tagID == "" {
		return apierr.BadRequestf("idea_id and tag_id are required")
	}
	_, err := s.Link(ctx, ideaID, tagID, domain.LabelTaggedWith)
	return err
}
