package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/pbaille/sfl/internal/apierr"
	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/fetcher"
)

const defaultMimeType = "application/octet-stream"

// UploadMedia stores body as a new attachment of the idea.
func (s *Service) UploadMedia(ctx context.Context, ideaID, filename, mimeType string, body []byte) (*domain.Media, error) {
	if err := s.ideaExists(ctx, ideaID); err != nil {
		return nil, err
	}
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apierr.BadRequestf("file field required")
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	id := uuid.NewString()
	m := &domain.Media{
		ID:        id,
		IdeaID:    ideaID,
		BlobKey:   blob.MediaKey(ideaID, id, filename),
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(body)),
		CreatedAt: s.store.Now(),
	}
	if err := s.blobs.Put(ctx, m.BlobKey, body, mimeType); err != nil {
		return nil, fmt.Errorf("write media: %w", err)
	}
	if err := s.store.InsertMedia(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// FetchMedia downloads a remote image and attaches it to the idea.
func (s *Service) FetchMedia(ctx context.Context, ideaID, rawURL string) (*domain.Media, error) {
	if err := s.ideaExists(ctx, ideaID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawURL) == "" {
		return nil, apierr.BadRequestf("url is required")
	}

	img, err := s.fetcher.Image(ctx, rawURL)
	if errors.Is(err, fetcher.ErrNotImage) {
		return nil, apierr.BadRequestf("%v", err)
	}
	if err != nil {
		return nil, apierr.UpstreamErr("Could not fetch URL: "+err.Error(), err)
	}
	return s.UploadMedia(ctx, ideaID, img.Filename, img.ContentType, img.Body)
}

// MediaObject is a media row with its bytes.
type MediaObject struct {
	Media *domain.Media
	Body  []byte
}

// OpenMedia returns the attachment and its stored bytes.
func (s *Service) OpenMedia(ctx context.Context, id string) (*MediaObject, error) {
	m, err := s.store.GetMedia(ctx, id)
	if err != nil {
		return nil, notFound(err, "Media")
	}
	obj, err := s.blobs.Get(ctx, m.BlobKey)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, apierr.NotFoundf("Media object not found in storage")
	}
	return &MediaObject{Media: m, Body: obj.Body}, nil
}

func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	m, err := s.store.GetMedia(ctx, id)
	if err != nil {
		return notFound(err, "Media")
	}
	if err := s.blobs.Delete(ctx, m.BlobKey); err != nil {
		return fmt.Errorf("delete media blob: %w", err)
	}
	if err := s.store.DeleteMedia(ctx, id); err != nil {
		return notFound(err, "Media")
	}
	return nil
}
