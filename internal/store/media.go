package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pbaille/sfl/internal/domain"
)

const mediaColumns = "id, idea_id, blob_key, filename, mime_type, size_bytes, created_at"

func scanMedia(row scanner) (domain.Media, error) {
	var m domain.Media
	err := row.Scan(&m.ID, &m.IdeaID, &m.BlobKey, &m.Filename, &m.MimeType, &m.SizeBytes, &m.CreatedAt)
	return m, err
}

// InsertMedia records an attachment whose bytes are already in the blob store
func (s *Store) InsertMedia(ctx context.Context, m *domain.Media) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO media ("+mediaColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.IdeaID, m.BlobKey, m.Filename, m.MimeType, m.SizeBytes, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// GetMedia retrieves one attachment by ID
func (s *Store) GetMedia(ctx context.Context, id string) (*domain.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx,
		"SELECT "+mediaColumns+" FROM media WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return &m, nil
}

// DeleteMedia removes one attachment row
func (s *Store) DeleteMedia(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return requireAffected(res)
}

// MediaForIdea returns an idea's attachments, oldest first
func (s *Store) MediaForIdea(ctx context.Context, ideaID string) ([]domain.Media, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mediaColumns+" FROM media WHERE idea_id = ? ORDER BY created_at ASC", ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("media for idea: %w", err)
	}
	defer rows.Close()

	media := []domain.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}
