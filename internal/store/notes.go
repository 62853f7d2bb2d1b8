package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pbaille/sfl/internal/domain"
)

// InsertNote writes a new note
func (s *Store) InsertNote(ctx context.Context, n *domain.Note) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (id, idea_id, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		n.ID, n.IdeaID, n.Body, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// GetNote retrieves one note by ID
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var n domain.Note
	err := s.db.QueryRowContext(ctx,
		"SELECT id, idea_id, body, created_at, updated_at FROM notes WHERE id = ?", id,
	).Scan(&n.ID, &n.IdeaID, &n.Body, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

// UpdateNote replaces the body of a note
func (s *Store) UpdateNote(ctx context.Context, id, body string, updatedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notes SET body = ?, updated_at = ? WHERE id = ?", body, updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireAffected(res)
}

// DeleteNote removes one note
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res)
}

// NotesForIdea returns an idea's notes, oldest first
func (s *Store) NotesForIdea(ctx context.Context, ideaID string) ([]domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, idea_id, body, created_at, updated_at FROM notes WHERE idea_id = ? ORDER BY created_at ASC",
		ideaID,
	)
	if err != nil {
		return nil, fmt.Errorf("notes for idea: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.IdeaID, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
