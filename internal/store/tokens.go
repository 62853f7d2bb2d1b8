package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertToken stores an issued bearer token for a client
func (s *Store) InsertToken(ctx context.Context, token, clientID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_tokens (token, client_id, created_at) VALUES (?, ?, ?)",
		token, clientID, s.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// TokenExists reports whether token was issued by this store
func (s *Store) TokenExists(ctx context.Context, token string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM api_tokens WHERE token = ?", token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return true, nil
}
