package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pbaille/sfl/internal/domain"
)

const connectionColumns = "c.id, c.from_id, c.to_id, c.label, c.created_at"

func scanConnection(row scanner) (domain.Connection, error) {
	var c domain.Connection
	err := row.Scan(&c.ID, &c.FromID, &c.ToID, &c.Label, &c.CreatedAt)
	return c, err
}

// InsertConnection creates an edge. It returns ErrDuplicate when the same
// (from_id, to_id, label) edge already exists.
func (s *Store) InsertConnection(ctx context.Context, c *domain.Connection) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO connections (id, from_id, to_id, label, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.FromID, c.ToID, c.Label, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// LinkIdeas creates an edge unless an identical one exists. It reports
// whether a row was written.
func (s *Store) LinkIdeas(ctx context.Context, c *domain.Connection) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO connections (id, from_id, to_id, label, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.FromID, c.ToID, c.Label, c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("link ideas: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetConnection retrieves one connection by ID
func (s *Store) GetConnection(ctx context.Context, id string) (*domain.Connection, error) {
	c, err := scanConnection(s.db.QueryRowContext(ctx,
		"SELECT "+connectionColumns+" FROM connections c WHERE c.id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &c, nil
}

// DeleteConnection removes one connection
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return requireAffected(res)
}

// ConnectionsForIdea returns edges touching the idea in either direction,
// joined with both endpoints.
func (s *Store) ConnectionsForIdea(ctx context.Context, id string) ([]domain.ConnectionView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`, fi.type, fi.title, ti.type, ti.title
		FROM connections c
		JOIN ideas fi ON fi.id = c.from_id
		JOIN ideas ti ON ti.id = c.to_id
		WHERE c.from_id = ? OR c.to_id = ?
		ORDER BY c.created_at DESC
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("connections for idea: %w", err)
	}
	defer rows.Close()

	views := []domain.ConnectionView{}
	for rows.Next() {
		var v domain.ConnectionView
		if err := rows.Scan(
			&v.ID, &v.FromID, &v.ToID, &v.Label, &v.CreatedAt,
			&v.FromType, &v.FromTitle, &v.ToType, &v.ToTitle,
		); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// ListConnections returns every edge, newest first
func (s *Store) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+connectionColumns+" FROM connections c ORDER BY c.created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	conns := []domain.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
