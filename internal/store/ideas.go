package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/sfl/internal/domain"
)

const ideaColumns = "i.id, i.type, i.title, i.url, i.summary, i.content_ref, i.created_at, i.updated_at"

func scanIdea(row scanner) (domain.Idea, error) {
	var i domain.Idea
	err := row.Scan(&i.ID, &i.Type, &i.Title, &i.URL, &i.Summary, &i.ContentRef, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func collectIdeas(rows *sql.Rows) ([]domain.Idea, error) {
	defer rows.Close()

	ideas := []domain.Idea{}
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// InsertIdea writes a new idea row
func (s *Store) InsertIdea(ctx context.Context, i *domain.Idea) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ideas (id, type, title, url, summary, content_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Type, i.Title, i.URL, i.Summary, i.ContentRef, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}
	return nil
}

// GetIdea retrieves one idea by ID
func (s *Store) GetIdea(ctx context.Context, id string) (*domain.Idea, error) {
	i, err := scanIdea(s.db.QueryRowContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas i WHERE i.id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return &i, nil
}

// ListIdeas returns one page of ideas, newest first. One extra row is read
// to decide whether a next page exists.
func (s *Store) ListIdeas(ctx context.Context, opts domain.ListOptions) (domain.Page, error) {
	limit := domain.ClampLimit(opts.Limit)

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT DISTINCT " + ideaColumns + " FROM ideas i")
	if opts.Tag != "" {
		sb.WriteString(`
			JOIN connections c ON c.from_id = i.id AND c.label = 'tagged_with'
			JOIN ideas t ON t.id = c.to_id AND t.type = 'tag'
			WHERE (t.id = ? OR t.title = ?)`)
		args = append(args, opts.Tag, opts.Tag)
	} else {
		sb.WriteString(" WHERE 1=1")
	}
	if opts.Type != "" {
		sb.WriteString(" AND i.type = ?")
		args = append(args, opts.Type)
	}
	if opts.URL != "" {
		sb.WriteString(" AND i.url = ?")
		args = append(args, opts.URL)
	}
	if opts.Cursor > 0 {
		sb.WriteString(" AND i.created_at < ?")
		args = append(args, opts.Cursor)
	}
	sb.WriteString(" ORDER BY i.created_at DESC LIMIT ?")
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list ideas: %w", err)
	}
	ideas, err := collectIdeas(rows)
	if err != nil {
		return domain.Page{}, err
	}

	page := domain.Page{Ideas: ideas}
	if len(ideas) > limit {
		page.Ideas = ideas[:limit]
		next := page.Ideas[limit-1].CreatedAt
		page.NextCursor = &next
	}
	return page, nil
}

// UpdateIdea overwrites the mutable metadata of an idea
func (s *Store) UpdateIdea(ctx context.Context, i *domain.Idea) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE ideas SET title = ?, url = ?, summary = ?, updated_at = ? WHERE id = ?",
		i.Title, i.URL, i.Summary, i.UpdatedAt, i.ID,
	)
	if err != nil {
		return fmt.Errorf("update idea: %w", err)
	}
	return requireAffected(res)
}

// DeleteIdea removes an idea. Connections, notes and media rows referencing
// it are removed by ON DELETE CASCADE.
func (s *Store) DeleteIdea(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	return requireAffected(res)
}

// SearchIdeas runs a full-text match over title and summary ordered by
// relevance. A query the FTS engine cannot parse yields no results.
func (s *Store) SearchIdeas(ctx context.Context, query string, limit int) ([]domain.Idea, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.Idea{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ideaColumns+` FROM ideas i
		 JOIN ideas_fts f ON i.rowid = f.rowid
		 WHERE ideas_fts MATCH ?
		 ORDER BY f.rank
		 LIMIT ?`,
		query, domain.ClampLimit(limit),
	)
	if isQuerySyntaxError(err) {
		return []domain.Idea{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search ideas: %w", err)
	}

	ideas, err := collectIdeas(rows)
	if isQuerySyntaxError(err) {
		return []domain.Idea{}, nil
	}
	return ideas, err
}

// ListTags returns all tag ideas with the number of ideas tagged with each
func (s *Store) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ideaColumns+`, COUNT(c.id) AS usage_count
		FROM ideas i
		LEFT JOIN connections c ON c.to_id = i.id AND c.label = 'tagged_with'
		WHERE i.type = 'tag'
		GROUP BY i.id
		ORDER BY usage_count DESC, i.title ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(
			&t.ID, &t.Type, &t.Title, &t.URL, &t.Summary, &t.ContentRef, &t.CreatedAt, &t.UpdatedAt,
			&t.UsageCount,
		); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListNodes returns every idea in reduced form, newest first
func (s *Store) ListNodes(ctx context.Context) ([]domain.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, title, url, created_at FROM ideas ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return collectNodes(rows)
}

// NodesByID returns the reduced form of the given ideas
func (s *Store) NodesByID(ctx context.Context, ids []string) ([]domain.Node, error) {
	if len(ids) == 0 {
		return []domain.Node{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, title, url, created_at FROM ideas WHERE id IN ("+placeholders+") ORDER BY created_at DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("nodes by id: %w", err)
	}
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]domain.Node, error) {
	defer rows.Close()

	nodes := []domain.Node{}
	for rows.Next() {
		var n domain.Node
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.URL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
