package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pbaille/sfl/internal/domain"
)

// ListTags returns tag ideas with their usage counts.
func (s *Service) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// Graph is the whole idea graph.
type Graph struct {
	Nodes []domain.Node       `json:"nodes"`
	Edges []domain.Connection `json:"edges"`
}

// Neighborhood is one idea with its edges and the ideas at their far ends.
type Neighborhood struct {
	Idea        *domain.Idea            `json:"idea"`
	Connections []domain.ConnectionView `json:"connections"`
	Neighbors   []domain.Node           `json:"neighbors"`
}

func (s *Service) Graph(ctx context.Context) (*Graph, error) {
	g, gctx := errgroup.WithContext(ctx)
	out := &Graph{}
	g.Go(func() error {
		var err error
		out.Nodes, err = s.store.ListNodes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Edges, err = s.store.ListConnections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Neighbors(ctx context.Context, id string) (*Neighborhood, error) {
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return nil, notFound(err, "Idea")
	}
	conns, err := s.store.ConnectionsForIdea(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, c := range conns {
		other := c.Other(id)
		if other != id && !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}

	neighbors, err := s.store.NodesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &Neighborhood{Idea: idea, Connections: conns, Neighbors: neighbors}, nil
}
