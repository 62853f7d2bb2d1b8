package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/sfl/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sfl.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addIdea(t *testing.T, s *Store, typ, title, summary string) domain.Idea {
	t.Helper()
	id := uuid.NewString()
	now := s.Now()
	i := domain.Idea{
		ID:         id,
		Type:       typ,
		Title:      domain.StringPtr(title),
		Summary:    domain.StringPtr(summary),
		ContentRef: "ideas/" + id + "/data.json",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.InsertIdea(context.Background(), &i); err != nil {
		t.Fatalf("InsertIdea: %v", err)
	}
	return i
}

func connect(t *testing.T, s *Store, from, to, label string) domain.Connection {
	t.Helper()
	c := domain.Connection{ID: uuid.NewString(), FromID: from, ToID: to, Label: label, CreatedAt: s.Now()}
	if err := s.InsertConnection(context.Background(), &c); err != nil {
		t.Fatalf("InsertConnection: %v", err)
	}
	return c
}

func TestClockIsStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	c := newClock(func() time.Time { return fixed })

	a, b, d := c.next(), c.next(), c.next()
	if !(a < b && b < d) {
		t.Fatalf("timestamps not increasing: %d %d %d", a, b, d)
	}
	if a != fixed.UnixMilli() {
		t.Errorf("first = %d, want %d", a, fixed.UnixMilli())
	}
}

func TestInsertAndGetIdea(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	want := addIdea(t, s, domain.TypeNote, "hello", "")

	got, err := s.GetIdea(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetIdea: %v", err)
	}
	if got.ID != want.ID || got.Type != domain.TypeNote || domain.Deref(got.Title) != "hello" {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Summary != nil {
		t.Errorf("Summary = %q, want nil", *got.Summary)
	}

	if _, err := s.GetIdea(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetIdea(missing) err = %v, want ErrNotFound", err)
	}
}

func TestListIdeasPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	oldest := addIdea(t, s, domain.TypeNote, "one", "")
	middle := addIdea(t, s, domain.TypeNote, "two", "")
	newest := addIdea(t, s, domain.TypeNote, "three", "")

	var seen []string
	var cursor int64
	for _, want := range []domain.Idea{newest, middle, oldest} {
		page, err := s.ListIdeas(ctx, domain.ListOptions{Limit: 1, Cursor: cursor})
		if err != nil {
			t.Fatalf("ListIdeas: %v", err)
		}
		if len(page.Ideas) != 1 || page.Ideas[0].ID != want.ID {
			t.Fatalf("page = %+v, want %s", page.Ideas, want.ID)
		}
		seen = append(seen, page.Ideas[0].ID)
		if want.ID == oldest.ID {
			if page.NextCursor != nil {
				t.Errorf("last page cursor = %d, want nil", *page.NextCursor)
			}
			break
		}
		if page.NextCursor == nil {
			t.Fatal("expected a next cursor")
		}
		cursor = *page.NextCursor
	}
	if len(seen) != 3 {
		t.Errorf("saw %d ideas, want 3", len(seen))
	}
}

func TestListIdeasFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tag := addIdea(t, s, domain.TypeTag, "ai", "")
	tagged := addIdea(t, s, domain.TypeNote, "tagged", "")
	addIdea(t, s, domain.TypeQuote, "quote", "")
	connect(t, s, tagged.ID, tag.ID, domain.LabelTaggedWith)

	tests := []struct {
		name string
		opts domain.ListOptions
		want int
	}{
		{"all", domain.ListOptions{}, 3},
		{"by type", domain.ListOptions{Type: domain.TypeQuote}, 1},
		{"by tag id", domain.ListOptions{Tag: tag.ID}, 1},
		{"by tag title", domain.ListOptions{Tag: "ai"}, 1},
		{"by tag and type", domain.ListOptions{Tag: "ai", Type: domain.TypeQuote}, 0},
		{"unknown tag", domain.ListOptions{Tag: "nope"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ListIdeas(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListIdeas: %v", err)
			}
			if len(page.Ideas) != tt.want {
				t.Errorf("got %d ideas, want %d", len(page.Ideas), tt.want)
			}
		})
	}
}

func TestSearchIdeas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	match := addIdea(t, s, domain.TypeNote, "Distributed systems", "consensus and replication")
	addIdea(t, s, domain.TypeNote, "Cooking", "bread")

	got, err := s.SearchIdeas(ctx, "replication", 10)
	if err != nil {
		t.Fatalf("SearchIdeas: %v", err)
	}
	if len(got) != 1 || got[0].ID != match.ID {
		t.Errorf("got %+v, want only %s", got, match.ID)
	}
}

func TestSearchIdeasMalformedQuery(t *testing.T) {
	s := newTestStore(t)
	addIdea(t, s, domain.TypeNote, "quoted", "text")

	for _, q := range []string{`"unbalanced`, `AND`, `title:(`, `foo:bar`, `*`, `NEAR(a b, x)`, `(`, `a OR`} {
		got, err := s.SearchIdeas(context.Background(), q, 10)
		if err != nil {
			t.Errorf("SearchIdeas(%q) err = %v, want nil", q, err)
		}
		if len(got) != 0 {
			t.Errorf("SearchIdeas(%q) = %d results, want 0", q, len(got))
		}
	}
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	i := addIdea(t, s, domain.TypeNote, "before", "")

	i.Title = domain.StringPtr("after")
	i.UpdatedAt = s.Now()
	if err := s.UpdateIdea(ctx, &i); err != nil {
		t.Fatalf("UpdateIdea: %v", err)
	}

	if got, _ := s.SearchIdeas(ctx, "before", 10); len(got) != 0 {
		t.Errorf("stale index: %d results for old title", len(got))
	}
	if got, _ := s.SearchIdeas(ctx, "after", 10); len(got) != 1 {
		t.Errorf("got %d results for new title, want 1", len(got))
	}
}

func TestDuplicateConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := addIdea(t, s, domain.TypeNote, "a", "")
	b := addIdea(t, s, domain.TypeNote, "b", "")
	connect(t, s, a.ID, b.ID, "cites")

	dup := domain.Connection{ID: uuid.NewString(), FromID: a.ID, ToID: b.ID, Label: "cites", CreatedAt: s.Now()}
	if err := s.InsertConnection(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("InsertConnection dup err = %v, want ErrDuplicate", err)
	}

	dup.ID = uuid.NewString()
	inserted, err := s.LinkIdeas(ctx, &dup)
	if err != nil {
		t.Fatalf("LinkIdeas: %v", err)
	}
	if inserted {
		t.Error("LinkIdeas inserted a duplicate edge")
	}

	conns, err := s.ListConnections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 1 {
		t.Errorf("got %d connections, want 1", len(conns))
	}
}

func TestDeleteIdeaCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := addIdea(t, s, domain.TypeNote, "a", "")
	b := addIdea(t, s, domain.TypeNote, "b", "")
	connect(t, s, a.ID, b.ID, "")
	connect(t, s, b.ID, a.ID, domain.LabelRelatedTo)

	now := s.Now()
	if err := s.InsertNote(ctx, &domain.Note{ID: uuid.NewString(), IdeaID: a.ID, Body: "n", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertMedia(ctx, &domain.Media{ID: uuid.NewString(), IdeaID: a.ID, BlobKey: "k", Filename: "f.png", MimeType: "image/png", SizeBytes: 3, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteIdea(ctx, a.ID); err != nil {
		t.Fatalf("DeleteIdea: %v", err)
	}

	if conns, _ := s.ConnectionsForIdea(ctx, b.ID); len(conns) != 0 {
		t.Errorf("%d connections survived", len(conns))
	}
	if notes, _ := s.NotesForIdea(ctx, a.ID); len(notes) != 0 {
		t.Errorf("%d notes survived", len(notes))
	}
	if media, _ := s.MediaForIdea(ctx, a.ID); len(media) != 0 {
		t.Errorf("%d media rows survived", len(media))
	}
	if err := s.DeleteIdea(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestListTagsCountsUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	popular := addIdea(t, s, domain.TypeTag, "popular", "")
	lonely := addIdea(t, s, domain.TypeTag, "lonely", "")
	for range 2 {
		n := addIdea(t, s, domain.TypeNote, "n", "")
		connect(t, s, n.ID, popular.ID, domain.LabelTaggedWith)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].ID != popular.ID || tags[0].UsageCount != 2 {
		t.Errorf("first tag = %s (%d), want popular (2)", tags[0].ID, tags[0].UsageCount)
	}
	if tags[1].ID != lonely.ID || tags[1].UsageCount != 0 {
		t.Errorf("second tag = %s (%d), want lonely (0)", tags[1].ID, tags[1].UsageCount)
	}
}

func TestTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.InsertToken(ctx, "tok", "cli"); err != nil {
		t.Fatalf("InsertToken: %v", err)
	}
	if ok, err := s.TokenExists(ctx, "tok"); err != nil || !ok {
		t.Errorf("TokenExists(tok) = %v, %v", ok, err)
	}
	if ok, err := s.TokenExists(ctx, "other"); err != nil || ok {
		t.Errorf("TokenExists(other) = %v, %v", ok, err)
	}
}
