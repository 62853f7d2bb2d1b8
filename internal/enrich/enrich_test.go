package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/llm"
	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/store"
)

type fixture struct {
	store *store.Store
	blobs *blob.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &fixture{store: st, blobs: blob.NewMemory()}
}

func (f *fixture) addIdea(t *testing.T, typ, title, summary string, content domain.Content) domain.Idea {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	now := f.store.Now()
	idea := domain.Idea{
		ID:         id,
		Type:       typ,
		Title:      domain.StringPtr(title),
		Summary:    domain.StringPtr(summary),
		ContentRef: blob.DataKey(id),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if content == nil {
		content = domain.Content{}
	}
	if err := blob.PutJSON(ctx, f.blobs, idea.ContentRef, content); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	if err := f.store.InsertIdea(ctx, &idea); err != nil {
		t.Fatalf("InsertIdea: %v", err)
	}
	return idea
}

func (f *fixture) orchestrator(client llm.Client) *Orchestrator {
	return New(f.store, f.blobs, client, logger.Nop(), 0)
}

// routed answers tag prompts and related prompts separately.
func routed(tags, related func() (string, error)) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, msgs []llm.Message) (string, error) {
		if len(msgs) > 0 && msgs[0].Content == tagSystemPrompt {
			return tags()
		}
		return related()
	})
}

func answer(s string) func() (string, error) {
	return func() (string, error) { return s, nil }
}

func TestEnrichTagsScenario(t *testing.T) {
	f := newFixture(t)
	a := f.addIdea(t, domain.TypeTag, "ai", "", nil)
	b := f.addIdea(t, domain.TypeNote, "", "Experiment with AI", domain.Content{"text": "long body"})

	res := f.orchestrator(routed(answer(`["`+a.ID+`"]`), answer(`[]`))).Enrich(context.Background(), b.ID)
	if res.Status() != StatusSuccess {
		t.Fatalf("status = %s (%s / %s)", res.Status(), res.Tags, res.Related)
	}

	conns, err := f.store.ConnectionsForIdea(context.Background(), b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 1 {
		t.Fatalf("connections = %+v, want exactly one", conns)
	}
	c := conns[0]
	if c.FromID != b.ID || c.ToID != a.ID || c.Label != domain.LabelTaggedWith {
		t.Errorf("edge = %+v", c.Connection)
	}
}

func TestEnrichLinksRelatedIdeas(t *testing.T) {
	f := newFixture(t)
	c := f.addIdea(t, domain.TypeNote, "Go concurrency patterns", "", nil)
	d := f.addIdea(t, domain.TypeNote, "Concurrency in Go", "", nil)

	var prompt string
	client := routed(answer(`[]`), func() (string, error) {
		return `Sure! ["` + c.ID + `", "made-up-id"]`, nil
	})
	client = capturePrompt(client, &prompt)

	res := f.orchestrator(client).Enrich(context.Background(), d.ID)
	if res.Tags.Outcome != OutcomeSkipped {
		t.Errorf("tags = %s, want skipped with no tags defined", res.Tags)
	}
	if !reflect.DeepEqual(res.Related.Linked, []string{c.ID}) {
		t.Fatalf("related linked = %v", res.Related.Linked)
	}
	if !strings.Contains(prompt, c.ID+": Go concurrency patterns") {
		t.Errorf("candidate list missing from prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, d.ID+":") {
		t.Error("idea listed as its own candidate")
	}

	conns, _ := f.store.ConnectionsForIdea(context.Background(), d.ID)
	if len(conns) != 1 || conns[0].Label != domain.LabelRelatedTo || conns[0].ToID != c.ID {
		t.Errorf("connections = %+v", conns)
	}
}

func capturePrompt(next llm.Client, out *string) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, msgs []llm.Message) (string, error) {
		if len(msgs) > 1 && msgs[0].Content == relatedSystemPrompt {
			*out = msgs[1].Content
		}
		return next.Complete(ctx, msgs)
	})
}

func TestEnrichFallsBackToRecentIdeas(t *testing.T) {
	f := newFixture(t)
	old := f.addIdea(t, domain.TypeNote, "gardening", "", nil)
	n := f.addIdea(t, domain.TypeNote, "quantum", "", nil)

	var prompt string
	client := capturePrompt(routed(answer(`[]`), answer(`[]`)), &prompt)
	res := f.orchestrator(client).Enrich(context.Background(), n.ID)

	if res.Related.Outcome != OutcomeApplied {
		t.Fatalf("related = %s", res.Related)
	}
	if !strings.Contains(prompt, old.ID) {
		t.Errorf("recent idea not offered as candidate:\n%s", prompt)
	}
}

func TestEnrichSurvivesFailingModel(t *testing.T) {
	f := newFixture(t)
	f.addIdea(t, domain.TypeTag, "ai", "", nil)
	f.addIdea(t, domain.TypeNote, "other", "", nil)
	n := f.addIdea(t, domain.TypeNote, "AI note", "", nil)

	boom := llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
		return "", errors.New("model unavailable")
	})
	res := f.orchestrator(boom).Enrich(context.Background(), n.ID)
	if res.Status() != StatusFailed {
		t.Errorf("status = %s, want failed", res.Status())
	}

	panicky := llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
		panic("bad client")
	})
	res = f.orchestrator(panicky).Enrich(context.Background(), n.ID)
	if res.Status() != StatusFailed {
		t.Errorf("status after panic = %s, want failed", res.Status())
	}

	conns, _ := f.store.ConnectionsForIdea(context.Background(), n.ID)
	if len(conns) != 0 {
		t.Errorf("connections = %+v, want none", conns)
	}
}

func TestEnrichSkipsTagsAndMissingIdeas(t *testing.T) {
	f := newFixture(t)
	tag := f.addIdea(t, domain.TypeTag, "ai", "", nil)

	called := false
	client := llm.ClientFunc(func(context.Context, []llm.Message) (string, error) {
		called = true
		return "[]", nil
	})
	o := f.orchestrator(client)

	for _, id := range []string{tag.ID, "missing"} {
		res := o.Enrich(context.Background(), id)
		if res.Tags.Outcome != OutcomeSkipped || res.Related.Outcome != OutcomeSkipped {
			t.Errorf("%s: %s / %s, want both skipped", id, res.Tags, res.Related)
		}
	}
	if called {
		t.Error("model called for a skipped idea")
	}
}

func TestEnrichIgnoresDuplicateEdges(t *testing.T) {
	f := newFixture(t)
	a := f.addIdea(t, domain.TypeTag, "ai", "", nil)
	b := f.addIdea(t, domain.TypeNote, "AI", "", nil)

	o := f.orchestrator(routed(answer(`["`+a.ID+`","`+a.ID+`"]`), answer(`[]`)))
	o.Enrich(context.Background(), b.ID)
	res := o.Enrich(context.Background(), b.ID)
	if res.Tags.Outcome != OutcomeApplied || len(res.Tags.Linked) != 0 {
		t.Errorf("second run tags = %+v", res.Tags)
	}
	conns, _ := f.store.ConnectionsForIdea(context.Background(), b.ID)
	if len(conns) != 1 {
		t.Errorf("connections = %d, want 1", len(conns))
	}
}
