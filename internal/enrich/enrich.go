// Package enrich tags and links a freshly created idea with help from a
// language model. It is best effort: every failure ends up in the returned
// Result, never in the caller.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/sfl/internal/blob"
	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/llm"
	"github.com/pbaille/sfl/internal/logger"
	"github.com/pbaille/sfl/internal/store"
)

const (
	candidateLimit = 25
	searchQueryLen = 200
	maxSearchTerms = 40
	tracerName     = "github.com/pbaille/sfl/internal/enrich"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Orchestrator runs the tag and related-idea suggestion steps.
type Orchestrator struct {
	store   *store.Store
	blobs   blob.Store
	llm     llm.Client
	log     *logger.Logger
	timeout time.Duration
	tracer  trace.Tracer
}

// New builds an orchestrator. A zero timeout leaves model calls bounded only
// by the model client's own timeout.
func New(st *store.Store, blobs blob.Store, client llm.Client, log *logger.Logger, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:   st,
		blobs:   blobs,
		llm:     client,
		log:     log.With("component", "enrich"),
		timeout: timeout,
		tracer:  otel.Tracer(tracerName),
	}
}

// Enrich runs both steps concurrently for one idea and reports what
// happened. It never panics and never returns an error.
func (o *Orchestrator) Enrich(ctx context.Context, ideaID string) (res Result) {
	res = Result{IdeaID: ideaID}
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "enrich.idea", trace.WithAttributes(attribute.String("idea.id", ideaID)))
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("enrich panic: %v", rec)
			res.Tags = failed(res.Tags, err)
			res.Related = failed(res.Related, err)
		}
		o.finish(span, res, time.Since(start))
	}()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	idea, err := o.store.GetIdea(ctx, ideaID)
	if errors.Is(err, store.ErrNotFound) {
		res.Tags = skipped("idea not found")
		res.Related = skipped("idea not found")
		return res
	}
	if err != nil {
		res.Tags = StepResult{Outcome: OutcomeFailed, Err: err}
		res.Related = StepResult{Outcome: OutcomeFailed, Err: err}
		return res
	}
	if idea.Type == domain.TypeTag {
		res.Tags = skipped("tag ideas are not enriched")
		res.Related = skipped("tag ideas are not enriched")
		return res
	}

	content := domain.Content{}
	if _, err := blob.GetJSON(ctx, o.blobs, idea.ContentRef, &content); err != nil {
		o.log.Warn("enrich: content unavailable, describing metadata only", "idea_id", ideaID, "error", err)
	}
	description := describe(idea, content)

	var g errgroup.Group
	g.Go(func() error {
		res.Tags = o.safely("tags", func() StepResult { return o.suggestTags(ctx, idea, description) })
		return nil
	})
	g.Go(func() error {
		res.Related = o.safely("related", func() StepResult { return o.suggestRelated(ctx, idea, description) })
		return nil
	})
	_ = g.Wait()
	return res
}

func (o *Orchestrator) safely(step string, fn func() StepResult) (out StepResult) {
	defer func() {
		if rec := recover(); rec != nil {
			out = StepResult{Outcome: OutcomeFailed, Err: fmt.Errorf("%s step panic: %v", step, rec)}
		}
	}()
	return fn()
}

func (o *Orchestrator) suggestTags(ctx context.Context, idea *domain.Idea, description string) StepResult {
	tags, err := o.store.ListTags(ctx)
	if err != nil {
		return StepResult{Outcome: OutcomeFailed, Err: err}
	}
	if len(tags) == 0 {
		return skipped("no tags defined")
	}

	text, err := o.llm.Complete(ctx, tagMessages(description, tags))
	if err != nil {
		return StepResult{Outcome: OutcomeFailed, Err: fmt.Errorf("tag suggestion: %w", err)}
	}

	valid := make(map[string]bool, len(tags))
	for _, t := range tags {
		valid[t.ID] = true
	}
	return o.link(ctx, idea.ID, filterIDs(parseIDs(text), valid), domain.LabelTaggedWith)
}

func (o *Orchestrator) suggestRelated(ctx context.Context, idea *domain.Idea, description string) StepResult {
	candidates, err := o.candidates(ctx, idea)
	if err != nil {
		return StepResult{Outcome: OutcomeFailed, Err: err}
	}
	if len(candidates) == 0 {
		return skipped("no candidates")
	}

	text, err := o.llm.Complete(ctx, relatedMessages(description, candidates))
	if err != nil {
		return StepResult{Outcome: OutcomeFailed, Err: fmt.Errorf("related suggestion: %w", err)}
	}

	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c.ID] = true
	}
	return o.link(ctx, idea.ID, filterIDs(parseIDs(text), valid), domain.LabelRelatedTo)
}

// candidates searches for ideas resembling the new one and falls back to
// the most recent ideas. The idea itself and tags are never candidates.
func (o *Orchestrator) candidates(ctx context.Context, idea *domain.Idea) ([]domain.Idea, error) {
	query := searchQuery(domain.Deref(idea.Title) + " " + domain.Deref(idea.Summary))

	found, err := o.store.SearchIdeas(ctx, query, candidateLimit)
	if err != nil {
		o.log.Debug("enrich: candidate search failed", "idea_id", idea.ID, "error", err)
		found = nil
	}
	if out := usable(found, idea.ID); len(out) > 0 {
		return out, nil
	}

	page, err := o.store.ListIdeas(ctx, domain.ListOptions{Limit: candidateLimit})
	if err != nil {
		return nil, fmt.Errorf("recent candidates: %w", err)
	}
	return usable(page.Ideas, idea.ID), nil
}

func usable(ideas []domain.Idea, self string) []domain.Idea {
	out := make([]domain.Idea, 0, len(ideas))
	for _, i := range ideas {
		if i.ID == self || i.Type == domain.TypeTag {
			continue
		}
		out = append(out, i)
	}
	return out
}

// searchQuery turns free text into an OR of quoted terms so punctuation in
// titles cannot break the match expression.
func searchQuery(text string) string {
	words := wordPattern.FindAllString(truncate(strings.TrimSpace(text), searchQueryLen), -1)
	words = words[:min(len(words), maxSearchTerms)]
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}

func (o *Orchestrator) link(ctx context.Context, from string, targets []string, label string) StepResult {
	res := StepResult{Outcome: OutcomeApplied, Linked: []string{}}
	for _, to := range targets {
		c := &domain.Connection{
			ID:        uuid.NewString(),
			FromID:    from,
			ToID:      to,
			Label:     label,
			CreatedAt: o.store.Now(),
		}
		inserted, err := o.store.LinkIdeas(ctx, c)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Err = err
			continue
		}
		if inserted {
			res.Linked = append(res.Linked, to)
		}
	}
	return res
}

func filterIDs(ids []string, valid map[string]bool) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if valid[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (o *Orchestrator) finish(span trace.Span, res Result, elapsed time.Duration) {
	status := res.Status()
	span.SetAttributes(
		attribute.String("enrich.status", string(status)),
		attribute.Int("enrich.tags_linked", len(res.Tags.Linked)),
		attribute.Int("enrich.related_linked", len(res.Related.Linked)),
	)
	kv := []any{
		"idea_id", res.IdeaID,
		"status", status,
		"tags", res.Tags.String(),
		"related", res.Related.String(),
		"duration_ms", elapsed.Milliseconds(),
	}
	if status == StatusSuccess {
		span.SetStatus(codes.Ok, "")
		o.log.Debug("enrich: done", kv...)
	} else {
		span.SetStatus(codes.Error, string(status))
		o.log.Warn("enrich: incomplete", kv...)
	}
	span.End()
}
