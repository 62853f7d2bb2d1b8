package enrich

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pbaille/sfl/internal/domain"
	"github.com/pbaille/sfl/internal/llm"
)

const (
	tagSystemPrompt = "You are a tagging assistant. Given an idea and a list of available tags, " +
		"return a JSON array of tag IDs that best describe the idea. Select only the tags that clearly apply; " +
		"you do not need to be exhaustive. Return only the JSON array, nothing else. If no tags fit, return []."

	relatedSystemPrompt = "You are a linking assistant for a personal knowledge base. Given a new idea and a list " +
		"of candidate ideas, return a JSON array of the IDs of candidates that are genuinely related to it, " +
		"not merely sharing a word or a topic in passing. Return only the JSON array, nothing else. " +
		"If none are related, return []."

	// skippedContentKey holds full article text; it is left out of prompts.
	skippedContentKey = "text"
	summarySnippetLen = 120
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// describe renders an idea for a prompt: its metadata followed by the
// scalar fields of its content in key order.
func describe(idea *domain.Idea, content domain.Content) string {
	var parts []string
	if t := domain.Deref(idea.Title); t != "" {
		parts = append(parts, "Title: "+t)
	}
	if s := domain.Deref(idea.Summary); s != "" {
		parts = append(parts, "Summary: "+s)
	}
	if u := domain.Deref(idea.URL); u != "" {
		parts = append(parts, "URL: "+u)
	}

	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == skippedContentKey {
			continue
		}
		switch v := content[k].(type) {
		case string:
			if v != "" {
				parts = append(parts, k+": "+v)
			}
		case float64, int, int64, json.Number:
			parts = append(parts, fmt.Sprintf("%s: %v", k, v))
		}
	}

	if len(parts) == 0 {
		return "(no description)"
	}
	return strings.Join(parts, "\n")
}

func tagMessages(description string, tags []domain.Tag) []llm.Message {
	lines := make([]string, 0, len(tags))
	for _, t := range tags {
		lines = append(lines, t.ID+": "+domain.Deref(t.Title))
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: tagSystemPrompt},
		{Role: llm.RoleUser, Content: "Idea:\n" + description + "\n\nAvailable tags:\n" + strings.Join(lines, "\n")},
	}
}

func relatedMessages(description string, candidates []domain.Idea) []llm.Message {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		line := c.ID + ": " + domain.Deref(c.Title)
		if s := domain.Deref(c.Summary); s != "" {
			line += " — " + truncate(s, summarySnippetLen)
		}
		lines = append(lines, line)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: relatedSystemPrompt},
		{Role: llm.RoleUser, Content: "New idea:\n" + description + "\n\nCandidates:\n" + strings.Join(lines, "\n")},
	}
}

// parseIDs reads a JSON array of string ids out of a model response. The
// whole text is tried first, then the first bracketed span. Anything else
// yields nil. Non-string elements are dropped.
func parseIDs(text string) []string {
	text = strings.TrimSpace(text)
	if ids, ok := decodeIDs(text); ok {
		return ids
	}
	if m := arrayPattern.FindString(text); m != "" {
		if ids, ok := decodeIDs(m); ok {
			return ids
		}
	}
	return nil
}

func decodeIDs(s string) ([]string, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, true
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
