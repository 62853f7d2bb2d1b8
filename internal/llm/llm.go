// Package llm is the language model collaborator: a list of role-tagged
// messages in, one text completion out.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Roles accepted in a Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client returns a single completion for a conversation. No streaming and no
// tool calling; callers parse whatever they need out of the returned text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

func (f ClientFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Options configures a provider backend.
type Options struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// New builds the backend named by opts.Provider. Provider "none" (or empty)
// returns a nil Client, which disables enrichment.
func New(opts Options) (Client, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	switch opts.Provider {
	case "", "none":
		return nil, nil
	case "anthropic":
		return NewAnthropic(opts)
	case "openai":
		return NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Body)
}
