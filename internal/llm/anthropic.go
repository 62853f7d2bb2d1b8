package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicAPI     = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	defaultClaude    = "claude-sonnet-4-20250514"
)

// Anthropic calls the Messages API.
type Anthropic struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	http      *http.Client
}

func NewAnthropic(opts Options) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key not set")
	}
	a := &Anthropic{
		apiKey:    opts.APIKey,
		model:     opts.Model,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		maxTokens: opts.MaxTokens,
		http:      opts.HTTPClient,
	}
	if a.model == "" {
		a.model = defaultClaude
	}
	if a.baseURL == "" {
		a.baseURL = anthropicAPI
	}
	if a.maxTokens <= 0 {
		a.maxTokens = 1024
	}
	if a.http == nil {
		a.http = http.DefaultClient
	}
	return a, nil
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation. System messages are lifted into the
// top-level system field; the API rejects them inside messages.
func (a *Anthropic) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := anthropicRequest{Model: a.model, MaxTokens: a.maxTokens}
	var system []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		reqBody.Messages = append(reqBody.Messages, m)
	}
	reqBody.System = strings.Join(system, "\n\n")

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	var sb strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return sb.String(), nil
}
