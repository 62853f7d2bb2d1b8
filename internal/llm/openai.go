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
	openAIAPI     = "https://api.openai.com/v1"
	defaultOpenAI = "gpt-4o-mini"
)

// OpenAI calls an OpenAI-compatible chat completions endpoint. BaseURL may
// point at any server speaking the same protocol.
type OpenAI struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	http      *http.Client
}

func NewOpenAI(opts Options) (*OpenAI, error) {
	o := &OpenAI{
		apiKey:    opts.APIKey,
		model:     opts.Model,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		maxTokens: opts.MaxTokens,
		http:      opts.HTTPClient,
	}
	if o.baseURL == "" {
		o.baseURL = openAIAPI
	}
	if o.apiKey == "" && o.baseURL == openAIAPI {
		return nil, fmt.Errorf("openai api key not set")
	}
	if o.model == "" {
		o.model = defaultOpenAI
	}
	if o.maxTokens <= 0 {
		o.maxTokens = 1024
	}
	if o.http == nil {
		o.http = http.DefaultClient
	}
	return o, nil
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	jsonBody, err := json.Marshal(chatRequest{Model: o.model, Messages: messages, MaxTokens: o.maxTokens})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("api error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response")
	}
	return out.Choices[0].Message.Content, nil
}
