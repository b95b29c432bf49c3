// Package openai implements the OpenAI chat-completion adapter.
//
// Grounded in the teacher's internal/providers/mistral package (raw
// net/http + encoding/json, options-functional constructor, bound client
// reused across calls) since OpenAI's own wire shape is what that package's
// request/response types were themselves modeled on.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wx-yz/ai-gateway/internal/providers"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	providerName   = "openai"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message chatMessage `json:"message"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Adapter is the OpenAI Provider Adapter. Implements providers.Adapter.
type Adapter struct {
	cfg        providers.Config
	baseURL    string
	client     *http.Client
	systemSrc  providers.SystemPromptSource
	guardrails providers.GuardrailFilter
}

// Option configures an Adapter at construction time.
type Option func(*Adapter)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// New constructs the OpenAI adapter, mirroring the teacher's options-
// functional provider constructor idiom uniformly across all six adapters.
func New(cfg providers.Config, systemSrc providers.SystemPromptSource, guardrails providers.GuardrailFilter, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:        cfg,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: providers.HTTPTimeout},
		systemSrc:  systemSrc,
		guardrails: guardrails,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) Name() string { return providerName }

func (a *Adapter) Call(ctx context.Context, req providers.CanonicalRequest) (providers.CanonicalResponse, error) {
	if a.cfg.APIKey == "" {
		return providers.CanonicalResponse{}, providers.NewConfigurationError("openai: no API key configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.systemSrc.SystemPrompt()},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.TemperatureOrDefault(),
		MaxTokens:   req.MaxTokensOrDefault(),
	})
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("openai: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewTransportError("openai: build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return providers.CanonicalResponse{}, providers.NewCancelledError(ctx.Err())
		}
		return providers.CanonicalResponse{}, providers.NewTransportError("openai: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.CanonicalResponse{}, parseError(resp)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("openai: decode response", err)
	}

	text := ""
	if len(cr.Choices) > 0 {
		text = cr.Choices[0].Message.Content
	}

	filtered, err := a.guardrails.Filter(text)
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewGuardrailError(err.Error())
	}

	return providers.CanonicalResponse{
		Text:         filtered,
		InputTokens:  cr.Usage.PromptTokens,
		OutputTokens: cr.Usage.CompletionTokens,
		Model:        cr.Model,
		Provider:     providerName,
	}, nil
}

func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var body apiErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return providers.NewTransportError(fmt.Sprintf("openai: %s", body.Error.Message), nil)
	}
	return providers.NewTransportError(fmt.Sprintf("openai: unexpected status %d", resp.StatusCode), nil)
}
