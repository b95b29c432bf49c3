// Package ollama implements the Ollama chat-completion adapter.
//
// Grounded in rakunlabs-at's internal/service/llm/ollama package: POST
// {model,messages,stream:false} to /api/chat and read message.content off
// the single synchronous response (no streaming, no tool calls here — out
// of scope for this gateway's canonical contract).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wx-yz/ai-gateway/internal/providers"
)

const (
	defaultBaseURL = "http://localhost:11434"
	providerName   = "ollama"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// Adapter is the Ollama Provider Adapter. Implements providers.Adapter.
//
// Ollama's /api/chat takes neither temperature nor max-token caps in its
// top-level request shape (those live under an "options" object this
// gateway does not populate); the canonical request's temperature/maxTokens
// are accepted for interface uniformity but have no effect here.
type Adapter struct {
	cfg        providers.Config
	baseURL    string
	client     *http.Client
	systemSrc  providers.SystemPromptSource
	guardrails providers.GuardrailFilter
}

type Option func(*Adapter)

func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

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
	if a.cfg.Endpoint == "" {
		return providers.CanonicalResponse{}, providers.NewConfigurationError("ollama: no endpoint configured")
	}
	if a.cfg.APIKey == "" {
		return providers.CanonicalResponse{}, providers.NewConfigurationError("ollama: no API key configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.systemSrc.SystemPrompt()},
			{Role: "user", Content: req.Prompt},
		},
		Stream: false,
	})
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("ollama: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewTransportError("ollama: build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return providers.CanonicalResponse{}, providers.NewCancelledError(ctx.Err())
		}
		return providers.CanonicalResponse{}, providers.NewTransportError("ollama: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.CanonicalResponse{}, providers.NewTransportError(fmt.Sprintf("ollama: unexpected status %d", resp.StatusCode), nil)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("ollama: decode response", err)
	}

	filtered, err := a.guardrails.Filter(cr.Message.Content)
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewGuardrailError(err.Error())
	}

	return providers.CanonicalResponse{
		Text:         filtered,
		InputTokens:  cr.PromptEvalCount,
		OutputTokens: cr.EvalCount,
		Model:        cr.Model,
		Provider:     providerName,
	}, nil
}
