// Package cohere implements the Cohere chat-completion adapter.
//
// Grounded in the teacher's internal/providers/mistral package's raw-HTTP
// construction idiom, adapted to Cohere's distinct request shape: the
// system prompt is sent twice, once as a SYSTEM chat_history entry and once
// as a fixed preamble. The chat_history entry falls back to the literal
// string "test" when the system prompt is empty — preserved here exactly
// as observed upstream rather than treated as a bug (see DESIGN.md).
package cohere

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
	defaultBaseURL  = "https://api.cohere.ai/v1"
	providerName    = "cohere"
	fixedPreamble   = "You are a helpful assistant."
	emptySystemFill = "test"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Message     string        `json:"message"`
	ChatHistory []chatHistory `json:"chat_history"`
	Preamble    string        `json:"preamble"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatHistory struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type chatResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Meta  meta   `json:"meta"`
}

type meta struct {
	Tokens      tokens      `json:"tokens"`
	BilledUnits billedUnits `json:"billed_units"`
}

type tokens struct {
	InputTokens int `json:"input_tokens"`
}

type billedUnits struct {
	OutputTokens int `json:"output_tokens"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}

// Adapter is the Cohere Provider Adapter. Implements providers.Adapter.
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
	if a.cfg.APIKey == "" {
		return providers.CanonicalResponse{}, providers.NewConfigurationError("cohere: no API key configured")
	}

	systemPrompt := a.systemSrc.SystemPrompt()
	historyPrompt := systemPrompt
	if historyPrompt == "" {
		historyPrompt = emptySystemFill
	}

	body, err := json.Marshal(chatRequest{
		Model:       a.cfg.Model,
		Message:     req.Prompt,
		ChatHistory: []chatHistory{{Role: "SYSTEM", Message: historyPrompt}},
		Preamble:    fixedPreamble,
		Temperature: req.TemperatureOrDefault(),
		MaxTokens:   req.MaxTokensOrDefault(),
	})
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("cohere: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewTransportError("cohere: build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return providers.CanonicalResponse{}, providers.NewCancelledError(ctx.Err())
		}
		return providers.CanonicalResponse{}, providers.NewTransportError("cohere: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.CanonicalResponse{}, parseError(resp)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("cohere: decode response", err)
	}

	filtered, err := a.guardrails.Filter(cr.Text)
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewGuardrailError(err.Error())
	}

	model := cr.Model
	if model == "" {
		model = a.cfg.Model
	}

	return providers.CanonicalResponse{
		Text:         filtered,
		InputTokens:  cr.Meta.Tokens.InputTokens,
		OutputTokens: cr.Meta.BilledUnits.OutputTokens,
		Model:        model,
		Provider:     providerName,
	}, nil
}

func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var body apiErrorBody
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		return providers.NewTransportError(fmt.Sprintf("cohere: %s", body.Message), nil)
	}
	return providers.NewTransportError(fmt.Sprintf("cohere: unexpected status %d", resp.StatusCode), nil)
}
