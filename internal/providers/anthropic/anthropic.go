// Package anthropic implements the Anthropic messages-API chat-completion
// adapter.
//
// Grounded in the teacher's internal/providers/mistral package's raw-HTTP
// construction idiom, adapted to Anthropic's distinct response envelope
// (content[0].text) and extra anthropic-version header; authentication
// still uses the gateway's uniform Authorization: Bearer scheme.
package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com/v1"
	providerName     = "anthropic"
	anthropicVersion = "2023-06-01"
)

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Model   string    `json:"model"`
	Content []content `json:"content"`
	Usage   usage     `json:"usage"`
}

type content struct {
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Adapter is the Anthropic Provider Adapter. Implements providers.Adapter.
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
		return providers.CanonicalResponse{}, providers.NewConfigurationError("anthropic: no API key configured")
	}

	body, err := json.Marshal(messagesRequest{
		Model:       a.cfg.Model,
		System:      a.systemSrc.SystemPrompt(),
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		Temperature: req.TemperatureOrDefault(),
		MaxTokens:   req.MaxTokensOrDefault(),
	})
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("anthropic: marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewTransportError("anthropic: build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return providers.CanonicalResponse{}, providers.NewCancelledError(ctx.Err())
		}
		return providers.CanonicalResponse{}, providers.NewTransportError("anthropic: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providers.CanonicalResponse{}, parseError(resp)
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return providers.CanonicalResponse{}, providers.NewDecodeError("anthropic: decode response", err)
	}

	text := ""
	if len(mr.Content) > 0 {
		text = mr.Content[0].Text
	}

	filtered, err := a.guardrails.Filter(text)
	if err != nil {
		return providers.CanonicalResponse{}, providers.NewGuardrailError(err.Error())
	}

	return providers.CanonicalResponse{
		Text:         filtered,
		InputTokens:  mr.Usage.InputTokens,
		OutputTokens: mr.Usage.OutputTokens,
		Model:        mr.Model,
		Provider:     providerName,
	}, nil
}

func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var body apiErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return providers.NewTransportError(fmt.Sprintf("anthropic: %s", body.Error.Message), nil)
	}
	return providers.NewTransportError(fmt.Sprintf("anthropic: unexpected status %d", resp.StatusCode), nil)
}
