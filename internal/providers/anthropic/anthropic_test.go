package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wx-yz/ai-gateway/internal/providers"
)

type fixedSystemPrompt string

func (f fixedSystemPrompt) SystemPrompt() string { return string(f) }

type passthroughFilter struct{}

func (passthroughFilter) Filter(text string) (string, error) { return text, nil }

var _ providers.Adapter = (*Adapter)(nil)

func TestCallSendsAnthropicAuthHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Fatalf("expected Authorization: Bearer header")
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Fatalf("expected anthropic-version header")
		}
		w.Write([]byte(`{"model":"claude-3","content":[{"text":"hello"}],"usage":{"input_tokens":5,"output_tokens":2}}`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "claude-3"}, fixedSystemPrompt("be nice"), passthroughFilter{}, WithBaseURL(ts.URL))

	resp, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello" || resp.InputTokens != 5 || resp.OutputTokens != 2 || resp.Provider != "anthropic" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCallMissingAPIKeyIsConfigurationError(t *testing.T) {
	a := New(providers.Config{Endpoint: "http://unused", Model: "claude-3"}, fixedSystemPrompt(""), passthroughFilter{})
	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	perr, ok := err.(*providers.Error)
	if !ok || perr.Kind != providers.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCallNon2xxTriggersFailover(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "claude-3"}, fixedSystemPrompt(""), passthroughFilter{}, WithBaseURL(ts.URL))
	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	perr, ok := err.(*providers.Error)
	if !ok || !perr.TriggersFailover() {
		t.Fatalf("expected a failover-triggering error, got %v", err)
	}
}
