package openai

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

type rejectingFilter struct{}

func (rejectingFilter) Filter(string) (string, error) {
	return "", &providers.Error{Kind: providers.KindGuardrail, Message: "blocked"}
}

var _ providers.Adapter = (*Adapter)(nil)

func TestCallSuccessExtractsTextAndTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected bearer auth header, got %q", got)
		}
		w.Write([]byte(`{"model":"gpt-4","choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "gpt-4"}, fixedSystemPrompt("be nice"), passthroughFilter{}, WithBaseURL(ts.URL))

	resp, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello" || resp.InputTokens != 3 || resp.OutputTokens != 1 || resp.Provider != "openai" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCallMissingAPIKeyIsConfigurationError(t *testing.T) {
	a := New(providers.Config{Endpoint: "http://unused", Model: "gpt-4"}, fixedSystemPrompt(""), passthroughFilter{})

	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	var perr *providers.Error
	if err == nil {
		t.Fatal("expected error")
	}
	if pe, ok := err.(*providers.Error); ok {
		perr = pe
	} else {
		t.Fatalf("expected *providers.Error, got %T", err)
	}
	if perr.Kind != providers.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", perr.Kind)
	}
	if perr.TriggersFailover() {
		t.Fatal("configuration errors must not trigger failover")
	}
}

func TestCallNon2xxIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "gpt-4"}, fixedSystemPrompt(""), passthroughFilter{}, WithBaseURL(ts.URL))

	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	perr, ok := err.(*providers.Error)
	if !ok || perr.Kind != providers.KindTransport || !perr.TriggersFailover() {
		t.Fatalf("expected transport error that triggers failover, got %v", err)
	}
}

func TestCallGuardrailRejectionSurfacesGuardrailError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"gpt-4","choices":[{"message":{"content":"bad"}}],"usage":{}}`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "gpt-4"}, fixedSystemPrompt(""), rejectingFilter{}, WithBaseURL(ts.URL))

	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	perr, ok := err.(*providers.Error)
	if !ok || perr.Kind != providers.KindGuardrail || !perr.TriggersFailover() {
		t.Fatalf("expected guardrail error that triggers failover, got %v", err)
	}
}

func TestCallMalformedBodyIsDecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	a := New(providers.Config{Endpoint: ts.URL, APIKey: "secret", Model: "gpt-4"}, fixedSystemPrompt(""), passthroughFilter{}, WithBaseURL(ts.URL))

	_, err := a.Call(context.Background(), providers.CanonicalRequest{Prompt: "hi"})
	perr, ok := err.(*providers.Error)
	if !ok || perr.Kind != providers.KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}
