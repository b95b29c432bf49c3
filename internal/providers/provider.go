// Package providers defines the canonical request/response contract shared
// by all six chat-completion adapters (OpenAI, Anthropic, Gemini, Ollama,
// Mistral, Cohere) and the tagged error type the dispatcher uses to decide
// whether a failure should trigger failover.
package providers

import (
	"context"
	"time"
)

// CanonicalRequest is the provider-agnostic request accepted by every adapter.
type CanonicalRequest struct {
	Prompt      string
	Temperature *float64
	MaxTokens   *int
}

// TemperatureOrDefault returns the configured temperature, or 0.7 if unset.
func (r CanonicalRequest) TemperatureOrDefault() float64 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return 0.7
}

// MaxTokensOrDefault returns the configured max tokens, or 1000 if unset.
func (r CanonicalRequest) MaxTokensOrDefault() int {
	if r.MaxTokens != nil {
		return *r.MaxTokens
	}
	return 1000
}

// CanonicalResponse is the provider-agnostic response returned by every
// adapter and ultimately served to the caller (or stored in the cache).
type CanonicalResponse struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
}

// Config is the static, read-only-after-init configuration for one provider.
// A provider is enabled iff Endpoint is non-empty.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Enabled reports whether this provider has a usable configuration.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Kind tags the class of failure an adapter call produced. The dispatcher's
// failover decision is a pure function of Kind, never a string or status code.
type Kind int

const (
	// KindConfiguration — provider not enabled, or API key missing. Not retried.
	KindConfiguration Kind = iota
	// KindTransport — connection failure, timeout, or non-2xx status. Triggers failover.
	KindTransport
	// KindDecode — malformed or schema-mismatched response body. Triggers failover.
	KindDecode
	// KindGuardrail — response text rejected by the guardrails filter. Triggers failover.
	KindGuardrail
	// KindCancelled — caller's context was cancelled. Surfaced, never retried.
	KindCancelled
	// KindTimeout — the per-provider HTTP deadline elapsed. Triggers failover.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindTransport:
		return "transport_error"
	case KindDecode:
		return "decode_error"
	case KindGuardrail:
		return "guardrail_violation"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the tagged error variant returned by every adapter. The Kind
// field, not the message text, drives the dispatcher's retry/failover logic.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// TriggersFailover reports whether this error's Kind should advance the
// dispatcher to the next candidate provider.
func (e *Error) TriggersFailover() bool {
	switch e.Kind {
	case KindTransport, KindDecode, KindGuardrail, KindTimeout:
		return true
	default:
		return false
	}
}

func NewConfigurationError(message string) *Error { return &Error{Kind: KindConfiguration, Message: message} }
func NewTransportError(message string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: message, Cause: cause}
}
func NewDecodeError(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Cause: cause}
}
func NewGuardrailError(message string) *Error { return &Error{Kind: KindGuardrail, Message: message} }
func NewCancelledError(cause error) *Error {
	return &Error{Kind: KindCancelled, Message: "request cancelled", Cause: cause}
}
func NewTimeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "provider request timed out", Cause: cause}
}

// Adapter is implemented by every provider package (openai, anthropic,
// gemini, ollama, mistral, cohere). Name returns the canonical provider id
// used as the dispatch key, the cache-key prefix, and in stats breakdowns.
type Adapter interface {
	Name() string
	Call(ctx context.Context, req CanonicalRequest) (CanonicalResponse, error)
}

// GuardrailFilter is the narrow capability every adapter needs from the
// guardrails package, applied to the raw text extracted from the provider
// response before it becomes a CanonicalResponse.
type GuardrailFilter interface {
	Filter(text string) (string, error)
}

// SystemPromptSource is the narrow capability every adapter needs from the
// admin state: the current global system prompt, read once per call.
type SystemPromptSource interface {
	SystemPrompt() string
}

// HTTPTimeout is the per-provider outbound HTTP deadline (implementation
// chosen, matching the gateway's own listener timeouts).
const HTTPTimeout = 60 * time.Second
