// Package admin holds the process-wide mutable configuration the dispatcher
// and provider adapters read on every request: system prompt, guardrails
// policy, active rate-limit plan, logging sink configuration, and the
// verbose-logging flag (C8).
//
// Grounded in the teacher's atomic-swap collaborator idiom used for hot-
// reloadable config: every mutable field is stored behind a pointer swapped
// with atomic.Pointer[T] (or atomic.Bool for the single bool), so a reader
// observes a consistent snapshot per request without taking a lock.
package admin

import (
	"sync/atomic"

	"github.com/wx-yz/ai-gateway/internal/guardrails"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
)

// State is the Admin State Surface (C8).
type State struct {
	systemPrompt atomic.Pointer[string]
	guardrails   atomic.Pointer[guardrails.Config]
	plan         atomic.Pointer[ratelimit.Plan]
	logging      atomic.Pointer[logger.SinkConfig]
	verbose      atomic.Bool
}

// New creates a State seeded with the given startup defaults.
func New(systemPrompt string, g guardrails.Config, plan *ratelimit.Plan, logging logger.SinkConfig, verbose bool) *State {
	s := &State{}
	s.systemPrompt.Store(&systemPrompt)
	s.guardrails.Store(&g)
	s.plan.Store(plan)
	s.logging.Store(&logging)
	s.verbose.Store(verbose)
	return s
}

// SystemPrompt returns the current global system prompt. Implements
// providers.SystemPromptSource.
func (s *State) SystemPrompt() string {
	if p := s.systemPrompt.Load(); p != nil {
		return *p
	}
	return ""
}

// SetSystemPrompt atomically replaces the global system prompt.
func (s *State) SetSystemPrompt(prompt string) { s.systemPrompt.Store(&prompt) }

// Guardrails returns the currently active guardrails policy. Implements the
// narrow capability every adapter needs to call guardrails.Filter.
func (s *State) Guardrails() guardrails.Config {
	if g := s.guardrails.Load(); g != nil {
		return *g
	}
	return guardrails.Config{}
}

// Filter applies the current guardrails policy to text. Implements
// providers.GuardrailFilter.
func (s *State) Filter(text string) (string, error) {
	return guardrails.Filter(s.Guardrails(), text)
}

// SetGuardrails atomically replaces the active guardrails policy.
func (s *State) SetGuardrails(cfg guardrails.Config) { s.guardrails.Store(&cfg) }

// Plan returns the currently active rate-limit plan, or nil if disabled.
func (s *State) Plan() *ratelimit.Plan { return s.plan.Load() }

// SetPlan atomically replaces the active rate-limit plan. Passing nil
// disables rate limiting.
func (s *State) SetPlan(plan *ratelimit.Plan) { s.plan.Store(plan) }

// Logging returns the currently active sink configuration.
func (s *State) Logging() logger.SinkConfig {
	if l := s.logging.Load(); l != nil {
		return *l
	}
	return logger.SinkConfig{}
}

// SetLogging atomically replaces the active sink configuration.
func (s *State) SetLogging(cfg logger.SinkConfig) { s.logging.Store(&cfg) }

// Verbose reports whether DEBUG-level logging is currently enabled.
func (s *State) Verbose() bool { return s.verbose.Load() }

// SetVerbose toggles DEBUG-level logging.
func (s *State) SetVerbose(v bool) { s.verbose.Store(v) }
