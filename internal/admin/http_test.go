package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wx-yz/ai-gateway/internal/cache"
	"github.com/wx-yz/ai-gateway/internal/guardrails"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/providers"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
	"github.com/wx-yz/ai-gateway/internal/stats"
)

func newTestServer() *Server {
	state := New("hi", guardrails.Config{MaxLength: 1000}, nil, logger.SinkConfig{}, false)
	limiter := ratelimit.New()
	promptCache := cache.New(3600)
	agg := stats.New()
	return NewServer(state, limiter, promptCache, agg, nil, nil)
}

func TestSystemPromptPutThenGet(t *testing.T) {
	s := newTestServer()
	handler := s.Handler()

	body, _ := json.Marshal(systemPromptBody{Prompt: "new prompt"})
	req := httptest.NewRequest(http.MethodPut, "/admin/system-prompt", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/system-prompt", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var got systemPromptBody
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Prompt != "new prompt" {
		t.Fatalf("expected updated prompt, got %q", got.Prompt)
	}
}

func TestRatePlanPutSyncsLimiter(t *testing.T) {
	s := newTestServer()
	handler := s.Handler()

	plan := ratelimit.Plan{Name: "burst", RequestsPerWindow: 1, WindowSeconds: 60}
	body, _ := json.Marshal(plan)
	req := httptest.NewRequest(http.MethodPut, "/admin/rate-plan", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	d := s.limiter.Admit("1.2.3.4", 1000)
	if !d.Allowed {
		t.Fatalf("expected first request admitted")
	}
	d = s.limiter.Admit("1.2.3.4", 1000)
	if d.Allowed {
		t.Fatalf("expected second request denied under a 1-request plan")
	}
}

func TestRatePlanDeleteDisables(t *testing.T) {
	s := newTestServer()
	handler := s.Handler()

	s.state.SetPlan(&ratelimit.Plan{Name: "x", RequestsPerWindow: 1, WindowSeconds: 60})
	s.limiter.SetPlan(&ratelimit.Plan{Name: "x", RequestsPerWindow: 1, WindowSeconds: 60})

	req := httptest.NewRequest(http.MethodDelete, "/admin/rate-plan", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if s.limiter.Plan() != nil {
		t.Fatalf("expected limiter plan cleared")
	}
	d := s.limiter.Admit("5.5.5.5", 1000)
	if !d.Allowed {
		t.Fatalf("expected admission with no active plan")
	}
}

func TestCacheClearAndSnapshot(t *testing.T) {
	s := newTestServer()
	handler := s.Handler()

	s.cache.Store("openai:hi", providers.CanonicalResponse{Text: "hi there", Provider: "openai"}, 1000)

	req := httptest.NewRequest(http.MethodGet, "/admin/cache/snapshot", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var snap map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(snap))
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if s.cache.Len() != 0 {
		t.Fatalf("expected cache cleared")
	}
}

func TestStatsEndpointReturnsSnapshot(t *testing.T) {
	s := newTestServer()
	s.stats.RecordSuccess("openai", 3, 1)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var snap stats.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.TotalRequests != 1 || snap.SuccessfulRequests != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestVerbosePutTogglesLoggerToo(t *testing.T) {
	state := New("hi", guardrails.Config{MaxLength: 1000}, nil, logger.SinkConfig{}, false)
	limiter := ratelimit.New()
	promptCache := cache.New(3600)
	agg := stats.New()
	log := logger.New(nil)
	defer log.Close()
	s := NewServer(state, limiter, promptCache, agg, log, nil)

	body, _ := json.Marshal(verboseBody{Enabled: true})
	req := httptest.NewRequest(http.MethodPut, "/admin/verbose", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !log.Verbose() {
		t.Fatalf("expected logger verbose flag to follow admin state")
	}
}
