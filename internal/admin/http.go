package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wx-yz/ai-gateway/internal/cache"
	"github.com/wx-yz/ai-gateway/internal/guardrails"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/metrics"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
	"github.com/wx-yz/ai-gateway/internal/stats"
)

// Server is the minimal control-plane HTTP mux (§6a): an unauthenticated,
// encoding/json-over-net/http surface exposing every State mutation named in
// §4.8, plus read access to the cache and stats aggregator so an operator can
// drive the full admin contract without a separate client.
type Server struct {
	state   *State
	limiter *ratelimit.Limiter
	cache   *cache.PromptCache
	stats   *stats.Aggregator
	log     *logger.Logger
	metrics *metrics.Registry
}

// NewServer wires the control-plane mux to the live collaborators it mutates.
func NewServer(state *State, limiter *ratelimit.Limiter, promptCache *cache.PromptCache, aggregator *stats.Aggregator, log *logger.Logger, metricsRegistry *metrics.Registry) *Server {
	return &Server{state: state, limiter: limiter, cache: promptCache, stats: aggregator, log: log, metrics: metricsRegistry}
}

// Handler builds the admin mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/system-prompt", s.handleSystemPrompt)
	mux.HandleFunc("/admin/guardrails", s.handleGuardrails)
	mux.HandleFunc("/admin/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/admin/cache/snapshot", s.handleCacheSnapshot)
	mux.HandleFunc("/admin/rate-plan", s.handleRatePlan)
	mux.HandleFunc("/admin/logging", s.handleLogging)
	mux.HandleFunc("/admin/verbose", s.handleVerbose)
	mux.HandleFunc("/admin/stats", s.handleStats)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type systemPromptBody struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleSystemPrompt(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, systemPromptBody{Prompt: s.state.SystemPrompt()})
	case http.MethodPut:
		var body systemPromptBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s.state.SetSystemPrompt(body.Prompt)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGuardrails(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.state.Guardrails())
	case http.MethodPut:
		var cfg guardrails.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s.state.SetGuardrails(cfg)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCacheSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Snapshot())
}

func (s *Server) handleRatePlan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		plan := s.state.Plan()
		if plan == nil {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodPut:
		var plan ratelimit.Plan
		if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s.state.SetPlan(&plan)
		s.limiter.SetPlan(&plan)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		s.state.SetPlan(nil)
		s.limiter.SetPlan(nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogging(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.state.Logging())
	case http.MethodPut:
		var cfg logger.SinkConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s.state.SetLogging(cfg)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type verboseBody struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleVerbose(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, verboseBody{Enabled: s.state.Verbose()})
	case http.MethodPut:
		var body verboseBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		s.state.SetVerbose(body.Enabled)
		if s.log != nil {
			s.log.SetVerbose(body.Enabled)
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot(s.cache.Len()))
}

// ListenAndServe starts the control-plane listener on addr. Grounded in the
// teacher's fasthttp listener timeouts, mirrored here on the stdlib server
// since the admin surface is deliberately a separate, simpler net/http mux.
func ListenAndServe(addr string, s *Server) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return srv.ListenAndServe()
}
