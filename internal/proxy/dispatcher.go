// Package proxy implements the Dispatcher/Failover Controller (C7) and the
// HTTP surface around it.
//
// Grounded in the teacher's internal/proxy package: same fasthttp-based
// Gateway/router/middleware shape, generalized from the teacher's
// model-alias + circuit-breaker routing to the spec'd linear failover state
// machine (RECEIVED → RATE_CHECK → CACHE_LOOKUP → TRY(primary, candidates…)
// → BOOKKEEPING → RESPOND) driven purely by providers.Error.Kind.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/wx-yz/ai-gateway/internal/admin"
	"github.com/wx-yz/ai-gateway/internal/cache"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/metrics"
	"github.com/wx-yz/ai-gateway/internal/providers"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
	"github.com/wx-yz/ai-gateway/internal/stats"
	"github.com/wx-yz/ai-gateway/pkg/apierr"
)

// Gateway holds every collaborator the Dispatcher needs and implements the
// fasthttp handlers registered by router.go.
type Gateway struct {
	registry    *providers.Registry
	cache       *cache.PromptCache
	limiter     *ratelimit.Limiter
	stats       *stats.Aggregator
	log         *logger.Logger
	admin       *admin.State
	metrics     *metrics.Registry
	corsOrigins []string
}

// NewGateway wires the Dispatcher to its collaborators.
func NewGateway(registry *providers.Registry, promptCache *cache.PromptCache, limiter *ratelimit.Limiter, aggregator *stats.Aggregator, log *logger.Logger, adminState *admin.State, corsOrigins []string) *Gateway {
	return &Gateway{
		registry:    registry,
		cache:       promptCache,
		limiter:     limiter,
		stats:       aggregator,
		log:         log,
		admin:       adminState,
		corsOrigins: corsOrigins,
	}
}

// SetMetrics attaches the Prometheus observer. Safe to leave unset — every
// call site nil-checks before recording.
func (g *Gateway) SetMetrics(m *metrics.Registry) { g.metrics = m }

type chatRequestBody struct {
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// dispatchChat implements the POST /chat handler (§6).
func (g *Gateway) dispatchChat(ctx *fasthttp.RequestCtx) {
	requestID, _ := ctx.UserValue("request_id").(string)
	primary := string(ctx.Request.Header.Peek("x-llm-provider"))
	clientIP := string(ctx.Request.Header.Peek("X-Forwarded-For"))

	var body chatRequestBody
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		apierr.Write(ctx, fasthttp.StatusBadRequest, "invalid request body", "invalid_request_error", "malformed_json")
		return
	}
	if primary == "" {
		apierr.Write(ctx, fasthttp.StatusBadRequest, "missing x-llm-provider header", "invalid_request_error", "missing_provider")
		return
	}

	now := time.Now().Unix()

	decision := g.limiter.Admit(clientIP, now)
	if !decision.Allowed {
		apierr.WriteRateLimit(ctx, decision.Limit, decision.Remaining, decision.Reset)
		return
	}

	req := providers.CanonicalRequest{
		Prompt:      body.Prompt,
		Temperature: body.Temperature,
		MaxTokens:   body.MaxTokens,
	}
	key := cache.Key(primary, body.Prompt)

	if cached, result := g.cache.Lookup(key, now); result == cache.Hit {
		g.stats.RecordCacheHit(cached.Provider, cached.InputTokens, cached.OutputTokens)
		if g.metrics != nil {
			g.metrics.ObserveCacheHit(cached.Provider, cached.InputTokens, cached.OutputTokens)
		}
		g.log.Info("dispatch", "cache hit", map[string]any{"requestId": requestID, "provider": cached.Provider})
		g.respondSuccess(ctx, cached, decision)
		return
	}

	g.stats.RecordCacheMiss()
	if g.metrics != nil {
		g.metrics.ObserveCacheMiss()
	}

	resp, err := g.tryProviders(ctx, requestID, primary, req)
	if err != nil {
		perr, _ := err.(*providers.Error)
		if perr != nil && perr.Kind == providers.KindCancelled {
			g.log.Warn("dispatch", "request cancelled", map[string]any{"requestId": requestID})
			return
		}

		kind := "unknown"
		if perr != nil {
			kind = perr.Kind.String()
		}
		g.stats.RecordFailure(primary, kind, err.Error())
		if g.metrics != nil {
			g.metrics.ObserveFailure(primary, kind)
		}
		g.log.Error("dispatch", "all candidates failed", map[string]any{"requestId": requestID, "primary": primary, "error": err.Error()})
		apierr.WriteUpstreamFailure(ctx, fmt.Sprintf("no provider could serve the request: %s", err.Error()))
		return
	}

	g.cache.Store(key, resp, now)
	g.stats.RecordSuccess(resp.Provider, resp.InputTokens, resp.OutputTokens)
	if g.metrics != nil {
		g.metrics.ObserveSuccess(resp.Provider, resp.InputTokens, resp.OutputTokens)
	}
	g.log.Info("dispatch", "request served", map[string]any{"requestId": requestID, "provider": resp.Provider})
	g.respondSuccess(ctx, resp, decision)
}

// tryProviders attempts primary then, if failover is enabled, the remaining
// enabled providers in lexicographic order. It stops at the first success,
// the first adapter error whose Kind does not trigger failover, or once every
// candidate is exhausted. A candidate missing from the registry is recorded
// as a configuration error and skipped rather than stopping the loop. Every
// candidate's failure except a cancellation is logged at ERROR as it
// happens (§8 scenario 2: a request that ultimately succeeds via failover
// still records the primary's failure), independent of the final outcome.
func (g *Gateway) tryProviders(ctx context.Context, requestID, primary string, req providers.CanonicalRequest) (providers.CanonicalResponse, error) {
	order := []string{primary}
	if g.registry.FailoverEnabled() {
		order = append(order, g.registry.FailoverCandidates(primary)...)
	}

	var lastErr error
	for _, name := range order {
		adapter, ok := g.registry.Get(name)
		if !ok {
			lastErr = providers.NewConfigurationError(fmt.Sprintf("provider %q is not configured", name))
			g.log.Error("dispatch", "candidate not configured", map[string]any{"requestId": requestID, "provider": name, "error": lastErr.Error()})
			continue
		}

		resp, err := adapter.Call(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		perr, isTagged := err.(*providers.Error)
		if !isTagged || perr.Kind != providers.KindCancelled {
			g.log.Error("dispatch", "candidate failed", map[string]any{"requestId": requestID, "provider": name, "error": err.Error()})
		}

		if !isTagged {
			return providers.CanonicalResponse{}, err
		}
		if perr.Kind == providers.KindCancelled {
			return providers.CanonicalResponse{}, err
		}
		if !perr.TriggersFailover() {
			return providers.CanonicalResponse{}, err
		}
	}
	return providers.CanonicalResponse{}, lastErr
}

func (g *Gateway) respondSuccess(ctx *fasthttp.RequestCtx, resp providers.CanonicalResponse, decision ratelimit.Decision) {
	if decision.Limit > 0 {
		ctx.Response.Header.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
		ctx.Response.Header.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		ctx.Response.Header.Set("RateLimit-Reset", strconv.FormatInt(decision.Reset, 10))
	}

	ctx.SetContentType("application/json")
	data, _ := json.Marshal(resp)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}
