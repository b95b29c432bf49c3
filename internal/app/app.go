// Package app wires the gateway's collaborators together and owns their
// lifecycle, grounded in the teacher's staged App.init pattern
// (initInfra → initProviders → initServices → initGateway).
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/wx-yz/ai-gateway/internal/admin"
	"github.com/wx-yz/ai-gateway/internal/cache"
	"github.com/wx-yz/ai-gateway/internal/config"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/metrics"
	"github.com/wx-yz/ai-gateway/internal/providers"
	"github.com/wx-yz/ai-gateway/internal/providers/anthropic"
	"github.com/wx-yz/ai-gateway/internal/providers/cohere"
	"github.com/wx-yz/ai-gateway/internal/providers/gemini"
	"github.com/wx-yz/ai-gateway/internal/providers/mistral"
	"github.com/wx-yz/ai-gateway/internal/providers/ollama"
	"github.com/wx-yz/ai-gateway/internal/providers/openai"
	"github.com/wx-yz/ai-gateway/internal/proxy"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
	"github.com/wx-yz/ai-gateway/internal/stats"
)

// App holds every long-lived collaborator and the two listeners built on
// top of them.
type App struct {
	cfg config.Config

	state    *admin.State
	cache    *cache.PromptCache
	limiter  *ratelimit.Limiter
	stats    *stats.Aggregator
	log      *logger.Logger
	metrics  *metrics.Registry
	registry *providers.Registry
	gateway  *proxy.Gateway
	adminSrv *admin.Server
}

// New stages construction the way the teacher's App.init does: infra first
// (cache, limiter, stats, logger), then the provider registry, then the
// services that depend on both, then the two HTTP surfaces.
func New(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}
	a.initInfra()
	a.initProviders()
	a.initServices()
	return a, nil
}

func (a *App) initInfra() {
	a.state = admin.New(a.cfg.SystemPrompt, a.cfg.Guardrails, a.cfg.RateLimitPlan, a.cfg.Logging, a.cfg.Gateway.VerboseLogging)
	a.cache = cache.New(a.cfg.CacheTTLSeconds)
	a.limiter = ratelimit.New()
	a.limiter.SetPlan(a.cfg.RateLimitPlan)
	a.stats = stats.New()
	a.metrics = metrics.New()

	a.log = logger.New(slog.Default(), logger.SinksFromConfig(a.cfg.Logging)...)
	a.log.SetVerbose(a.cfg.Gateway.VerboseLogging)
}

// initProviders constructs one adapter per configured provider and assembles
// the Registry. Adapters for providers without an endpoint are simply
// omitted — the registry only ever dispatches to what Config.Validate
// already confirmed is non-empty.
func (a *App) initProviders() {
	adapters := make(map[string]providers.Adapter, 6)
	if pc := a.cfg.Providers["openai"]; pc.Enabled() {
		adapters["openai"] = openai.New(pc, a.state, a.state, openai.WithBaseURL(pc.Endpoint))
	}
	if pc := a.cfg.Providers["anthropic"]; pc.Enabled() {
		adapters["anthropic"] = anthropic.New(pc, a.state, a.state, anthropic.WithBaseURL(pc.Endpoint))
	}
	if pc := a.cfg.Providers["gemini"]; pc.Enabled() {
		adapters["gemini"] = gemini.New(pc, a.state, a.state, gemini.WithBaseURL(pc.Endpoint))
	}
	if pc := a.cfg.Providers["ollama"]; pc.Enabled() {
		adapters["ollama"] = ollama.New(pc, a.state, a.state, ollama.WithBaseURL(pc.Endpoint))
	}
	if pc := a.cfg.Providers["mistral"]; pc.Enabled() {
		adapters["mistral"] = mistral.New(pc, a.state, a.state, mistral.WithBaseURL(pc.Endpoint))
	}
	if pc := a.cfg.Providers["cohere"]; pc.Enabled() {
		adapters["cohere"] = cohere.New(pc, a.state, a.state, cohere.WithBaseURL(pc.Endpoint))
	}
	a.registry = providers.NewRegistry(adapters)
}

func (a *App) initServices() {
	a.gateway = proxy.NewGateway(a.registry, a.cache, a.limiter, a.stats, a.log, a.state, a.cfg.Gateway.CORSOrigins)
	a.gateway.SetMetrics(a.metrics)
	a.adminSrv = admin.NewServer(a.state, a.limiter, a.cache, a.stats, a.log, a.metrics)
}

// Run starts both listeners and blocks until either exits or ctx is
// cancelled, mirroring the teacher's errgroup-based dual-listener startup.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	dataAddr := fmt.Sprintf(":%d", a.cfg.Gateway.Port)
	adminAddr := fmt.Sprintf(":%d", a.cfg.Gateway.AdminPort)

	g.Go(func() error {
		a.log.Info("app", "data-plane listener starting", map[string]any{"addr": dataAddr})
		return a.gateway.Start(dataAddr)
	})
	g.Go(func() error {
		a.log.Info("app", "control-plane listener starting", map[string]any{"addr": adminAddr})
		return admin.ListenAndServe(adminAddr, a.adminSrv)
	})
	// ctx is cancelled by the caller or by the first listener that returns an
	// error; Run returns at that point without waiting for the other listener.
	<-ctx.Done()
	closeErr := a.Close()
	if cause := context.Cause(ctx); cause != nil && cause != context.Canceled {
		return cause
	}
	return closeErr
}

// Close releases resources in the reverse order they were acquired.
func (a *App) Close() error {
	if a.log != nil {
		a.log.Close()
	}
	return nil
}
