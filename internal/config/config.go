// Package config loads and validates all runtime configuration for the
// gateway: per-provider credentials, cache TTL, listener ports, guardrails
// policy, the startup rate-limit plan, and logging sink configuration.
//
// Grounded in the teacher's internal/config package: environment variables
// are the source of truth (via viper's env binding), with an optional .env
// file loaded through subosito/gotenv for local development, trimmed to the
// six providers and cross-cutting controls this gateway actually has.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/wx-yz/ai-gateway/internal/guardrails"
	"github.com/wx-yz/ai-gateway/internal/logger"
	"github.com/wx-yz/ai-gateway/internal/providers"
	"github.com/wx-yz/ai-gateway/internal/ratelimit"
)

// providerNames is the fixed set of adapters this gateway dispatches to.
var providerNames = []string{"openai", "anthropic", "gemini", "ollama", "mistral", "cohere"}

// GatewayConfig holds the listener and runtime-flag settings.
type GatewayConfig struct {
	Port           int
	AdminPort      int
	VerboseLogging bool
	CORSOrigins    []string
}

// Config is the top-level configuration container.
type Config struct {
	Providers       map[string]providers.Config
	CacheTTLSeconds int64
	Gateway         GatewayConfig
	Guardrails      guardrails.Config
	RateLimitPlan   *ratelimit.Plan
	Logging         logger.SinkConfig
	SystemPrompt    string
}

// Load reads configuration from the environment (and an optional .env file
// in the working directory, loaded first so explicit env vars still win).
func Load() (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.admin_port", 8081)
	v.SetDefault("gateway.verbose_logging", false)
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("guardrails.min_length", 0)
	v.SetDefault("guardrails.max_length", 8000)
	v.SetDefault("guardrails.require_disclaimer", false)
	v.SetDefault("system_prompt", "")

	cfg := Config{
		Providers:       make(map[string]providers.Config, len(providerNames)),
		CacheTTLSeconds: v.GetInt64("cache.ttl_seconds"),
		Gateway: GatewayConfig{
			Port:           v.GetInt("gateway.port"),
			AdminPort:      v.GetInt("gateway.admin_port"),
			VerboseLogging: v.GetBool("gateway.verbose_logging"),
			CORSOrigins:    corsOrigins(v.GetString("gateway.cors_origins")),
		},
		Guardrails: guardrails.Config{
			MinLength:         v.GetInt("guardrails.min_length"),
			MaxLength:         v.GetInt("guardrails.max_length"),
			RequireDisclaimer: v.GetBool("guardrails.require_disclaimer"),
			Disclaimer:        v.GetString("guardrails.disclaimer"),
			BannedPhrases:     splitNonEmpty(v.GetString("guardrails.banned_phrases")),
		},
		Logging: logger.SinkConfig{
			SplunkEnabled:        v.GetBool("logging.splunk_enabled"),
			DatadogEnabled:       v.GetBool("logging.datadog_enabled"),
			ElasticsearchEnabled: v.GetBool("logging.elasticsearch_enabled"),
		},
		SystemPrompt: v.GetString("system_prompt"),
	}

	for _, name := range providerNames {
		prefix := strings.ToUpper(name)
		pc := providers.Config{
			Endpoint: v.GetString(strings.ToLower(prefix) + ".endpoint"),
			APIKey:   v.GetString(strings.ToLower(prefix) + ".api_key"),
			Model:    v.GetString(strings.ToLower(prefix) + ".model"),
		}
		// viper's AutomaticEnv with a dotted key only binds once the key has
		// been referenced; provider env vars follow OPENAI_ENDPOINT etc.
		if pc.Endpoint == "" {
			pc.Endpoint = v.GetString(prefix + "_ENDPOINT")
		}
		if pc.APIKey == "" {
			pc.APIKey = v.GetString(prefix + "_API_KEY")
		}
		if pc.Model == "" {
			pc.Model = v.GetString(prefix + "_MODEL")
		}
		cfg.Providers[name] = pc
	}

	if limit := v.GetInt("ratelimit.requests_per_window"); limit > 0 {
		cfg.RateLimitPlan = &ratelimit.Plan{
			Name:              v.GetString("ratelimit.plan_name"),
			RequestsPerWindow: limit,
			WindowSeconds:     v.GetInt64("ratelimit.window_seconds"),
		}
	}

	return cfg, cfg.Validate()
}

// Validate fails startup if no provider is configured (§6).
func (c Config) Validate() error {
	for _, pc := range c.Providers {
		if pc.Enabled() {
			return nil
		}
	}
	return errors.New("config: at least one provider must be configured")
}

func corsOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	return splitNonEmpty(raw)
}

func splitNonEmpty(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders a human-readable summary for startup logging, never
// including API key values.
func (c Config) String() string {
	enabled := make([]string, 0, len(c.Providers))
	for name, pc := range c.Providers {
		if pc.Enabled() {
			enabled = append(enabled, name)
		}
	}
	return fmt.Sprintf("providers=%v cacheTTL=%ds gatewayPort=%d adminPort=%d", enabled, c.CacheTTLSeconds, c.Gateway.Port, c.Gateway.AdminPort)
}
