// Package config holds the application configuration and its checks.
package config

import (
	"time"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/authenticity"
	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/filtering"
	"github.com/spigell/cv-screener/internal/matching"
	"github.com/spigell/cv-screener/internal/validation"
)

// Provider types.
const (
	TypeGemini    = "gemini"
	TypeOpenAI    = "openai"
	TypeAnthropic = "anthropic"
)

// DefaultMaxCostPerCall mirrors the per-parse cost ceiling.
const DefaultMaxCostPerCall = 0.05

type Config struct {
	Providers    []Provider            `mapstructure:"providers"`
	Priority     Priority              `mapstructure:"priority"`
	Budget       Budget                `mapstructure:"budget"`
	Validation   validation.Thresholds `mapstructure:"validation"`
	Matching     Matching              `mapstructure:"matching"`
	Authenticity authenticity.Config   `mapstructure:"authenticity"`
	Batch        Batch                 `mapstructure:"batch"`
	Notify       Notify                `mapstructure:"notify"`
	Server       Server                `mapstructure:"server"`
}

type Provider struct {
	Name       string `mapstructure:"name"`
	Type       string `mapstructure:"type"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	APIKeyEnv  string `mapstructure:"api-key-env"`
	BaseURL    string `mapstructure:"base-url"`

	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        *int          `mapstructure:"max-retries"`
	Pricing           ai.Pricing    `mapstructure:"pricing"`
	MaxCostPerCall    float64       `mapstructure:"max-cost-per-call"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxOutputTokens   int           `mapstructure:"max-output-tokens"`
	Temperature       float64       `mapstructure:"temperature"`
}

// Priority lists provider names per entity kind, in the order they are tried.
type Priority struct {
	Resume []string `mapstructure:"resume"`
	Job    []string `mapstructure:"job"`
	Depth  []string `mapstructure:"depth"`
}

type Budget struct {
	DailyUSD float64 `mapstructure:"daily-usd"`
}

type Matching struct {
	Tiers   matching.Tiers   `mapstructure:"tiers"`
	Filters filtering.Config `mapstructure:"filters"`
}

type Batch struct {
	Concurrency int `mapstructure:"concurrency"`
}

type Notify struct {
	AMQPURL     string `mapstructure:"amqp-url"`
	AMQPURLFile string `mapstructure:"amqp-url-file"`
	Exchange    string `mapstructure:"exchange"`
}

// Enabled reports whether batch events should be published.
func (n Notify) Enabled() bool {
	return n.AMQPURL != "" || n.AMQPURLFile != ""
}

type Server struct {
	Listen      string        `mapstructure:"listen"`
	BodyLimitMB int           `mapstructure:"body-limit-mb"`
	ParseLimit  int           `mapstructure:"parse-limit"`
	ParseWindow time.Duration `mapstructure:"parse-window"`
	MatchLimit  int           `mapstructure:"match-limit"`
	MatchWindow time.Duration `mapstructure:"match-window"`
}

// Default returns the configuration used when a key is not set.
func Default() *Config {
	return &Config{
		Validation:   validation.DefaultThresholds(),
		Matching:     Matching{Tiers: matching.DefaultTiers()},
		Authenticity: authenticity.DefaultConfig(),
		Batch:        Batch{Concurrency: batch.DefaultConcurrency},
		Notify:       Notify{Exchange: "screening_updates"},
		Server: Server{
			Listen:      ":8080",
			BodyLimitMB: 10,
			ParseLimit:  10,
			ParseWindow: time.Minute,
			MatchLimit:  20,
			MatchWindow: 2 * time.Minute,
		},
	}
}

// Chain returns the providers for kind in priority order. Without an explicit
// priority every provider is used in declaration order.
func (c *Config) Chain(kind ai.Kind) []Provider {
	var names []string
	switch kind {
	case ai.KindResume:
		names = c.Priority.Resume
	case ai.KindJob:
		names = c.Priority.Job
	case ai.KindDepth:
		names = c.Priority.Depth
	}

	if len(names) == 0 {
		if kind == ai.KindDepth && len(c.Providers) > 0 {
			return c.Providers[:1]
		}
		return c.Providers
	}

	chain := make([]Provider, 0, len(names))
	for _, name := range names {
		if p, ok := c.Provider(name); ok {
			chain = append(chain, p)
		}
	}
	return chain
}

func (c *Config) Provider(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// DefaultKeyEnv is the environment variable checked when a provider has no key settings.
func DefaultKeyEnv(providerType string) string {
	switch providerType {
	case TypeGemini:
		return "GEMINI_API_KEY"
	case TypeOpenAI:
		return "OPENAI_API_KEY"
	case TypeAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Settings converts the provider entry into the shared call policy.
func (p Provider) Settings() ai.Settings {
	retries := ai.MaxRetries
	if p.MaxRetries != nil {
		retries = *p.MaxRetries
	}
	maxCost := p.MaxCostPerCall
	if maxCost == 0 {
		maxCost = DefaultMaxCostPerCall
	}
	return ai.Settings{
		Name:              p.Name,
		Model:             p.Model,
		Timeout:           p.Timeout,
		MaxRetries:        retries,
		Pricing:           p.Pricing,
		MaxCostPerCall:    maxCost,
		RequestsPerMinute: p.RequestsPerMinute,
		MaxOutputTokens:   p.MaxOutputTokens,
		Temperature:       p.Temperature,
	}
}
