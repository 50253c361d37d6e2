package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/batch"
)

// Validation collects configuration problems. Errors stop the program,
// warnings are logged.
type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Err joins all errors, or returns nil.
func (v *Validation) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(v.Errors))
	for _, e := range v.Errors {
		errs = append(errs, errors.New(e))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// Validate checks the configuration. needProviders is false for commands that
// never call a provider.
func (c *Config) Validate(needProviders bool) *Validation {
	v := &Validation{}

	if needProviders && len(c.Providers) == 0 {
		v.errorf("at least one provider must be configured under providers")
	}

	seen := make(map[string]bool)
	for i, p := range c.Providers {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			v.errorf("providers[%d]: name is required", i)
			continue
		}
		if seen[name] {
			v.errorf("providers[%d]: duplicate provider name %q", i, name)
		}
		seen[name] = true

		switch p.Type {
		case TypeGemini, TypeOpenAI, TypeAnthropic:
		default:
			v.errorf("provider %q: unknown type %q (want gemini, openai or anthropic)", name, p.Type)
		}
		if strings.TrimSpace(p.Model) == "" {
			v.warnf("provider %q: model is not set, the backend default is used", name)
		}
		if p.Timeout > ai.MaxTimeout {
			v.warnf("provider %q: timeout %s is above %s and will be clamped", name, p.Timeout, ai.MaxTimeout)
		}
		if p.Timeout < 0 {
			v.errorf("provider %q: timeout must not be negative", name)
		}
		if p.MaxRetries != nil && (*p.MaxRetries < 0 || *p.MaxRetries > ai.MaxRetries) {
			v.warnf("provider %q: max-retries %d is outside 0..%d and will be clamped", name, *p.MaxRetries, ai.MaxRetries)
		}
		if p.Pricing.InputPer1K < 0 || p.Pricing.OutputPer1K < 0 || p.MaxCostPerCall < 0 {
			v.errorf("provider %q: pricing and cost limits must not be negative", name)
		}
		if p.RequestsPerMinute < 0 {
			v.errorf("provider %q: requests-per-minute must not be negative", name)
		}
		if p.BaseURL != "" && p.Type == TypeGemini {
			v.warnf("provider %q: base-url is ignored for gemini", name)
		}
	}

	for kind, names := range map[ai.Kind][]string{
		ai.KindResume: c.Priority.Resume,
		ai.KindJob:    c.Priority.Job,
		ai.KindDepth:  c.Priority.Depth,
	} {
		for _, name := range names {
			if !seen[name] {
				v.errorf("priority.%s: unknown provider %q", kind, name)
			}
		}
	}

	if c.Budget.DailyUSD < 0 {
		v.errorf("budget.daily-usd must not be negative")
	}
	if c.Budget.DailyUSD == 0 && needProviders {
		v.warnf("budget.daily-usd is not set, daily spending is unlimited")
	}

	checkPercent(v, "validation.resume", c.Validation.Resume)
	checkPercent(v, "validation.job", c.Validation.Job)

	t := c.Matching.Tiers
	if !(t.A > t.B && t.B > t.C && t.C >= 0 && t.A <= 100) {
		v.errorf("matching.tiers must satisfy 100 >= a > b > c >= 0, got a=%d b=%d c=%d", t.A, t.B, t.C)
	}
	checkPercent(v, "matching.filters.min-score", c.Matching.Filters.MinScore)
	checkPercent(v, "matching.filters.confidence-floor", c.Matching.Filters.ConfidenceFloor)
	if c.Matching.Filters.MaxResults < 0 {
		v.errorf("matching.filters.max-results must not be negative")
	}

	at := c.Authenticity.Thresholds
	if !(at.Low > at.Medium && at.Medium > at.High && at.High >= 0 && at.Low <= 100) {
		v.errorf("authenticity.thresholds must satisfy 100 >= low > medium > high >= 0")
	}

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > batch.MaxItems {
		v.errorf("batch.concurrency must be within 1..%d, got %d", batch.MaxItems, c.Batch.Concurrency)
	}

	if c.Notify.AMQPURL != "" && c.Notify.AMQPURLFile != "" {
		v.warnf("notify: both amqp-url and amqp-url-file are set, the file wins")
	}

	if c.Server.ParseLimit < 0 || c.Server.MatchLimit < 0 {
		v.errorf("server: rate limits must not be negative")
	}

	return v
}

func checkPercent(v *Validation, key string, value int) {
	if value < 0 || value > 100 {
		v.errorf("%s must be within 0..100, got %d", key, value)
	}
}
