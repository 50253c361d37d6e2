package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	// MaxTimeout is the hard ceiling for a single Extract call, retries included.
	MaxTimeout     = 30 * time.Second
	DefaultTimeout = 30 * time.Second
	// MaxRetries is the ceiling for retries after the first attempt.
	MaxRetries = 2

	defaultBackoff = 500 * time.Millisecond
	maxLogLength   = 200
)

// Settings holds the per-provider call policy.
type Settings struct {
	Name              string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	Pricing           Pricing
	MaxCostPerCall    float64
	RequestsPerMinute int
	MaxOutputTokens   int
	Temperature       float64
}

// CompleteFunc performs exactly one backend round trip.
type CompleteFunc func(ctx context.Context, prompt Prompt) (*Completion, error)

// Caller applies the shared call policy around a backend: length guard, cost
// guard, throttling, timeout, transient retries, schema check and accounting.
type Caller struct {
	settings Settings
	limiter  *rate.Limiter
	budget   *Budget
	logger   *zap.Logger
	backoff  time.Duration
}

func NewCaller(settings Settings, budget *Budget, log *zap.Logger) *Caller {
	if settings.Timeout <= 0 || settings.Timeout > MaxTimeout {
		settings.Timeout = DefaultTimeout
	}
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}
	if settings.MaxRetries > MaxRetries {
		settings.MaxRetries = MaxRetries
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if settings.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(settings.RequestsPerMinute)), 1)
	}

	return &Caller{
		settings: settings,
		limiter:  limiter,
		budget:   budget,
		logger:   logger.WithCommonFields(log, settings.Name, settings.Model),
		backoff:  defaultBackoff,
	}
}

func (c *Caller) Settings() Settings { return c.settings }

// WithBackoff overrides the base delay between retries.
func (c *Caller) WithBackoff(d time.Duration) *Caller {
	c.backoff = d
	return c
}

// Call runs req through complete under the caller's policy.
func (c *Caller) Call(ctx context.Context, req Request, complete CompleteFunc) (*Attempt, error) {
	if err := CheckLength(req); err != nil {
		return nil, err
	}

	name := c.settings.Name
	prompt := BuildPrompt(req)

	estimate := c.settings.Pricing.Cost(EstimateTokens(prompt.Joined()), c.settings.MaxOutputTokens)
	if c.settings.MaxCostPerCall > 0 && estimate > c.settings.MaxCostPerCall {
		return nil, NewError(name, Quota, fmt.Errorf("%w: estimated %.4f USD, per-call limit %.4f USD", ErrBudgetExceeded, estimate, c.settings.MaxCostPerCall))
	}
	if err := c.budget.Allow(estimate); err != nil {
		return nil, NewError(name, Quota, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	started := time.Now()
	c.logger.Debug("provider request",
		zap.String("kind", string(req.Kind)),
		zap.Int("prompt_tokens_estimate", EstimateTokens(prompt.Joined())),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.User, maxLogLength)),
	)

	var (
		completion *Completion
		err        error
		retries    int
	)
	for attempt := 0; ; attempt++ {
		if werr := c.limiter.Wait(ctx); werr != nil {
			err = Classify(name, 0, "", werr)
			break
		}

		completion, err = complete(ctx, prompt)
		if err == nil {
			break
		}

		if _, ok := KindOf(err); !ok {
			err = Classify(name, 0, err.Error(), err)
		}

		if !IsTransient(err) || attempt >= c.settings.MaxRetries || ctx.Err() != nil {
			break
		}

		delay := c.backoff << attempt
		var perr *ProviderError
		if errors.As(err, &perr) && perr.RetryAfter > delay {
			delay = perr.RetryAfter
		}

		c.logger.Warn("transient provider error, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if werr := utils.WaitFor(ctx, delay); werr != nil {
			err = Classify(name, 0, "", werr)
			break
		}
		retries++
	}

	if err != nil {
		c.logger.Warn("provider call failed", zap.Int("retries", retries), zap.Error(err))
		return nil, err
	}

	raw := ExtractJSON(completion.Text)
	c.logger.Debug("provider response",
		zap.Duration("latency", time.Since(started)),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogLength)),
	)

	inTokens, outTokens := completion.InputTokens, completion.OutputTokens
	if inTokens == 0 {
		inTokens = EstimateTokens(prompt.Joined())
	}
	if outTokens == 0 {
		outTokens = EstimateTokens(completion.Text)
	}
	cost := c.settings.Pricing.Cost(inTokens, outTokens)
	c.budget.Add(cost)

	if serr := ValidateSchema(req.Kind, raw); serr != nil {
		return nil, NewError(name, Schema, serr)
	}

	return &Attempt{
		Provider: name,
		Model:    c.settings.Model,
		Kind:     req.Kind,
		Raw:      raw,
		Usage:    Usage{InputTokens: inTokens, OutputTokens: outTokens},
		Cost:     cost,
		Latency:  time.Since(started),
		Retries:  retries,
	}, nil
}
