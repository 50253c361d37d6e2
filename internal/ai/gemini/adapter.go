package gemini

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
)

// Adapter exposes a Generator as an ai.Provider.
type Adapter struct {
	generator *Generator
	caller    *ai.Caller
}

func NewAdapter(generator *Generator, caller *ai.Caller) *Adapter {
	return &Adapter{generator: generator, caller: caller}
}

// New builds a ready-to-use Gemini provider.
func New(ctx context.Context, apiKey string, settings ai.Settings, budget *ai.Budget, logger *zap.Logger) (*Adapter, error) {
	generator, err := NewGenerator(ctx, apiKey, settings, logger)
	if err != nil {
		return nil, err
	}
	settings.Name = generator.name
	settings.Model = generator.model
	return NewAdapter(generator, ai.NewCaller(settings, budget, logger)), nil
}

func (a *Adapter) Name() string { return a.caller.Settings().Name }

func (a *Adapter) Model() string { return a.generator.Model() }

func (a *Adapter) Extract(ctx context.Context, req ai.Request) (*ai.Attempt, error) {
	return a.caller.Call(ctx, req, a.generator.GenerateContent)
}
