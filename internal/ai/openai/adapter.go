package openai

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
)

type Adapter struct {
	client *Client
	caller *ai.Caller
}

func NewAdapter(client *Client, caller *ai.Caller) *Adapter {
	return &Adapter{client: client, caller: caller}
}

// New builds a ready-to-use OpenAI provider.
func New(apiKey string, settings ai.Settings, budget *ai.Budget, logger *zap.Logger) (*Adapter, error) {
	client, err := NewClient(apiKey, settings, logger)
	if err != nil {
		return nil, err
	}
	settings.Name = client.name
	settings.Model = client.model
	return NewAdapter(client, ai.NewCaller(settings, budget, logger)), nil
}

func (a *Adapter) Name() string { return a.caller.Settings().Name }

func (a *Adapter) Model() string { return a.client.Model() }

func (a *Adapter) Extract(ctx context.Context, req ai.Request) (*ai.Attempt, error) {
	return a.caller.Call(ctx, req, a.client.Complete)
}
