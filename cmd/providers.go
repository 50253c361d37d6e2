package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/anthropic"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/ai/openai"
	"github.com/spigell/cv-screener/internal/config"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/secrets"
)

// providerSet holds the built chains plus the provider used for the
// authenticity depth check, if any.
type providerSet struct {
	chains pipeline.Chains
	depth  ai.Provider
	budget *ai.Budget
}

// buildProviders creates one adapter per configured provider and arranges them
// per entity kind. All adapters share one daily budget.
func buildProviders(ctx context.Context, cfg *config.Config, l *zap.Logger) (*providerSet, error) {
	budget := ai.NewBudget(cfg.Budget.DailyUSD)
	built := make(map[string]ai.Provider, len(cfg.Providers))

	get := func(p config.Provider) (ai.Provider, error) {
		if provider, ok := built[p.Name]; ok {
			return provider, nil
		}
		provider, err := newProvider(ctx, p, budget, l)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", p.Name, err)
		}
		built[p.Name] = provider
		l.Debug("provider ready", append(logger.CommonFields(provider.Name(), provider.Model()), zap.String("type", p.Type))...)
		return provider, nil
	}

	set := &providerSet{chains: pipeline.Chains{}, budget: budget}
	for _, kind := range []ai.Kind{ai.KindResume, ai.KindJob} {
		for _, p := range cfg.Chain(kind) {
			provider, err := get(p)
			if err != nil {
				return nil, err
			}
			set.chains[kind] = append(set.chains[kind], provider)
		}
	}

	if depth := cfg.Chain(ai.KindDepth); len(depth) > 0 {
		provider, err := get(depth[0])
		if err != nil {
			return nil, err
		}
		set.depth = provider
	}

	return set, nil
}

func newProvider(ctx context.Context, p config.Provider, budget *ai.Budget, l *zap.Logger) (ai.Provider, error) {
	env := p.APIKeyEnv
	if env == "" {
		env = config.DefaultKeyEnv(p.Type)
	}

	key, err := secrets.Load(secrets.Source{
		Name:  p.Name + " api key",
		Value: p.APIKey,
		File:  p.APIKeyFile,
		Env:   env,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set api-key-file, api-key or %s)", err, env)
	}

	settings := p.Settings()

	switch strings.ToLower(p.Type) {
	case config.TypeGemini:
		return gemini.New(ctx, key, settings, budget, l)
	case config.TypeAnthropic:
		var opts []option.RequestOption
		if p.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(p.BaseURL))
		}
		return anthropic.New(key, settings, budget, l, opts...)
	case config.TypeOpenAI:
		client, err := openai.NewClient(key, settings, l)
		if err != nil {
			return nil, err
		}
		if p.BaseURL != "" {
			client.APIURL = p.BaseURL
		}
		settings.Model = client.Model()
		return openai.NewAdapter(client, ai.NewCaller(settings, budget, l)), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
}
