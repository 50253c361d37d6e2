package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/authenticity"
	"github.com/spigell/cv-screener/internal/config"
	"github.com/spigell/cv-screener/internal/matching"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/validation"
)

// screener bundles the components a command needs.
type screener struct {
	cfg       *config.Config
	logger    *zap.Logger
	pipeline  *pipeline.Orchestrator
	analyzer  *authenticity.Analyzer
	matcher   *matching.Engine
	providers *providerSet
}

// setup loads the configuration and builds the components. Providers are only
// built when needProviders is set.
func setup(ctx context.Context, needProviders bool) (*screener, error) {
	l := newLogger()

	cfg, err := getConfig(l, needProviders)
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	s := &screener{
		cfg:     cfg,
		logger:  l,
		matcher: matching.New(cfg.Matching.Tiers),
	}

	if !needProviders {
		s.analyzer = authenticity.New(nil, cfg.Authenticity, l)
		return s, nil
	}

	providers, err := buildProviders(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	s.providers = providers
	s.pipeline = pipeline.New(providers.chains, validation.New(cfg.Validation), l)
	s.analyzer = authenticity.New(providers.depth, cfg.Authenticity, l)

	l.Info("starting the cv-screener", zap.String("version", version))
	return s, nil
}

// readDocument reads a text document from path, or from stdin when path is "-".
func readDocument(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
