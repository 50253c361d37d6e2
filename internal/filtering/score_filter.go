package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/matching"
)

type minScoreFilter struct {
	minScore int
}

// NewMinScore creates a filter that removes matches below the minimum overall score.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg != nil {
		f.minScore = cfg.MinScore
	}
	if f.minScore < 0 || f.minScore > 100 {
		return fmt.Errorf("min score must be within 0..100, got %d", f.minScore)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	excluded := m.Exclude(func(r matching.Result) bool { return r.OverallScore < f.minScore })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding matches below minimum score",
			zap.Int("min_score", f.minScore),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("matches_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"min_score": strconv.Itoa(f.minScore)}}
}

type maxResultsFilter struct {
	limit int
}

// NewMaxResults creates a filter that keeps only the first N matches.
func NewMaxResults() Filter {
	return &maxResultsFilter{}
}

func (f *maxResultsFilter) Name() string { return "max_results" }

func (f *maxResultsFilter) Disable(string) {}

func (f *maxResultsFilter) IsEnabled() bool { return true }

func (f *maxResultsFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg != nil {
		f.limit = cfg.MaxResults
	}
	if f.limit < 0 {
		return fmt.Errorf("max results must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *maxResultsFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	if f.limit == 0 || initial <= f.limit {
		return m, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	m.Items = m.Items[:f.limit]
	if deps.Logger != nil {
		deps.Logger.Info("truncating matches", zap.Int("max_results", f.limit))
	}

	return m, Step{Initial: initial, Dropped: initial - f.limit, Left: m.Len()}, nil
}
