package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/matching"
)

type confidenceFloorFilter struct {
	disabled bool
	reason   string
	floor    int
}

// NewConfidenceFloor creates a filter that removes candidates whose parse
// confidence is below the configured floor.
func NewConfidenceFloor() Filter {
	return &confidenceFloorFilter{}
}

func (f *confidenceFloorFilter) Name() string { return "confidence_floor" }

func (f *confidenceFloorFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *confidenceFloorFilter) IsEnabled() bool { return !f.disabled }

func (f *confidenceFloorFilter) Validate(cfg *Config) error {
	f.floor = 0
	if cfg != nil {
		f.floor = cfg.ConfidenceFloor
	}
	if f.floor < 0 || f.floor > 100 {
		return fmt.Errorf("confidence floor must be within 0..100, got %d", f.floor)
	}
	return nil
}

func (f *confidenceFloorFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	if f.floor == 0 {
		return m, Step{Initial: initial, Dropped: 0, Left: m.Len()}, nil
	}

	excluded := m.Exclude(func(r matching.Result) bool { return r.ParseConfidence < f.floor })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding candidates with low parse confidence",
			zap.Int("floor", f.floor),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *confidenceFloorFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"floor": strconv.Itoa(f.floor)},
	}
}
