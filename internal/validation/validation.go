// Package validation cross-checks extracted records against their source text.
// Everything here is pure and safe to call concurrently.
package validation

import (
	"regexp"
	"strings"
)

const (
	DefaultResumeThreshold = 70
	DefaultJobThreshold    = 75
)

// Result is the outcome of validating one extraction.
type Result struct {
	Valid       bool     `json:"valid"`
	Confidence  int      `json:"confidence"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// Thresholds are the acceptance floors per entity kind.
type Thresholds struct {
	Resume int `mapstructure:"resume"`
	Job    int `mapstructure:"job"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Resume: DefaultResumeThreshold, Job: DefaultJobThreshold}
}

// Validator carries the configured thresholds.
type Validator struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Validator {
	if thresholds.Resume <= 0 {
		thresholds.Resume = DefaultResumeThreshold
	}
	if thresholds.Job <= 0 {
		thresholds.Job = DefaultJobThreshold
	}
	return &Validator{thresholds: thresholds}
}

func (v *Validator) Thresholds() Thresholds { return v.thresholds }

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	skillPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\.\-\+\#]+$`)
)

// tally accumulates deductions from a 100 point budget.
type tally struct {
	confidence  int
	errors      []string
	warnings    []string
	suggestions []string
}

func newTally() *tally {
	return &tally{confidence: 100, errors: []string{}, warnings: []string{}, suggestions: []string{}}
}

func (t *tally) fail(points int, msg string) {
	t.confidence -= points
	t.errors = append(t.errors, msg)
}

func (t *tally) warn(points int, msg string) {
	t.confidence -= points
	t.warnings = append(t.warnings, msg)
}

func (t *tally) suggest(msg string) {
	t.suggestions = append(t.suggestions, msg)
}

func (t *tally) hasErrorAbout(word string) bool {
	for _, e := range t.errors {
		if strings.Contains(strings.ToLower(e), word) {
			return true
		}
	}
	return false
}

func (t *tally) result(threshold int) Result {
	confidence := t.confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return Result{
		Valid:       len(t.errors) == 0 && confidence >= threshold,
		Confidence:  confidence,
		Errors:      t.errors,
		Warnings:    t.warnings,
		Suggestions: t.suggestions,
	}
}

// verified counts items that appear case-insensitively in the source text.
func verified(source string, items []string) int {
	lower := strings.ToLower(source)
	n := 0
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" && strings.Contains(lower, item) {
			n++
		}
	}
	return n
}
