package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Kind selects the extraction prompt and output schema.
type Kind string

const (
	KindResume Kind = "resume"
	KindJob    Kind = "job"
	// KindDepth is the auxiliary technical-depth classification used by authenticity analysis.
	KindDepth Kind = "depth"
)

// ParseKind validates a user supplied kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindResume, KindJob, KindDepth:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// ErrTooShort is returned before any network call when the source text cannot
// possibly contain a usable document.
var ErrTooShort = errors.New("too short")

const (
	MinResumeLength = 50
	MinJobLength    = 100

	MaxResumeLength = 14000
	MaxJobLength    = 8000
	MaxDepthLength  = 4000
)

// Request is a single extraction request.
type Request struct {
	Kind Kind
	Text string
	// Hints carries extra context for the prompt, e.g. claimed skills for KindDepth.
	Hints []string
}

// CheckLength enforces the minimum source length per kind.
func CheckLength(req Request) error {
	n := utf8.RuneCountInString(req.Text)
	switch req.Kind {
	case KindResume:
		if n < MinResumeLength {
			return fmt.Errorf("resume text %w: %d characters, minimum %d", ErrTooShort, n, MinResumeLength)
		}
	case KindJob:
		if n < MinJobLength {
			return fmt.Errorf("job description %w: %d characters, minimum %d", ErrTooShort, n, MinJobLength)
		}
	}
	return nil
}

func maxLength(kind Kind) int {
	switch kind {
	case KindResume:
		return MaxResumeLength
	case KindJob:
		return MaxJobLength
	default:
		return MaxDepthLength
	}
}

// Usage is the token accounting reported by a backend.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Attempt is the outcome of one successful provider call.
type Attempt struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Kind     Kind          `json:"kind"`
	Raw      string        `json:"raw"`
	Usage    Usage         `json:"usage"`
	Cost     float64       `json:"cost"`
	Latency  time.Duration `json:"latency"`
	Retries  int           `json:"retries"`
}

// Provider is one text-generation backend able to run the fixed extraction prompts.
type Provider interface {
	Name() string
	Model() string
	Extract(ctx context.Context, req Request) (*Attempt, error)
}

// Completion is what a backend returns for a single round trip.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Prompt is a rendered system/user message pair.
type Prompt struct {
	System string
	User   string
}
