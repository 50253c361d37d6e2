// Package pipeline runs an ordered chain of providers over one document and
// keeps the best validated attempt.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/records"
	"github.com/spigell/cv-screener/internal/validation"
)

// Status is the terminal state of one run.
type Status string

const (
	StatusAccepted    Status = "accepted"
	StatusNeedsReview Status = "needs_review"
	StatusFailed      Status = "failed"
)

const belowThresholdWarning = "best result is below the acceptance threshold; manual review recommended"

// Outcome is the result of one orchestrated run.
type Outcome struct {
	RequestID  string              `json:"request_id" yaml:"request_id"`
	Kind       ai.Kind             `json:"kind" yaml:"kind"`
	Status     Status              `json:"status" yaml:"status"`
	Candidate  *records.Candidate  `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Job        *records.JobProfile `json:"job,omitempty" yaml:"job,omitempty"`
	Confidence int                 `json:"confidence" yaml:"confidence"`
	Validation validation.Result   `json:"validation" yaml:"validation"`
	Summary    validation.Summary  `json:"validation_summary" yaml:"validation_summary"`
	Provider   string              `json:"provider" yaml:"provider"`
	Model      string              `json:"model" yaml:"model"`
	Attempts   int                 `json:"attempts" yaml:"attempts"`
	Warnings   []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Failures   []Failure           `json:"failures,omitempty" yaml:"failures,omitempty"`
	Cost       float64             `json:"cost" yaml:"cost"`
}

// Chains maps an entity kind to its ordered provider list.
type Chains map[ai.Kind][]ai.Provider

type Orchestrator struct {
	chains    Chains
	validator *validation.Validator
	logger    *zap.Logger
}

func New(chains Chains, validator *validation.Validator, log *zap.Logger) *Orchestrator {
	if validator == nil {
		validator = validation.New(validation.DefaultThresholds())
	}
	return &Orchestrator{
		chains:    chains,
		validator: validator,
		logger:    logger.WithFields(log),
	}
}

// Providers returns the ordered chain used for kind.
func (o *Orchestrator) Providers(kind ai.Kind) []ai.Provider {
	return o.chains[kind]
}

func (o *Orchestrator) ParseResume(ctx context.Context, text string) (*Outcome, error) {
	return o.Run(ctx, ai.KindResume, text)
}

func (o *Orchestrator) AnalyzeJob(ctx context.Context, text string) (*Outcome, error) {
	return o.Run(ctx, ai.KindJob, text)
}

// evaluation is one decoded and validated attempt.
type evaluation struct {
	attempt   *ai.Attempt
	candidate *records.Candidate
	job       *records.JobProfile
	result    validation.Result
}

// Run tries each provider for kind in order until one yields a valid record.
func (o *Orchestrator) Run(ctx context.Context, kind ai.Kind, text string) (*Outcome, error) {
	if kind != ai.KindResume && kind != ai.KindJob {
		return nil, fmt.Errorf("pipeline: unsupported kind %q", kind)
	}

	req := ai.Request{Kind: kind, Text: text}
	if err := ai.CheckLength(req); err != nil {
		return nil, err
	}

	providers := o.chains[kind]
	if len(providers) == 0 {
		return nil, fmt.Errorf("pipeline: no providers configured for %s", kind)
	}

	out := &Outcome{RequestID: uuid.NewString(), Kind: kind}
	log := logger.WithRequest(o.logger, out.RequestID, string(kind))

	var best *evaluation
	for i, provider := range providers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}

		plog := logger.WithCommonFields(log, provider.Name(), provider.Model())
		plog.Info("trying provider", zap.Int("position", i+1), zap.Int("chain_length", len(providers)))
		out.Attempts++

		attempt, err := provider.Extract(ctx, req)
		if err != nil {
			if errors.Is(err, ai.ErrTooShort) {
				return nil, err
			}
			plog.Warn("provider failed, trying next", zap.Error(err))
			out.Failures = append(out.Failures, failure(provider.Name(), err))
			continue
		}
		out.Cost += attempt.Cost

		eval, err := o.evaluate(kind, text, attempt)
		if err != nil {
			plog.Warn("provider output could not be decoded, trying next", zap.Error(err))
			out.Failures = append(out.Failures, failure(provider.Name(), err))
			continue
		}

		plog.Info("provider result validated",
			zap.Int("confidence", eval.result.Confidence),
			zap.Bool("valid", eval.result.Valid),
			zap.Int("errors", len(eval.result.Errors)),
			zap.Int("warnings", len(eval.result.Warnings)),
		)

		if best == nil || eval.result.Confidence > best.result.Confidence {
			best = eval
		}
		if eval.result.Valid {
			break
		}
	}

	if best == nil {
		log.Error("all providers failed", zap.Int("attempts", out.Attempts))
		return nil, &AllParsersFailedError{
			Entity:   kind,
			Failures: out.Failures,
			Guidance: ScannedDocumentGuidance,
		}
	}

	out.Status = StatusAccepted
	meta := records.StatusCompleted
	if !best.result.Valid {
		out.Status = StatusNeedsReview
		meta = records.StatusNeedsReview
		out.Warnings = append(out.Warnings, belowThresholdWarning)
		log.Warn("no provider passed validation, returning best attempt",
			zap.String(logger.FieldProvider, best.attempt.Provider),
			zap.Int("confidence", best.result.Confidence),
		)
	}

	out.Provider = best.attempt.Provider
	out.Model = best.attempt.Model
	out.Confidence = best.result.Confidence
	out.Validation = best.result
	out.Summary = validation.Summarize(best.result, string(kind))

	parseMeta := records.ParseMeta{
		ParseConfidence: best.result.Confidence,
		ParseMethod:     best.attempt.Provider,
		ParseStatus:     meta,
		ParseAttempts:   out.Attempts,
	}
	switch {
	case best.candidate != nil:
		best.candidate.ID = uuid.NewString()
		best.candidate.ParseMeta = parseMeta
		out.Candidate = best.candidate
	case best.job != nil:
		best.job.ID = uuid.NewString()
		best.job.ParseMeta = parseMeta
		out.Job = best.job
	}

	log.Info("pipeline finished",
		zap.String("status", string(out.Status)),
		zap.String(logger.FieldProvider, out.Provider),
		zap.Int("confidence", out.Confidence),
		zap.Int("attempts", out.Attempts),
		zap.Float64("cost_usd", out.Cost),
	)
	return out, nil
}

func (o *Orchestrator) evaluate(kind ai.Kind, text string, attempt *ai.Attempt) (*evaluation, error) {
	eval := &evaluation{attempt: attempt}
	switch kind {
	case ai.KindResume:
		c, err := records.DecodeCandidate(attempt.Raw)
		if err != nil {
			return nil, err
		}
		eval.candidate = c
		eval.result = o.validator.Resume(text, c)
	case ai.KindJob:
		j, err := records.DecodeJob(attempt.Raw)
		if err != nil {
			return nil, err
		}
		j.Normalize()
		eval.job = j
		eval.result = o.validator.Job(text, j)
	}
	return eval, nil
}

func failure(provider string, err error) Failure {
	f := Failure{Provider: provider, Error: err.Error()}
	if kind, ok := ai.KindOf(err); ok {
		f.Kind = string(kind)
	}
	return f
}
