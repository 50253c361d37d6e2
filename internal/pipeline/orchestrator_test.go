package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/records"
)

const resumeText = `Jane Doe
jane@example.com | +1 555 0100 | Berlin
Senior platform engineer with six years building infrastructure.
Skills: Go, Kubernetes, Terraform, PostgreSQL
Experience: Site Reliability Engineer at Acme Corp, 2019-01 to present.
Education: BSc Computer Science, TU Berlin.`

// full scores 100, unverified drops to 85, nameless drops to 60.
const (
	fullResume = `{"name":"Jane Doe","email":"jane@example.com","phone":"+1 555 0100","years_of_experience":6,
		"skills":["Go","Kubernetes","Terraform","PostgreSQL"],
		"experience":[{"title":"Site Reliability Engineer","company":"Acme Corp","start_date":"2019-01"}],
		"education":[{"degree":"BSc","institution":"TU Berlin"}]}`
	unverifiedResume = `{"name":"Jane Doe","email":"jane@example.com","phone":"+1 555 0100","years_of_experience":6,
		"skills":["Go","Rust","Haskell","Erlang"],
		"experience":[{"title":"Site Reliability Engineer","company":"Acme Corp","start_date":"2019-01"}],
		"education":[{"degree":"BSc","institution":"TU Berlin"}]}`
	namelessResume = `{"name":"","email":"jane@example.com","phone":"+1 555 0100","years_of_experience":6,
		"skills":["Go","Kubernetes","Terraform","PostgreSQL"],
		"experience":[{"title":"Site Reliability Engineer","company":"Acme Corp","start_date":"2019-01"}],
		"education":[{"degree":"BSc","institution":"TU Berlin"}]}`
)

type stubProvider struct {
	name  string
	raw   string
	err   error
	cost  float64
	calls int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return s.name + "-model" }

func (s *stubProvider) Extract(_ context.Context, req ai.Request) (*ai.Attempt, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ai.Attempt{Provider: s.name, Model: s.Model(), Kind: req.Kind, Raw: s.raw, Cost: s.cost}, nil
}

func newOrchestrator(kind ai.Kind, providers ...*stubProvider) *Orchestrator {
	chain := make([]ai.Provider, 0, len(providers))
	for _, p := range providers {
		chain = append(chain, p)
	}
	return New(Chains{kind: chain}, nil, zap.NewNop())
}

func TestRunPrefersLaterValidProvider(t *testing.T) {
	first := &stubProvider{name: "gemini", raw: namelessResume, cost: 0.001}
	second := &stubProvider{name: "openai", raw: unverifiedResume, cost: 0.002}

	out, err := newOrchestrator(ai.KindResume, first, second).ParseResume(context.Background(), resumeText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusAccepted || out.Provider != "openai" || out.Confidence != 85 {
		t.Fatalf("expected accepted openai result at 85, got %+v", out)
	}
	if out.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", out.Attempts)
	}
	if math.Abs(out.Cost-0.003) > 1e-9 {
		t.Fatalf("expected accumulated cost, got %v", out.Cost)
	}
	if out.Candidate == nil || out.Candidate.ParseStatus != records.StatusCompleted || out.Candidate.ParseMethod != "openai" {
		t.Fatalf("unexpected candidate meta: %+v", out.Candidate)
	}
	if out.Candidate.ID == "" || out.RequestID == "" {
		t.Fatalf("expected generated ids")
	}
	if !out.Summary.ReadyForMatching {
		t.Fatalf("expected summary to be ready for matching: %+v", out.Summary)
	}
}

func TestRunStopsAtFirstValid(t *testing.T) {
	first := &stubProvider{name: "gemini", raw: fullResume}
	second := &stubProvider{name: "openai", raw: fullResume}

	out, err := newOrchestrator(ai.KindResume, first, second).Run(context.Background(), ai.KindResume, resumeText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Provider != "gemini" || out.Confidence != 100 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if second.calls != 0 {
		t.Fatalf("expected second provider to be skipped, got %d calls", second.calls)
	}
}

func TestRunReturnsBestAttemptForReview(t *testing.T) {
	first := &stubProvider{name: "gemini", raw: `{"name":"","skills":["Go"]}`}
	second := &stubProvider{name: "openai", raw: namelessResume}
	third := &stubProvider{name: "anthropic", err: ai.NewError("anthropic", ai.Transient, errors.New("overloaded"))}

	out, err := newOrchestrator(ai.KindResume, first, second, third).ParseResume(context.Background(), resumeText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusNeedsReview || out.Provider != "openai" || out.Confidence != 60 {
		t.Fatalf("expected openai needs_review at 60, got %+v", out)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "manual review") {
		t.Fatalf("expected review warning, got %v", out.Warnings)
	}
	if out.Candidate.ParseStatus != records.StatusNeedsReview || out.Candidate.ParseAttempts != 3 {
		t.Fatalf("unexpected candidate meta: %+v", out.Candidate.ParseMeta)
	}
	if len(out.Failures) != 1 || out.Failures[0].Kind != string(ai.Transient) {
		t.Fatalf("expected one transient failure, got %+v", out.Failures)
	}
}

func TestRunAllProvidersFail(t *testing.T) {
	first := &stubProvider{name: "gemini", err: ai.NewError("gemini", ai.Quota, ai.ErrBudgetExceeded)}
	second := &stubProvider{name: "openai", raw: "not json at all"}

	_, err := newOrchestrator(ai.KindResume, first, second).ParseResume(context.Background(), resumeText)

	var failed *AllParsersFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected AllParsersFailedError, got %v", err)
	}
	if len(failed.Failures) != 2 || failed.Failures[0].Kind != string(ai.Quota) {
		t.Fatalf("unexpected failures: %+v", failed.Failures)
	}
	if len(failed.Guidance) == 0 || !strings.Contains(failed.Guidance[0], "scanned") {
		t.Fatalf("expected scanned document guidance, got %v", failed.Guidance)
	}
	if !strings.Contains(err.Error(), "gemini") || !strings.Contains(err.Error(), "openai") {
		t.Fatalf("expected providers in message, got %q", err.Error())
	}
}

func TestRunTooShortMakesNoCalls(t *testing.T) {
	provider := &stubProvider{name: "gemini", raw: fullResume}

	_, err := newOrchestrator(ai.KindResume, provider).ParseResume(context.Background(), "Jane Doe, Go")
	if !errors.Is(err, ai.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected zero provider calls, got %d", provider.calls)
	}
}

func TestRunTooShortFromProviderAborts(t *testing.T) {
	first := &stubProvider{name: "gemini", err: ai.ErrTooShort}
	second := &stubProvider{name: "openai", raw: fullResume}

	_, err := newOrchestrator(ai.KindResume, first, second).ParseResume(context.Background(), resumeText)
	if !errors.Is(err, ai.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if second.calls != 0 {
		t.Fatalf("expected chain to stop")
	}
}

func TestRunCanceledContext(t *testing.T) {
	provider := &stubProvider{name: "gemini", raw: fullResume}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newOrchestrator(ai.KindResume, provider).ParseResume(ctx, resumeText)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected zero provider calls, got %d", provider.calls)
	}
}

func TestRunRequiresProviders(t *testing.T) {
	o := New(Chains{}, nil, nil)
	if _, err := o.ParseResume(context.Background(), resumeText); err == nil {
		t.Fatalf("expected error for empty chain")
	}
	if _, err := o.Run(context.Background(), ai.KindDepth, resumeText); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

const jobText = `Backend Engineer
We are hiring a backend engineer to build payment services.
Requirements: Go, PostgreSQL, Kubernetes, 3+ years of experience.`

func TestAnalyzeJobNormalizes(t *testing.T) {
	provider := &stubProvider{name: "gemini", raw: `{"title":"Backend Engineer","required_skills":["Go","PostgreSQL","Kubernetes"],"min_experience":"3"}`}

	out, err := newOrchestrator(ai.KindJob, provider).AnalyzeJob(context.Background(), jobText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := out.Job
	if job == nil {
		t.Fatalf("expected job in outcome")
	}
	if job.MaxExperience == nil || *job.MaxExperience != 8 {
		t.Fatalf("expected max experience 8, got %v", job.MaxExperience)
	}
	if job.LocationType != records.LocationAny || job.SeniorityLevel != records.SeniorityMid {
		t.Fatalf("unexpected defaults: %+v", job)
	}
	if out.Status != StatusAccepted || out.Confidence != 100 {
		t.Fatalf("expected accepted job, got %+v", out)
	}
}

func TestAnalyzeJobWithoutTitleNeedsReview(t *testing.T) {
	provider := &stubProvider{name: "gemini", raw: `{"required_skills":["Go","PostgreSQL","Kubernetes"],"min_experience":3}`}

	out, err := newOrchestrator(ai.KindJob, provider).AnalyzeJob(context.Background(), jobText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusNeedsReview || out.Confidence != 60 {
		t.Fatalf("expected needs_review at 60, got %s at %d", out.Status, out.Confidence)
	}
	if out.Job.Title != records.DefaultJobTitle {
		t.Fatalf("expected placeholder title, got %q", out.Job.Title)
	}
	if len(out.Validation.Errors) == 0 {
		t.Fatalf("expected a title error, got none")
	}
}

func TestAnalyzeJobWithoutExperienceIsNotPenalized(t *testing.T) {
	provider := &stubProvider{name: "gemini", raw: `{"title":"Backend Engineer","required_skills":["Go","PostgreSQL","Kubernetes"]}`}

	out, err := newOrchestrator(ai.KindJob, provider).AnalyzeJob(context.Background(), jobText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusAccepted || out.Confidence != 100 {
		t.Fatalf("expected accepted job at 100, got %s at %d", out.Status, out.Confidence)
	}
	if out.Job.MinYears() != 0 || out.Job.SeniorityLevel != records.SeniorityIntern {
		t.Fatalf("unexpected experience defaults: %+v", out.Job)
	}
}

func TestRunLogsProviderFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	first := &stubProvider{name: "gemini", err: ai.NewError("gemini", ai.Rejected, errors.New("bad key"))}
	second := &stubProvider{name: "openai", raw: fullResume}

	o := New(Chains{ai.KindResume: {first, second}}, nil, zap.New(core))
	if _, err := o.ParseResume(context.Background(), resumeText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("provider failed, trying next").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["ai_provider"] != "gemini" || fields["entity_kind"] != "resume" {
		t.Fatalf("unexpected log fields: %v", fields)
	}
	if fields["request_id"] == "" {
		t.Fatalf("expected request id field")
	}
}
