package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const validResumeJSON = `{"name":"Jane Doe","skills":["Go","SQL","Kubernetes"]}`

var longResume = strings.Repeat("Jane Doe, senior Go engineer. ", 5)

type scriptedBackend struct {
	calls   int
	results []scriptedResult
}

type scriptedResult struct {
	completion *Completion
	err        error
}

func (s *scriptedBackend) complete(_ context.Context, _ Prompt) (*Completion, error) {
	s.calls++
	if len(s.results) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res.completion, res.err
}

func newTestCaller(settings Settings, budget *Budget) *Caller {
	if settings.Name == "" {
		settings.Name = "stub"
	}
	c := NewCaller(settings, budget, zap.NewNop())
	c.backoff = 0
	return c
}

func transientErr() error {
	return Classify("stub", http.StatusInternalServerError, "internal", nil)
}

func TestCallRejectsShortTextWithoutCalling(t *testing.T) {
	backend := &scriptedBackend{}
	c := newTestCaller(Settings{}, nil)

	tests := []Request{
		{Kind: KindResume, Text: strings.Repeat("x", 40)},
		{Kind: KindJob, Text: strings.Repeat("x", 99)},
	}

	for _, req := range tests {
		_, err := c.Call(context.Background(), req, backend.complete)
		if !errors.Is(err, ErrTooShort) {
			t.Fatalf("%s: expected ErrTooShort, got %v", req.Kind, err)
		}
		if !strings.Contains(err.Error(), "too short") {
			t.Fatalf("expected message to mention too short, got %q", err.Error())
		}
	}

	if backend.calls != 0 {
		t.Fatalf("expected zero provider calls, got %d", backend.calls)
	}
}

func TestCallRetriesTransientErrors(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{
		{err: transientErr()},
		{completion: &Completion{Text: "```json\n" + validResumeJSON + "\n```", InputTokens: 1000, OutputTokens: 1000}},
	}}
	c := newTestCaller(Settings{Model: "m", MaxRetries: 2, Pricing: Pricing{InputPer1K: 0.01, OutputPer1K: 0.03}}, nil)

	attempt, err := c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if backend.calls != 2 || attempt.Retries != 1 {
		t.Fatalf("expected 2 calls and 1 retry, got %d calls, %d retries", backend.calls, attempt.Retries)
	}
	if attempt.Raw != validResumeJSON {
		t.Fatalf("expected fences stripped, got %q", attempt.Raw)
	}
	if attempt.Cost < 0.0399 || attempt.Cost > 0.0401 {
		t.Fatalf("expected cost 0.04, got %f", attempt.Cost)
	}
	if attempt.Provider != "stub" || attempt.Model != "m" {
		t.Fatalf("unexpected attempt identity: %+v", attempt)
	}
}

func TestCallStopsAfterMaxRetries(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{
		{err: transientErr()}, {err: transientErr()}, {err: transientErr()}, {err: transientErr()},
	}}
	c := newTestCaller(Settings{MaxRetries: 5}, nil)

	_, err := c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if backend.calls != 1+MaxRetries {
		t.Fatalf("expected %d calls, got %d", 1+MaxRetries, backend.calls)
	}
}

func TestCallDoesNotRetryQuotaOrRejected(t *testing.T) {
	for _, kind := range []ErrorKind{Quota, Rejected} {
		backend := &scriptedBackend{results: []scriptedResult{{err: NewError("stub", kind, errors.New("nope"))}}}
		c := newTestCaller(Settings{MaxRetries: 2}, nil)

		_, err := c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
		if got, _ := KindOf(err); got != kind {
			t.Fatalf("expected %s error, got %v", kind, err)
		}
		if backend.calls != 1 {
			t.Fatalf("%s: expected a single call, got %d", kind, backend.calls)
		}
	}
}

func TestCallReportsSchemaErrors(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{
		{completion: &Completion{Text: "I could not find a resume in this text."}},
	}}
	c := newTestCaller(Settings{MaxRetries: 2}, nil)

	_, err := c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
	if kind, _ := KindOf(err); kind != Schema {
		t.Fatalf("expected schema error, got %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("schema errors must not be retried, got %d calls", backend.calls)
	}
}

func TestCallEnforcesCostLimits(t *testing.T) {
	backend := &scriptedBackend{}
	c := newTestCaller(Settings{MaxCostPerCall: 0.0001, MaxOutputTokens: 4096, Pricing: Pricing{InputPer1K: 0.01, OutputPer1K: 0.03}}, nil)

	_, err := c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
	if kind, _ := KindOf(err); kind != Quota || !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected quota budget error, got %v", err)
	}

	budget := NewBudget(1)
	budget.Add(1)
	c = newTestCaller(Settings{Pricing: Pricing{InputPer1K: 0.01}}, budget)
	_, err = c.Call(context.Background(), Request{Kind: KindResume, Text: longResume}, backend.complete)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected daily budget error, got %v", err)
	}

	if backend.calls != 0 {
		t.Fatalf("expected no calls when over budget, got %d", backend.calls)
	}
}

func TestNewCallerClampsPolicy(t *testing.T) {
	c := NewCaller(Settings{Timeout: time.Minute, MaxRetries: 7}, nil, nil)
	if c.Settings().Timeout != MaxTimeout {
		t.Fatalf("expected timeout clamped to %s, got %s", MaxTimeout, c.Settings().Timeout)
	}
	if c.Settings().MaxRetries != MaxRetries {
		t.Fatalf("expected retries clamped to %d, got %d", MaxRetries, c.Settings().MaxRetries)
	}
}
