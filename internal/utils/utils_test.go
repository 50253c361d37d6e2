package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "senior go engineer",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "resume",
			limit:  10,
			expect: "resume",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "Jane Doe, Berlin",
			limit:  8,
			expect: "Jane Doe...",
		},
		{
			name:   "counts runes not bytes",
			input:  "Müller Jürgen",
			limit:  6,
			expect: "Müller...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("expected untouched string for zero limit, got %q", got)
	}
	if got := Truncate("ab", 5); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Worked with PostgreSQL daily", "postgresql") {
		t.Fatal("expected case-insensitive match")
	}
	if ContainsFold("Go", "golang") {
		t.Fatal("did not expect match")
	}
}

func TestWaitForHonoursContext(t *testing.T) {
	original := sleep
	release := make(chan struct{})
	sleep = func(time.Duration) { <-release }
	defer func() {
		close(release)
		sleep = original
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForZeroDuration(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
