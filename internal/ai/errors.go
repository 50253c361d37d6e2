package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies provider failures for the fallback loop.
type ErrorKind string

const (
	// Transient failures (timeouts, 5xx, short rate limits) are retried.
	Transient ErrorKind = "transient"
	// Schema failures mean the backend answered with something unusable.
	Schema ErrorKind = "schema"
	// Quota failures mean the provider or the local budget is exhausted.
	Quota ErrorKind = "quota"
	// Rejected failures are permanent request errors such as a bad key.
	Rejected ErrorKind = "rejected"
)

// ErrBudgetExceeded is wrapped into quota errors raised by local cost controls.
var ErrBudgetExceeded = errors.New("cost budget exceeded")

type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError builds a ProviderError.
func NewError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}

// IsTransient reports whether err is worth retrying against the same provider.
func IsTransient(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == Transient
}

// maxQuotaWait is the longest server-requested delay still treated as a
// transient rate limit.
const maxQuotaWait = 10 * time.Second

var retryDelayPattern = regexp.MustCompile(`(?i)(?:retry|try again)[^0-9]{0,20}(\d+(?:\.\d+)?)\s*(ms|s|sec|secs|seconds?)\b`)

// ParseRetryDelay finds a "retry after N seconds" hint in a provider message.
func ParseRetryDelay(msg string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(msg)
	if len(m) != 3 {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "ms") {
		return time.Duration(value * float64(time.Millisecond))
	}
	return time.Duration(value * float64(time.Second))
}

// Classify maps an HTTP status and message to an ErrorKind. Backends share
// it so the retry policy does not depend on which vendor answered.
func Classify(provider string, status int, msg string, err error) *ProviderError {
	perr := &ProviderError{Provider: provider, StatusCode: status, Err: err}
	if perr.Err == nil {
		perr.Err = errors.New(strings.TrimSpace(msg))
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		perr.Kind = Transient
	case errors.Is(err, context.Canceled):
		perr.Kind = Rejected
	case status == http.StatusTooManyRequests:
		delay := ParseRetryDelay(msg)
		lower := strings.ToLower(msg)
		if delay > maxQuotaWait || strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "billing") {
			perr.Kind = Quota
		} else {
			perr.Kind = Transient
			perr.RetryAfter = delay
		}
	case status == http.StatusRequestTimeout, status >= http.StatusInternalServerError:
		perr.Kind = Transient
	case status == http.StatusPaymentRequired:
		perr.Kind = Quota
	case status >= http.StatusBadRequest:
		perr.Kind = Rejected
	default:
		perr.Kind = Transient
	}

	return perr
}
