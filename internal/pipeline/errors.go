package pipeline

import (
	"fmt"
	"strings"

	"github.com/spigell/cv-screener/internal/ai"
)

// ScannedDocumentGuidance is attached to AllParsersFailedError for users.
var ScannedDocumentGuidance = []string{
	"the text appears to be scanned or image-based; upload a text-based PDF or DOCX",
	"check that the document is not password protected or corrupted",
	"try exporting the document again from the original editor",
}

// Failure records why one provider did not produce a usable record.
type Failure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// AllParsersFailedError is returned when no provider produced a decodable record.
type AllParsersFailedError struct {
	Entity   ai.Kind
	Failures []Failure
	Guidance []string
}

func (e *AllParsersFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Provider, f.Error))
	}
	msg := fmt.Sprintf("all providers failed to parse %s", e.Entity)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}
