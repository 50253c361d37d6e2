package validation

import (
	"fmt"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/records"
)

var defaultValidator = New(DefaultThresholds())

// Resume validates with the default thresholds.
func Resume(source string, c *records.Candidate) Result {
	return defaultValidator.Resume(source, c)
}

// Job validates with the default thresholds.
func Job(source string, j *records.JobProfile) Result {
	return defaultValidator.Job(source, j)
}

// Raw decodes model output of the given kind and validates it.
func Raw(kind ai.Kind, source, raw string) (Result, error) {
	return defaultValidator.Raw(kind, source, raw)
}

func (v *Validator) Raw(kind ai.Kind, source, raw string) (Result, error) {
	raw = ai.ExtractJSON(raw)
	switch kind {
	case ai.KindResume:
		c, err := records.DecodeCandidate(raw)
		if err != nil {
			return Result{}, err
		}
		return v.Resume(source, c), nil
	case ai.KindJob:
		j, err := records.DecodeJob(raw)
		if err != nil {
			return Result{}, err
		}
		j.Normalize()
		return v.Job(source, j), nil
	default:
		return Result{}, fmt.Errorf("validation: unsupported kind %q", kind)
	}
}
