package records

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeCandidate turns cleaned model output into a Candidate. Model output is
// loosely typed ("5" for 5, 3 for "3"), so decoding is weak.
func DecodeCandidate(raw string) (*Candidate, error) {
	var c Candidate
	if err := decode(raw, &c); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	return &c, nil
}

// DecodeJob turns cleaned model output into a JobProfile.
func DecodeJob(raw string) (*JobProfile, error) {
	var j JobProfile
	if err := decode(raw, &j); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &j, nil
}

func decode(raw string, out any) error {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("not a JSON object")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}
