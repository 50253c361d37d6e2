package validation

import (
	"fmt"
	"strings"
)

// Quality buckets a confidence score for people.
type Quality string

const (
	QualityExcellent  Quality = "excellent"
	QualityGood       Quality = "good"
	QualityAcceptable Quality = "acceptable"
	QualityPoor       Quality = "poor"
)

func QualityOf(confidence int) Quality {
	switch {
	case confidence >= 90:
		return QualityExcellent
	case confidence >= 75:
		return QualityGood
	case confidence >= 60:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

type Summary struct {
	ParseQuality     Quality `json:"parse_quality"`
	ReadyForMatching bool    `json:"ready_for_matching"`
	RequiresReview   bool    `json:"requires_review"`
	UserMessage      string  `json:"user_message"`
	Details          Result  `json:"technical_details"`
}

const (
	readyForMatchingFloor = 70
	reviewFloor           = 75
)

// Summarize turns a Result into the user facing summary. kind is "resume" or "job".
func Summarize(res Result, kind string) Summary {
	return Summary{
		ParseQuality:     QualityOf(res.Confidence),
		ReadyForMatching: res.Valid && res.Confidence >= readyForMatchingFloor,
		RequiresReview:   !res.Valid || res.Confidence < reviewFloor,
		UserMessage:      Feedback(res, kind),
		Details:          res,
	}
}

// Feedback renders a short plain-text report of the validation outcome.
func Feedback(res Result, kind string) string {
	subject := "resume"
	if kind == "job" {
		subject = "job description"
	}

	var b strings.Builder
	switch QualityOf(res.Confidence) {
	case QualityExcellent:
		fmt.Fprintf(&b, "Excellent quality (%d%% confidence)\n\nThe %s was understood with high accuracy.\n\n", res.Confidence, subject)
	case QualityGood:
		fmt.Fprintf(&b, "Good quality (%d%% confidence)\n\nMost information was extracted correctly, with minor issues.\n\n", res.Confidence)
	case QualityAcceptable:
		fmt.Fprintf(&b, "Acceptable quality (%d%% confidence)\n\nExtraction had some difficulty. Review recommended.\n\n", res.Confidence)
	default:
		fmt.Fprintf(&b, "Poor quality (%d%% confidence)\n\nThe %s could not be extracted reliably. Action required.\n\n", res.Confidence, subject)
	}

	if len(res.Errors) > 0 {
		b.WriteString("Issues found:\n")
		for _, e := range res.Errors {
			b.WriteString("- " + e + "\n")
		}
		b.WriteString("\n")
	}

	if len(res.Warnings) > 0 && res.Confidence >= 60 {
		b.WriteString("Minor issues:\n")
		warnings := res.Warnings
		if len(warnings) > 3 {
			warnings = warnings[:3]
		}
		for _, w := range warnings {
			b.WriteString("- " + w + "\n")
		}
		b.WriteString("\n")
	}

	if len(res.Suggestions) > 0 {
		b.WriteString("Suggestions:\n")
		for _, s := range res.Suggestions {
			b.WriteString("- " + s + "\n")
		}
	}

	return strings.TrimSpace(b.String())
}
