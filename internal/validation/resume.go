package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/cv-screener/internal/records"
)

const minSourceLength = 100

// Resume validates a parsed candidate against the resume text it came from.
func (v *Validator) Resume(source string, c *records.Candidate) Result {
	t := newTally()
	if c == nil {
		c = &records.Candidate{}
	}

	name := strings.TrimSpace(c.Name)
	switch {
	case utf8.RuneCountInString(name) < 2:
		t.fail(40, "no name extracted")
	default:
		if strings.Contains(strings.ToLower(name), "unknown") {
			t.fail(30, `name is a placeholder ("Unknown")`)
		}
		if !strings.ContainsAny(name, " \t") {
			t.warn(10, "name might be incomplete (missing last name?)")
		}
		if !strings.Contains(strings.ToLower(source), strings.ToLower(name)) {
			t.fail(25, "extracted name not found in resume text")
		}
	}

	if len(c.Skills) < 3 {
		t.fail(30, "insufficient skills extracted (minimum 3 required)")
	} else {
		var suspicious []string
		for _, skill := range c.Skills {
			n := utf8.RuneCountInString(skill)
			if n < 2 || n > 50 || !skillPattern.MatchString(skill) {
				suspicious = append(suspicious, skill)
			}
		}
		if len(suspicious) > 0 {
			if len(suspicious) > 3 {
				suspicious = suspicious[:3]
			}
			t.warn(10, "suspicious skills detected: "+strings.Join(suspicious, ", "))
		}

		found := verified(source, c.Skills)
		if float64(found) < float64(len(c.Skills))*0.5 {
			t.warn(15, fmt.Sprintf("only %d/%d skills verified in text", found, len(c.Skills)))
		}
	}

	if len(c.Experience) == 0 {
		t.warn(15, "no work experience extracted")
	}
	for i, exp := range c.Experience {
		if utf8.RuneCountInString(strings.TrimSpace(exp.Title)) < 2 {
			t.warn(5, fmt.Sprintf("experience #%d: missing job title", i+1))
		}
		if utf8.RuneCountInString(strings.TrimSpace(exp.Company)) < 2 {
			t.warn(5, fmt.Sprintf("experience #%d: missing company name", i+1))
		}
		if strings.TrimSpace(exp.StartDate) == "" {
			t.warn(3, fmt.Sprintf("experience #%d: missing start date", i+1))
		}
	}

	email := strings.TrimSpace(c.Email)
	if email == "" && strings.TrimSpace(c.Phone) == "" {
		t.warn(10, "no contact information extracted (email or phone)")
		t.suggest("ask the candidate to add contact details to the resume")
	}
	if email != "" && !emailPattern.MatchString(email) {
		t.fail(15, "invalid email format extracted")
	}

	if len(c.Education) == 0 {
		t.warn(10, "no education extracted")
	}

	if c.YearsOfExperience < 0 || c.YearsOfExperience > 50 {
		t.fail(20, fmt.Sprintf("invalid years of experience (%g)", c.YearsOfExperience))
	}

	if utf8.RuneCountInString(source) < minSourceLength {
		t.fail(30, fmt.Sprintf("resume text too short (< %d characters)", minSourceLength))
	}

	if c.DataPoints() < 5 {
		t.warn(15, "very little data extracted, the resume may be poorly formatted")
		t.suggest("try uploading the resume in a different format (PDF or DOCX)")
	}

	res := t.result(v.thresholds.Resume)
	if !res.Valid {
		if t.hasErrorAbout("name") {
			res.Suggestions = append(res.Suggestions, "make sure the resume has a clear name at the top")
		}
		if t.hasErrorAbout("skills") {
			res.Suggestions = append(res.Suggestions, `add a "Skills" section listing concrete technical abilities`)
		}
		if res.Confidence < 60 {
			res.Suggestions = append(res.Suggestions,
				"re-export the resume as a clean PDF from a word processor",
				"remove images, complex formatting and tables",
			)
		}
	}
	return res
}
