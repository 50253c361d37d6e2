package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/cv-screener/internal/records"
)

const maxReasonableMinExperience = 30

// Job validates a job analysis against the description it came from.
func (v *Validator) Job(source string, j *records.JobProfile) Result {
	t := newTally()
	if j == nil {
		j = &records.JobProfile{}
	}

	title := strings.TrimSpace(j.Title)
	switch {
	case utf8.RuneCountInString(title) < 3:
		t.fail(40, "no job title extracted")
	case strings.Contains(strings.ToLower(title), "unknown"):
		// Normalize fills a missing title with a placeholder.
		t.fail(40, "job title is a placeholder")
	}

	if len(j.RequiredSkills) < 3 {
		t.fail(30, "too few required skills extracted (minimum 3)")
		t.suggest(`add a clear "Requirements" or "Qualifications" section`)
	} else if float64(verified(source, j.RequiredSkills)) < float64(len(j.RequiredSkills))*0.7 {
		t.warn(15, "some extracted skills are not clearly stated in the job description")
	}

	switch {
	case j.MinExperience == nil || *j.MinExperience < 0:
		t.warn(10, "no minimum experience requirement found")
	case *j.MinExperience > maxReasonableMinExperience:
		t.fail(20, fmt.Sprintf("unrealistic experience requirement (%d years)", *j.MinExperience))
	}

	if strings.TrimSpace(j.LocationType) == "" {
		t.warn(5, "location type not specified (remote/hybrid/onsite)")
	}

	if strings.TrimSpace(j.SeniorityLevel) == "" {
		t.warn(5, "seniority level not determined")
	}

	if utf8.RuneCountInString(source) < minSourceLength {
		t.fail(30, fmt.Sprintf("job description too short (< %d characters)", minSourceLength))
	}

	res := t.result(v.thresholds.Job)
	if !res.Valid {
		res.Suggestions = append(res.Suggestions,
			"include clear sections: Requirements, Responsibilities, Qualifications",
			`list specific technical skills (e.g. "Python", "AWS"), not just "coding"`,
		)
	}
	return res
}
