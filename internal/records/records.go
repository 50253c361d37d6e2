// Package records holds the canonical structured entities produced by parsing.
package records

import "strings"

// Status is the lifecycle state of a parsed record.
type Status string

const (
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusNeedsReview Status = "needs_review"
	StatusFailed      Status = "failed"
)

// ParseMeta is shared by every record that came out of the extraction pipeline.
type ParseMeta struct {
	ParseConfidence int    `json:"parse_confidence" yaml:"parse_confidence"`
	ParseMethod     string `json:"parse_method,omitempty" yaml:"parse_method,omitempty"`
	ParseStatus     Status `json:"parse_status" yaml:"parse_status"`
	ParseAttempts   int    `json:"parse_attempts" yaml:"parse_attempts"`
	Source          string `json:"source,omitempty" yaml:"source,omitempty"`
}

type Candidate struct {
	ID                string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name              string          `json:"name" yaml:"name"`
	Email             string          `json:"email,omitempty" yaml:"email,omitempty"`
	Phone             string          `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location          string          `json:"location,omitempty" yaml:"location,omitempty"`
	Title             string          `json:"title,omitempty" yaml:"title,omitempty"`
	Summary           string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	YearsOfExperience float64         `json:"years_of_experience" yaml:"years_of_experience"`
	Skills            []string        `json:"skills" yaml:"skills"`
	Experience        []Experience    `json:"experience" yaml:"experience"`
	Education         []Education     `json:"education" yaml:"education"`
	Certifications    []Certification `json:"certifications" yaml:"certifications"`
	Languages         []string        `json:"languages" yaml:"languages"`

	ParseMeta `json:",inline" yaml:",inline" mapstructure:",squash"`
}

type Experience struct {
	Title        string   `json:"title" yaml:"title"`
	Company      string   `json:"company" yaml:"company"`
	Location     string   `json:"location,omitempty" yaml:"location,omitempty"`
	StartDate    string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Duration     string   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty" yaml:"achievements,omitempty"`
	SkillsUsed   []string `json:"skills_used,omitempty" yaml:"skills_used,omitempty"`
}

type Education struct {
	Degree       string   `json:"degree" yaml:"degree"`
	FieldOfStudy string   `json:"field_of_study,omitempty" yaml:"field_of_study,omitempty"`
	Institution  string   `json:"institution" yaml:"institution"`
	Location     string   `json:"location,omitempty" yaml:"location,omitempty"`
	StartYear    string   `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	EndYear      string   `json:"end_year,omitempty" yaml:"end_year,omitempty"`
	GPA          string   `json:"gpa,omitempty" yaml:"gpa,omitempty"`
	Achievements []string `json:"achievements,omitempty" yaml:"achievements,omitempty"`
}

type Certification struct {
	Name          string `json:"name" yaml:"name"`
	Issuer        string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	IssueDate     string `json:"issue_date,omitempty" yaml:"issue_date,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty" yaml:"expiry_date,omitempty"`
	CredentialID  string `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	CredentialURL string `json:"credential_url,omitempty" yaml:"credential_url,omitempty"`
}

// DataPoints counts the list entries extracted from a resume.
func (c *Candidate) DataPoints() int {
	if c == nil {
		return 0
	}
	return len(c.Skills) + len(c.Experience) + len(c.Education) + len(c.Certifications)
}

// Location types.
const (
	LocationRemote = "remote"
	LocationHybrid = "hybrid"
	LocationOnsite = "onsite"
	LocationAny    = "any"
)

// Seniority levels.
const (
	SeniorityIntern    = "intern"
	SeniorityJunior    = "junior"
	SeniorityMid       = "mid"
	SenioritySenior    = "senior"
	SeniorityLead      = "lead"
	SeniorityExecutive = "executive"
)

// DefaultJobTitle is used when the analysis could not find a title.
const DefaultJobTitle = "Unknown Position"

type JobProfile struct {
	ID                   string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title                string   `json:"title" yaml:"title"`
	RequiredSkills       []string `json:"required_skills" yaml:"required_skills"`
	PreferredSkills      []string `json:"preferred_skills" yaml:"preferred_skills"`
	MinExperience        *int     `json:"min_experience,omitempty" yaml:"min_experience,omitempty"`
	MaxExperience        *int     `json:"max_experience,omitempty" yaml:"max_experience,omitempty"`
	EducationLevel       string   `json:"education_level,omitempty" yaml:"education_level,omitempty"`
	LocationType         string   `json:"location_type,omitempty" yaml:"location_type,omitempty"`
	Locations            []string `json:"locations,omitempty" yaml:"locations,omitempty"`
	SeniorityLevel       string   `json:"seniority_level,omitempty" yaml:"seniority_level,omitempty"`
	Industry             string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	KeyResponsibilities  []string `json:"key_responsibilities,omitempty" yaml:"key_responsibilities,omitempty"`
	MustHaveRequirements []string `json:"must_have_requirements,omitempty" yaml:"must_have_requirements,omitempty"`
	NiceToHave           []string `json:"nice_to_have,omitempty" yaml:"nice_to_have,omitempty"`
	DealBreakers         []string `json:"deal_breakers,omitempty" yaml:"deal_breakers,omitempty"`

	ParseMeta `json:",inline" yaml:",inline" mapstructure:",squash"`
}

// MinYears returns the minimum experience, treating a missing value as zero.
func (j *JobProfile) MinYears() int {
	if j == nil || j.MinExperience == nil {
		return 0
	}
	return *j.MinExperience
}

// Normalize fills the defaults a job profile needs downstream. A missing or
// negative minimum experience becomes zero and the max experience window
// defaults to five years above it. Location falls back to "any" and seniority
// is inferred from the minimum experience.
func (j *JobProfile) Normalize() {
	if j == nil {
		return
	}

	j.Title = strings.TrimSpace(j.Title)
	if j.Title == "" {
		j.Title = DefaultJobTitle
	}

	minYears := 0
	if j.MinExperience != nil && *j.MinExperience > 0 {
		minYears = *j.MinExperience
	}
	j.MinExperience = &minYears

	if j.MaxExperience == nil {
		maxYears := *j.MinExperience + 5
		j.MaxExperience = &maxYears
	}

	if strings.TrimSpace(j.LocationType) == "" {
		j.LocationType = LocationAny
	}
	j.LocationType = strings.ToLower(strings.TrimSpace(j.LocationType))

	if strings.TrimSpace(j.SeniorityLevel) == "" {
		j.SeniorityLevel = InferSeniority(j.MinYears())
	}
	j.SeniorityLevel = strings.ToLower(strings.TrimSpace(j.SeniorityLevel))
}

// InferSeniority maps a minimum years-of-experience requirement onto a level.
func InferSeniority(minYears int) string {
	switch {
	case minYears <= 0:
		return SeniorityIntern
	case minYears <= 2:
		return SeniorityJunior
	case minYears <= 5:
		return SeniorityMid
	case minYears <= 8:
		return SenioritySenior
	case minYears <= 12:
		return SeniorityLead
	default:
		return SeniorityExecutive
	}
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int { return &v }
