// Package matching scores candidates against job profiles. Scoring is pure and
// deterministic; filtering is left to callers.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/cv-screener/internal/records"
)

type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Tiers holds the minimum overall score for each tier above D.
type Tiers struct {
	A int `mapstructure:"a"`
	B int `mapstructure:"b"`
	C int `mapstructure:"c"`
}

func DefaultTiers() Tiers {
	return Tiers{A: 85, B: 70, C: 50}
}

const (
	experienceBonus      = 10
	noRequirementsScore  = 50
	neutralSubScore      = 50
	experienceMetScore   = 100
	experienceUnmetScore = 50
)

type Result struct {
	CandidateID     string   `json:"candidate_id,omitempty" yaml:"candidate_id,omitempty"`
	CandidateName   string   `json:"candidate_name" yaml:"candidate_name"`
	JobID           string   `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	JobTitle        string   `json:"job_title" yaml:"job_title"`
	OverallScore    int      `json:"overall_score" yaml:"overall_score"`
	Tier            Tier     `json:"tier" yaml:"tier"`
	SkillsScore     int      `json:"skills_score" yaml:"skills_score"`
	ExperienceScore int      `json:"experience_score" yaml:"experience_score"`
	EducationScore  int      `json:"education_score" yaml:"education_score"`
	LocationScore   int      `json:"location_score" yaml:"location_score"`
	MatchedSkills   []string `json:"matched_skills" yaml:"matched_skills"`
	MissingSkills   []string `json:"missing_skills" yaml:"missing_skills"`
	MeetsExperience bool     `json:"meets_experience" yaml:"meets_experience"`
	Explanation     string   `json:"explanation" yaml:"explanation"`
	// ParseConfidence is copied from the candidate so callers can filter on it.
	ParseConfidence int `json:"parse_confidence" yaml:"parse_confidence"`
}

type Engine struct {
	tiers Tiers
}

func New(tiers Tiers) *Engine {
	if tiers.A <= 0 && tiers.B <= 0 && tiers.C <= 0 {
		tiers = DefaultTiers()
	}
	return &Engine{tiers: tiers}
}

func (e *Engine) Tiers() Tiers { return e.tiers }

// TierFor maps an overall score onto a tier.
func (e *Engine) TierFor(score int) Tier {
	switch {
	case score >= e.tiers.A:
		return TierA
	case score >= e.tiers.B:
		return TierB
	case score >= e.tiers.C:
		return TierC
	default:
		return TierD
	}
}

// Score rates one candidate against one job.
func (e *Engine) Score(c *records.Candidate, j *records.JobProfile) Result {
	if c == nil {
		c = &records.Candidate{}
	}
	if j == nil {
		j = &records.JobProfile{}
	}

	candidateSkills := normalize(c.Skills)
	required := normalize(j.RequiredSkills)

	matched := make([]string, 0, len(candidateSkills))
	for _, skill := range candidateSkills {
		if matchesAny(skill, required) {
			matched = append(matched, skill)
		}
	}

	missing := make([]string, 0)
	for _, req := range required {
		if !matchesAny(req, candidateSkills) {
			missing = append(missing, req)
		}
	}

	base := noRequirementsScore
	if len(required) > 0 {
		base = int(math.Round(float64(len(matched)) / float64(len(required)) * 100))
	}

	meets := c.YearsOfExperience >= float64(j.MinYears())
	bonus := 0
	experienceScore := experienceUnmetScore
	if meets {
		bonus = experienceBonus
		experienceScore = experienceMetScore
	}

	overall := min(100, base+bonus)

	explanation := fmt.Sprintf("Matched %d of %d required skills. ", len(matched), len(required))
	if meets {
		explanation += "Meets experience requirements."
	} else {
		explanation += "May need more experience."
	}

	return Result{
		CandidateID:     c.ID,
		CandidateName:   c.Name,
		JobID:           j.ID,
		JobTitle:        j.Title,
		OverallScore:    overall,
		Tier:            e.TierFor(overall),
		SkillsScore:     min(100, base),
		ExperienceScore: experienceScore,
		EducationScore:  neutralSubScore,
		LocationScore:   neutralSubScore,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		MeetsExperience: meets,
		Explanation:     explanation,
		ParseConfidence: c.ParseConfidence,
	}
}

// ScoreAll scores every candidate and ranks the results. Nothing is dropped.
func (e *Engine) ScoreAll(candidates []*records.Candidate, j *records.JobProfile) []Result {
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, e.Score(c, j))
	}
	return Rank(results)
}

// Rank returns a copy sorted by overall score, highest first. Ties keep input order.
func Rank(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].OverallScore > ranked[b].OverallScore
	})
	return ranked
}

// matchesAny reports a bidirectional substring match, so "c" matches "c++".
func matchesAny(skill string, against []string) bool {
	for _, other := range against {
		if strings.Contains(skill, other) || strings.Contains(other, skill) {
			return true
		}
	}
	return false
}

func normalize(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
