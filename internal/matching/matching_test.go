package matching

import (
	"reflect"
	"testing"

	"github.com/spigell/cv-screener/internal/records"
)

func job(minYears *int, skills ...string) *records.JobProfile {
	return &records.JobProfile{Title: "Backend Engineer", RequiredSkills: skills, MinExperience: minYears}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		candidate   *records.Candidate
		job         *records.JobProfile
		overall     int
		tier        Tier
		missing     []string
		explanation string
	}{
		{
			name:        "two of three with experience",
			candidate:   &records.Candidate{Name: "Jane", Skills: []string{"Go", "PostgreSQL"}, YearsOfExperience: 5},
			job:         job(records.IntPtr(3), "go", "postgresql", "kubernetes"),
			overall:     77,
			tier:        TierB,
			missing:     []string{"kubernetes"},
			explanation: "Matched 2 of 3 required skills. Meets experience requirements.",
		},
		{
			name:        "full match without experience",
			candidate:   &records.Candidate{Skills: []string{"go", "kubernetes"}, YearsOfExperience: 1},
			job:         job(records.IntPtr(3), "Go", "Kubernetes"),
			overall:     100,
			tier:        TierA,
			missing:     []string{},
			explanation: "Matched 2 of 2 required skills. May need more experience.",
		},
		{
			name:        "full match capped at 100",
			candidate:   &records.Candidate{Skills: []string{"go", "kubernetes"}, YearsOfExperience: 8},
			job:         job(records.IntPtr(3), "go", "kubernetes"),
			overall:     100,
			tier:        TierA,
			missing:     []string{},
			explanation: "Matched 2 of 2 required skills. Meets experience requirements.",
		},
		{
			name:        "no required skills",
			candidate:   &records.Candidate{Skills: []string{"go"}},
			job:         job(nil),
			overall:     60,
			tier:        TierC,
			missing:     []string{},
			explanation: "Matched 0 of 0 required skills. Meets experience requirements.",
		},
		{
			name:        "nothing matches",
			candidate:   &records.Candidate{Skills: []string{"java"}, YearsOfExperience: 1},
			job:         job(records.IntPtr(5), "go", "rust"),
			overall:     0,
			tier:        TierD,
			missing:     []string{"go", "rust"},
			explanation: "Matched 0 of 2 required skills. May need more experience.",
		},
		{
			name:        "substring match both ways",
			candidate:   &records.Candidate{Skills: []string{"C", "React.js"}, YearsOfExperience: 2},
			job:         job(records.IntPtr(2), "C++", "React"),
			overall:     100,
			tier:        TierA,
			missing:     []string{},
			explanation: "Matched 2 of 2 required skills. Meets experience requirements.",
		},
	}

	engine := New(DefaultTiers())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Score(tt.candidate, tt.job)
			if got.OverallScore != tt.overall || got.Tier != tt.tier {
				t.Fatalf("expected %d/%s, got %d/%s", tt.overall, tt.tier, got.OverallScore, got.Tier)
			}
			if !reflect.DeepEqual(got.MissingSkills, tt.missing) {
				t.Fatalf("expected missing %v, got %v", tt.missing, got.MissingSkills)
			}
			if got.Explanation != tt.explanation {
				t.Fatalf("unexpected explanation %q", got.Explanation)
			}
		})
	}
}

func TestScoreSubScores(t *testing.T) {
	engine := New(DefaultTiers())

	met := engine.Score(&records.Candidate{Skills: []string{"go"}, YearsOfExperience: 4}, job(records.IntPtr(3), "go", "sql"))
	if met.SkillsScore != 50 || met.ExperienceScore != 100 || met.EducationScore != 50 || met.LocationScore != 50 {
		t.Fatalf("unexpected sub-scores: %+v", met)
	}

	unmet := engine.Score(&records.Candidate{Skills: []string{"go"}, YearsOfExperience: 2.5}, job(records.IntPtr(3), "go"))
	if unmet.ExperienceScore != 50 || unmet.MeetsExperience {
		t.Fatalf("unexpected experience result: %+v", unmet)
	}
}

func TestScoreIsCaseInsensitiveAndDeterministic(t *testing.T) {
	engine := New(DefaultTiers())
	lower := engine.Score(&records.Candidate{Skills: []string{"python", "aws"}}, job(nil, "python", "aws", "docker"))
	upper := engine.Score(&records.Candidate{Skills: []string{"PYTHON", "Aws"}}, job(nil, "Python", "AWS", "DOCKER"))

	if lower.OverallScore != upper.OverallScore || !reflect.DeepEqual(lower.MissingSkills, upper.MissingSkills) {
		t.Fatalf("expected case-insensitive scores, got %+v and %+v", lower, upper)
	}

	again := engine.Score(&records.Candidate{Skills: []string{"python", "aws"}}, job(nil, "python", "aws", "docker"))
	if !reflect.DeepEqual(lower, again) {
		t.Fatalf("expected identical results for identical input")
	}
}

func TestTierBoundaries(t *testing.T) {
	engine := New(DefaultTiers())
	tests := map[int]Tier{100: TierA, 85: TierA, 84: TierB, 70: TierB, 69: TierC, 50: TierC, 49: TierD, 0: TierD}
	for score, want := range tests {
		if got := engine.TierFor(score); got != want {
			t.Fatalf("score %d: expected %s, got %s", score, want, got)
		}
	}

	custom := New(Tiers{A: 90, B: 80, C: 60})
	if got := custom.TierFor(85); got != TierB {
		t.Fatalf("expected custom tiers to apply, got %s", got)
	}
}

func TestRankStable(t *testing.T) {
	results := []Result{
		{CandidateName: "a", OverallScore: 60},
		{CandidateName: "b", OverallScore: 90},
		{CandidateName: "c", OverallScore: 60},
		{CandidateName: "d", OverallScore: 75},
	}

	ranked := Rank(results)
	var names []string
	for _, r := range ranked {
		names = append(names, r.CandidateName)
	}
	if !reflect.DeepEqual(names, []string{"b", "d", "a", "c"}) {
		t.Fatalf("unexpected order: %v", names)
	}
	if results[0].CandidateName != "a" {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestScoreAllKeepsEveryCandidate(t *testing.T) {
	engine := New(DefaultTiers())
	candidates := []*records.Candidate{
		{Name: "low", Skills: []string{"php"}},
		{Name: "high", Skills: []string{"go", "sql"}, YearsOfExperience: 5},
	}

	results := engine.ScoreAll(candidates, job(records.IntPtr(2), "go", "sql"))
	if len(results) != 2 || results[0].CandidateName != "high" || results[1].CandidateName != "low" {
		t.Fatalf("unexpected results: %+v", results)
	}
}
