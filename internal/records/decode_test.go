package records

import "testing"

func TestDecodeCandidateWeakTypes(t *testing.T) {
	raw := `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"years_of_experience": "7",
		"skills": ["Go", "Kubernetes"],
		"experience": [{"title": "SRE", "company": "Acme", "start_date": "2019-01"}],
		"education": [{"degree": "BSc", "institution": "MIT", "end_year": 2015}],
		"unexpected": true
	}`

	c, err := DecodeCandidate(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Jane Doe" || c.YearsOfExperience != 7 {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if len(c.Experience) != 1 || c.Experience[0].Company != "Acme" {
		t.Fatalf("unexpected experience: %+v", c.Experience)
	}
	if c.Education[0].EndYear != "2015" {
		t.Fatalf("expected numeric year to be coerced, got %q", c.Education[0].EndYear)
	}
}

func TestDecodeJobOptionalExperience(t *testing.T) {
	j, err := DecodeJob(`{"title": "Backend Engineer", "required_skills": ["go"], "min_experience": 3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.MinExperience == nil || *j.MinExperience != 3 {
		t.Fatalf("expected min experience 3, got %v", j.MinExperience)
	}
	if j.MaxExperience != nil {
		t.Fatalf("expected max experience to stay unset, got %v", *j.MaxExperience)
	}

	j, err = DecodeJob(`{"title": "Backend Engineer", "required_skills": ["go"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.MinExperience != nil {
		t.Fatalf("expected missing min experience, got %d", *j.MinExperience)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{"", "[]", "null", "not json"} {
		if _, err := DecodeCandidate(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
