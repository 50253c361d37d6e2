// Package authenticity estimates how likely a resume is genuine.
package authenticity

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Risk string

const (
	RiskLow      Risk = "LOW"
	RiskMedium   Risk = "MEDIUM"
	RiskHigh     Risk = "HIGH"
	RiskCritical Risk = "CRITICAL"
)

// Flag names.
const (
	FlagGenericLanguage    = "Generic AI Language"
	FlagKeywordMatch       = "Suspiciously High Keyword Match"
	FlagTimeline           = "Timeline Inconsistency"
	FlagExperienceMismatch = "Experience Mismatch"
	FlagShallow            = "Lacks Technical Depth"
	FlagNoMetrics          = "No Quantifiable Results"
	FlagSuspiciousPattern  = "Suspicious Pattern"
	FlagDisposableEmail    = "Disposable Email"
	FlagNoFootprint        = "No Digital Footprint"
)

type RedFlag struct {
	Flag        string   `json:"flag" yaml:"flag"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Explanation string   `json:"explanation" yaml:"explanation"`
}

type Recommendation struct {
	Action   string   `json:"action" yaml:"action"`
	Priority Severity `json:"priority" yaml:"priority"`
}

type Signals struct {
	AIGeneratedProbability float64  `json:"ai_generated_probability" yaml:"ai_generated_probability"`
	OverOptimization       float64  `json:"over_optimization" yaml:"over_optimization"`
	GenericLanguage        float64  `json:"generic_language" yaml:"generic_language"`
	Inconsistencies        float64  `json:"inconsistencies" yaml:"inconsistencies"`
	VerificationIssues     []string `json:"verification_issues" yaml:"verification_issues"`
}

type Report struct {
	OverallScore          int              `json:"overall_score" yaml:"overall_score"`
	RiskLevel             Risk             `json:"risk_level" yaml:"risk_level"`
	Signals               Signals          `json:"signals" yaml:"signals"`
	RedFlags              []RedFlag        `json:"red_flags" yaml:"red_flags"`
	GreenFlags            []string         `json:"green_flags" yaml:"green_flags"`
	Recommendations       []Recommendation `json:"recommendations" yaml:"recommendations"`
	VerificationQuestions []string         `json:"verification_questions" yaml:"verification_questions"`
	// DepthAnalyzed is false when the auxiliary depth call was skipped or failed.
	DepthAnalyzed bool `json:"depth_analyzed" yaml:"depth_analyzed"`
}

// HasFlag reports whether the report carries a red flag with that name.
func (r *Report) HasFlag(name string) bool {
	for _, f := range r.RedFlags {
		if f.Flag == name {
			return true
		}
	}
	return false
}

// QuickResult is the condensed form shown in listings.
type QuickResult struct {
	Score     int      `json:"score" yaml:"score"`
	RiskLevel Risk     `json:"risk_level" yaml:"risk_level"`
	TopIssues []string `json:"top_issues" yaml:"top_issues"`
}

// Weights control how findings move the overall score.
type Weights struct {
	High             float64 `mapstructure:"high"`
	Medium           float64 `mapstructure:"medium"`
	Low              float64 `mapstructure:"low"`
	AIGenerated      float64 `mapstructure:"ai-generated"`
	OverOptimization float64 `mapstructure:"over-optimization"`
	GenericLanguage  float64 `mapstructure:"generic-language"`
	Inconsistencies  float64 `mapstructure:"inconsistencies"`
	GreenFlag        float64 `mapstructure:"green-flag"`
}

// Thresholds are the minimum scores for LOW, MEDIUM and HIGH risk.
type Thresholds struct {
	Low    int `mapstructure:"low"`
	Medium int `mapstructure:"medium"`
	High   int `mapstructure:"high"`
}

type Config struct {
	Weights    Weights    `mapstructure:"weights"`
	Thresholds Thresholds `mapstructure:"thresholds"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			High:             20,
			Medium:           10,
			Low:              5,
			AIGenerated:      0.3,
			OverOptimization: 0.2,
			GenericLanguage:  0.2,
			Inconsistencies:  0.3,
			GreenFlag:        5,
		},
		Thresholds: Thresholds{Low: 75, Medium: 50, High: 25},
	}
}

// RiskFor maps a score onto a risk level.
func (t Thresholds) RiskFor(score int) Risk {
	switch {
	case score >= t.Low:
		return RiskLow
	case score >= t.Medium:
		return RiskMedium
	case score >= t.High:
		return RiskHigh
	default:
		return RiskCritical
	}
}
