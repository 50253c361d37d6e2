package authenticity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/records"
)

const maxQuickIssues = 3

var genericPhrases = []string{
	"results-driven professional",
	"proven track record",
	"extensive experience in",
	"strong communication skills",
	"team player",
	"detail-oriented",
	"self-motivated",
	"fast-paced environment",
	"exceeded expectations",
	"spearheaded initiatives",
	"synergy",
	"leverage",
	"stakeholders",
	"proactive approach",
}

var disposableDomains = []string{"tempmail", "guerrillamail", "mailinator", "10minutemail"}

var (
	keywordQuestions = []string{
		"Can you describe a specific project where you used these technologies together?",
		"What challenges did you face when working with [specific skill]?",
		"How did you learn [recently added skill]?",
	}
	depthQuestions = []string{
		"Walk me through the architecture of your most complex project",
		"What specific challenges did you solve that required [claimed skill]?",
		"Explain a technical decision you made and why",
	}
)

// Analyzer runs the authenticity heuristics. depth may be nil, in which case
// the technical depth signal stays neutral.
type Analyzer struct {
	depth  ai.Provider
	config Config
	logger *zap.Logger
	now    func() time.Time
}

func New(depth ai.Provider, cfg Config, log *zap.Logger) *Analyzer {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultConfig().Thresholds
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultConfig().Weights
	}
	return &Analyzer{
		depth:  depth,
		config: cfg,
		logger: logger.WithFields(log, zap.String("component", "authenticity")),
		now:    time.Now,
	}
}

// report accumulates findings while signals run.
type report struct {
	Report
	hasLinkedIn bool
}

func (r *report) flag(name string, severity Severity, explanation string) {
	r.RedFlags = append(r.RedFlags, RedFlag{Flag: name, Severity: severity, Explanation: explanation})
}

func (r *report) green(msg string) {
	r.GreenFlags = append(r.GreenFlags, msg)
}

func (r *report) issue(msg string) {
	r.Signals.VerificationIssues = append(r.Signals.VerificationIssues, msg)
}

// Analyze scores source and the candidate parsed from it. jobText is optional.
func (a *Analyzer) Analyze(ctx context.Context, source string, c *records.Candidate, jobText string) *Report {
	if c == nil {
		c = &records.Candidate{}
	}

	r := &report{Report: Report{
		RedFlags:              []RedFlag{},
		GreenFlags:            []string{},
		VerificationQuestions: []string{},
		Signals:               Signals{VerificationIssues: []string{}},
	}}
	lower := strings.ToLower(source)

	a.genericLanguage(r, lower)
	a.overOptimization(r, lower, c, jobText)
	a.timeline(r, c)
	a.technicalDepth(ctx, r, source, c)
	a.contact(r, c)
	a.footprint(r, lower)

	a.score(r)
	a.recommend(r)

	a.logger.Info("authenticity analysis complete",
		zap.Int("score", r.OverallScore),
		zap.String("risk", string(r.RiskLevel)),
		zap.Int("red_flags", len(r.RedFlags)),
		zap.Bool("depth_analyzed", r.DepthAnalyzed),
	)
	return &r.Report
}

// QuickCheck returns the score, risk and the first three red flags.
func (a *Analyzer) QuickCheck(ctx context.Context, source string, c *records.Candidate) QuickResult {
	rep := a.Analyze(ctx, source, c, "")
	issues := make([]string, 0, maxQuickIssues)
	for _, f := range rep.RedFlags {
		if len(issues) == maxQuickIssues {
			break
		}
		issues = append(issues, f.Flag)
	}
	return QuickResult{Score: rep.OverallScore, RiskLevel: rep.RiskLevel, TopIssues: issues}
}

func (a *Analyzer) genericLanguage(r *report, lower string) {
	hits := 0
	for _, phrase := range genericPhrases {
		if strings.Contains(lower, phrase) {
			hits++
		}
	}

	switch {
	case hits > 5:
		r.Signals.GenericLanguage = math.Min(100, float64(hits*10))
		severity := SeverityMedium
		if hits > 10 {
			severity = SeverityHigh
		}
		r.flag(FlagGenericLanguage, severity, fmt.Sprintf("resume contains %d generic phrases typical of generated text", hits))
	case hits == 0:
		r.green("Uses specific, personal language instead of generic phrases")
	}
}

func (a *Analyzer) overOptimization(r *report, lower string, c *records.Candidate, jobText string) {
	if strings.TrimSpace(jobText) == "" || c.Skills == nil {
		return
	}

	jobWords := strings.Fields(strings.ToLower(jobText))
	resumeWords := make(map[string]struct{})
	for _, w := range strings.Fields(lower) {
		resumeWords[w] = struct{}{}
	}

	matching := 0
	for _, w := range jobWords {
		if len([]rune(w)) <= 4 {
			continue
		}
		if _, ok := resumeWords[w]; ok {
			matching++
		}
	}

	rate := float64(matching) / float64(len(jobWords)) * 100
	if rate > 80 {
		r.Signals.OverOptimization = rate
		r.flag(FlagKeywordMatch, SeverityHigh, fmt.Sprintf("resume matches %d%% of job keywords, likely tailored with a generator", int(math.Round(rate))))
		r.VerificationQuestions = append(r.VerificationQuestions, keywordQuestions...)
	}
}

func (a *Analyzer) timeline(r *report, c *records.Candidate) {
	// An empty list still sums to zero years against the claim.
	entries := c.Experience
	if entries == nil {
		return
	}
	now := a.now()

	for i := 0; i < len(entries)-1; i++ {
		current, next := entries[i], entries[i+1]
		cs, ok1 := parseDate(current.StartDate)
		ns, ok2 := parseDate(next.StartDate)
		if ok1 && ok2 && cs.After(ns) {
			r.Signals.Inconsistencies += 20
			r.flag(FlagTimeline, SeverityMedium, fmt.Sprintf("work history at %s starts after %s", current.Company, next.Company))
		}
	}

	var totalMonths float64
	for _, e := range entries {
		start, ok := parseDate(e.StartDate)
		if !ok {
			continue
		}
		end, present, ok := parseEndDate(e.EndDate, now)
		if !ok {
			continue
		}
		months := monthsBetween(start, end)
		if !present && months < 2 {
			r.issue(fmt.Sprintf("Very short tenure at %s (%d months)", e.Company, int(math.Round(months))))
		}
		totalMonths += months
	}

	calculated := math.Floor(totalMonths / 12)
	claimed := c.YearsOfExperience
	if math.Abs(calculated-claimed) > 2 {
		r.Signals.Inconsistencies += 30
		r.flag(FlagExperienceMismatch, SeverityHigh, fmt.Sprintf("claims %g years but timeline shows %g years", claimed, calculated))
	} else {
		r.green("Work history timeline is consistent")
	}
}

func (a *Analyzer) technicalDepth(ctx context.Context, r *report, source string, c *records.Candidate) {
	if a.depth == nil {
		return
	}

	dlog := logger.WithCommonFields(a.logger, a.depth.Name(), a.depth.Model())
	attempt, err := a.depth.Extract(ctx, ai.Request{Kind: ai.KindDepth, Text: source, Hints: c.Skills})
	if err != nil {
		dlog.Warn("technical depth analysis failed, signal stays neutral", zap.Error(err))
		return
	}
	analysis, err := ai.DecodeObject(attempt.Raw)
	if err != nil {
		dlog.Warn("technical depth response unreadable, signal stays neutral", zap.Error(err))
		return
	}
	r.DepthAnalyzed = true

	if strings.EqualFold(ai.CoerceString(analysis["technicalDepth"]), "superficial") {
		r.Signals.AIGeneratedProbability += 40
		r.flag(FlagShallow, SeverityHigh, "resume mentions skills but lacks specific details that demonstrate real experience")
		r.VerificationQuestions = append(r.VerificationQuestions, depthQuestions...)
	}

	if !ai.CoerceBool(analysis["hasConcreteMetrics"]) {
		r.Signals.AIGeneratedProbability += 20
		r.flag(FlagNoMetrics, SeverityMedium, "resume lacks specific metrics or measurable achievements")
	} else {
		r.green("Includes specific, quantifiable achievements")
	}

	for _, pattern := range ai.CoerceStrings(analysis["suspiciousPatterns"]) {
		r.flag(FlagSuspiciousPattern, SeverityMedium, pattern)
	}
}

func (a *Analyzer) contact(r *report, c *records.Candidate) {
	email := strings.TrimSpace(c.Email)
	if email == "" || strings.TrimSpace(c.Phone) == "" {
		r.issue("Missing contact information")
	}
	if email == "" {
		return
	}

	_, domain, _ := strings.Cut(strings.ToLower(email), "@")
	for _, d := range disposableDomains {
		if domain != "" && strings.Contains(domain, d) {
			r.flag(FlagDisposableEmail, SeverityHigh, "temporary email service in use")
			return
		}
	}
}

func (a *Analyzer) footprint(r *report, lower string) {
	r.hasLinkedIn = strings.Contains(lower, "linkedin.com")
	hasGitHub := strings.Contains(lower, "github.com")
	hasPortfolio := strings.Contains(lower, "portfolio") || strings.Contains(lower, "website")

	if !r.hasLinkedIn && !hasGitHub && !hasPortfolio {
		r.issue("No online presence (LinkedIn/GitHub/Portfolio)")
		r.flag(FlagNoFootprint, SeverityMedium, "no LinkedIn, GitHub or portfolio links, harder to verify")
		return
	}
	r.green("Provides online profiles for verification")
}

func (a *Analyzer) score(r *report) {
	w := a.config.Weights
	score := 100.0
	for _, f := range r.RedFlags {
		switch f.Severity {
		case SeverityHigh:
			score -= w.High
		case SeverityMedium:
			score -= w.Medium
		default:
			score -= w.Low
		}
	}

	score -= r.Signals.AIGeneratedProbability * w.AIGenerated
	score -= r.Signals.OverOptimization * w.OverOptimization
	score -= r.Signals.GenericLanguage * w.GenericLanguage
	score -= r.Signals.Inconsistencies * w.Inconsistencies
	score += float64(len(r.GreenFlags)) * w.GreenFlag

	// Generic language can never come out as low risk.
	if r.HasFlag(FlagGenericLanguage) {
		score = math.Min(score, float64(a.config.Thresholds.Low-1))
	}

	score = math.Max(0, math.Min(100, score))
	r.OverallScore = int(math.Round(score))
	r.RiskLevel = a.config.Thresholds.RiskFor(r.OverallScore)
}

func (a *Analyzer) recommend(r *report) {
	recs := []Recommendation{}
	if r.RiskLevel == RiskCritical || r.RiskLevel == RiskHigh {
		recs = append(recs,
			Recommendation{Action: "Require a technical screening test before the interview", Priority: SeverityHigh},
			Recommendation{Action: "Verify employment history with previous employers", Priority: SeverityHigh},
		)
	}
	if r.Signals.AIGeneratedProbability > 60 {
		recs = append(recs, Recommendation{Action: "Ask for GitHub contributions or code samples", Priority: SeverityHigh})
	}
	if r.Signals.OverOptimization > 80 {
		recs = append(recs, Recommendation{Action: "Request the original version of the resume before tailoring", Priority: SeverityMedium})
	}
	if !r.hasLinkedIn {
		recs = append(recs, Recommendation{Action: "Request a LinkedIn profile for background verification", Priority: SeverityMedium})
	}
	recs = append(recs, Recommendation{Action: "Use behavioral interview questions to verify real experience", Priority: SeverityHigh})
	r.Recommendations = recs
}
