package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// Scorer derives the run-level security posture from suite results and
// findings. All methods are pure functions over their inputs plus the fixed
// deduction table; the scorer holds no run state.
type Scorer struct {
	deductions map[string]float64
}

func NewScorer() *Scorer {
	return NewScorerWithDeductions(nil)
}

func NewScorerWithDeductions(override map[string]float64) *Scorer {
	base := map[string]float64{
		models.SeverityCritical: 20,
		models.SeverityHigh:     10,
		models.SeverityMedium:   5,
	}
	for k, v := range override {
		base[k] = v
	}
	return &Scorer{deductions: base}
}

// SecurityScore is the overall pass ratio scaled to 100, reduced by the fixed
// per-finding deductions and clamped to [0,100]. Zero tests scores zero.
func (s *Scorer) SecurityScore(results []models.SuiteResult, findings []models.Finding) float64 {
	var totalRun, totalPassed int
	for _, r := range results {
		totalRun += r.TestsRun
		totalPassed += r.TestsPassed
	}
	if totalRun == 0 {
		return 0
	}

	score := 100 * float64(totalPassed) / float64(totalRun)
	for _, f := range findings {
		score -= s.deductions[f.Severity]
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RiskLevel walks the fixed ladder top-down; the first matching rung wins.
func RiskLevel(findings []models.Finding) string {
	var critical, high, medium int
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		}
	}

	switch {
	case critical >= 1:
		return models.RiskLevelCritical
	case high > 5:
		return models.RiskLevelHigh
	case high > 0 || medium > 10:
		return models.RiskLevelMedium
	case medium > 0:
		return models.RiskLevelLow
	default:
		return models.RiskLevelInfo
	}
}

// ComplianceMap marks a standard tag compliant iff at least one suite claims
// it and no finding carries it.
func ComplianceMap(declared []string, findings []models.Finding) map[string]bool {
	violated := make(map[string]struct{})
	for _, f := range findings {
		if f.Standard != "" {
			violated[f.Standard] = struct{}{}
		}
	}

	out := make(map[string]bool, len(declared))
	for _, tag := range declared {
		_, bad := violated[tag]
		out[tag] = !bad
	}
	return out
}

// controlAreas maps each named standard to the category keywords that count
// as evidence toward it. Matching is a substring check over lowercased suite
// category names; this is a deliberate approximation.
var controlAreas = map[string][]string{
	models.StandardOWASP:    {"injection", "xss", "authentication", "csrf", "access", "session", "upload", "api"},
	models.StandardPCIDSS:   {"injection", "authentication", "session"},
	models.StandardGDPR:     {"api", "access", "information"},
	models.StandardISO27001: {"authentication", "access", "configuration", "upload"},
}

// ComplianceMetrics derives a percentage per named standard from the pass
// rate of suites whose category matches that standard's control areas.
// No matching suites means no demonstrated compliance: 0.
func ComplianceMetrics(results []models.SuiteResult) map[string]float64 {
	out := make(map[string]float64, len(controlAreas))
	for standard, keywords := range controlAreas {
		var matched, passed int
		for _, r := range results {
			category := strings.ToLower(r.Category)
			for _, kw := range keywords {
				if strings.Contains(category, kw) {
					matched++
					if r.Passed() {
						passed++
					}
					break
				}
			}
		}
		if matched == 0 {
			out[standard] = 0
			continue
		}
		out[standard] = 100 * float64(passed) / float64(matched)
	}
	return out
}

// Recommendations builds the ordered remediation list: critical findings
// first, then high findings, then failing categories, then compliance gaps,
// then standing guidance.
func Recommendations(results []models.SuiteResult, findings []models.Finding, compliance map[string]bool) []string {
	var recs []string
	seen := make(map[string]struct{})

	appendOnce := func(rec string) {
		if _, ok := seen[rec]; ok {
			return
		}
		seen[rec] = struct{}{}
		recs = append(recs, rec)
	}

	for _, severity := range []string{models.SeverityCritical, models.SeverityHigh} {
		for _, f := range findings {
			if f.Severity != severity {
				continue
			}
			prefix := "URGENT"
			if severity == models.SeverityHigh {
				prefix = "HIGH"
			}
			appendOnce(fmt.Sprintf("%s: remediate %s - %s", prefix, f.Category, f.Remediation))
		}
	}

	for _, r := range results {
		if r.Status == models.SuiteStatusFailed {
			appendOnce(fmt.Sprintf("Review the %d failing tests in the %s suite and fix the underlying controls.", r.TestsFailed, r.Suite))
		}
	}

	gaps := make([]string, 0, len(compliance))
	for tag, ok := range compliance {
		if !ok {
			gaps = append(gaps, tag)
		}
	}
	sort.Strings(gaps)
	for _, tag := range gaps {
		appendOnce(fmt.Sprintf("Address the compliance gap for control %s before the next audit cycle.", tag))
	}

	appendOnce("Run the full security suite on every release candidate and track score trends between runs.")
	appendOnce("Keep application dependencies patched; many extracted findings trace back to known library vulnerabilities.")

	return recs
}

// ExecutiveSummary renders the human-readable wrap-up interpolating the
// scored values.
func ExecutiveSummary(summary models.RunSummary, environment string) string {
	posture := "acceptable"
	switch summary.RiskLevel {
	case models.RiskLevelCritical:
		posture = "critical, immediate remediation required"
	case models.RiskLevelHigh:
		posture = "poor, prioritized remediation required"
	case models.RiskLevelMedium:
		posture = "degraded, remediation should be scheduled"
	}

	return fmt.Sprintf(
		"Security testing of the %s environment executed %d suites covering %d tests, of which %d passed and %d failed. "+
			"%d vulnerability findings were extracted (%d critical, %d high, %d medium, %d low). "+
			"The overall security score is %.1f/100 and the assessed risk level is %s. "+
			"The current security posture is %s.",
		environment,
		summary.TotalSuites, summary.TotalTests, summary.TotalPassed, summary.TotalFailed,
		summary.TotalFindings, summary.CriticalFindings, summary.HighFindings, summary.MediumFindings, summary.LowFindings,
		summary.SecurityScore, summary.RiskLevel, posture,
	)
}

// Summarize folds every suite result and finding into the report summary.
func (s *Scorer) Summarize(results []models.SuiteResult, findings []models.Finding) models.RunSummary {
	summary := models.RunSummary{TotalSuites: len(results)}

	for _, r := range results {
		summary.TotalTests += r.TestsRun
		summary.TotalPassed += r.TestsPassed
		summary.TotalFailed += r.TestsFailed
		summary.TotalSkipped += r.TestsSkipped
		switch r.Status {
		case models.SuiteStatusPassed:
			summary.SuitesPassed++
		case models.SuiteStatusFailed:
			summary.SuitesFailed++
		case models.SuiteStatusErrored:
			summary.SuitesErrored++
		}
	}

	summary.TotalFindings = len(findings)
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			summary.CriticalFindings++
		case models.SeverityHigh:
			summary.HighFindings++
		case models.SeverityMedium:
			summary.MediumFindings++
		case models.SeverityLow:
			summary.LowFindings++
		}
	}

	summary.SecurityScore = s.SecurityScore(results, findings)
	summary.RiskLevel = RiskLevel(findings)
	return summary
}
