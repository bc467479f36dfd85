package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

func passedResult(suite, category string, run, passed int) models.SuiteResult {
	status := models.SuiteStatusPassed
	if passed < run {
		status = models.SuiteStatusFailed
	}
	return models.SuiteResult{
		Suite:       suite,
		Category:    category,
		Status:      status,
		TestsRun:    run,
		TestsPassed: passed,
		TestsFailed: run - passed,
	}
}

func TestSecurityScoreNoTestsIsZero(t *testing.T) {
	assert.Zero(t, NewScorer().SecurityScore(nil, nil))
	assert.Zero(t, NewScorer().SecurityScore([]models.SuiteResult{{Status: models.SuiteStatusErrored}}, nil))
}

func TestSecurityScorePerfectRun(t *testing.T) {
	results := []models.SuiteResult{passedResult("Authentication", "Authentication", 30, 30)}
	assert.InDelta(t, 100, NewScorer().SecurityScore(results, nil), 0.0001)
}

func TestSecurityScoreDeductions(t *testing.T) {
	results := []models.SuiteResult{passedResult("Authentication", "Authentication", 30, 30)}
	findings := []models.Finding{
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityMedium},
	}
	// 100 - 20 - 10 - 5
	assert.InDelta(t, 65, NewScorer().SecurityScore(results, findings), 0.0001)
}

func TestSecurityScoreClampedAtZero(t *testing.T) {
	results := []models.SuiteResult{passedResult("API Security", "API Security", 10, 10)}
	findings := make([]models.Finding, 8)
	for i := range findings {
		findings[i] = models.Finding{Severity: models.SeverityCritical}
	}
	assert.Zero(t, NewScorer().SecurityScore(results, findings))
}

func TestSecurityScoreDeductionOverride(t *testing.T) {
	s := NewScorerWithDeductions(map[string]float64{models.SeverityCritical: 50})
	results := []models.SuiteResult{passedResult("API Security", "API Security", 10, 10)}
	findings := []models.Finding{{Severity: models.SeverityCritical}}
	assert.InDelta(t, 50, s.SecurityScore(results, findings), 0.0001)
}

func TestRiskLevelLadder(t *testing.T) {
	mk := func(severity string, n int) []models.Finding {
		out := make([]models.Finding, n)
		for i := range out {
			out[i] = models.Finding{Severity: severity}
		}
		return out
	}

	assert.Equal(t, models.RiskLevelInfo, RiskLevel(nil))
	assert.Equal(t, models.RiskLevelLow, RiskLevel(mk(models.SeverityMedium, 1)))
	assert.Equal(t, models.RiskLevelMedium, RiskLevel(mk(models.SeverityHigh, 1)))
	assert.Equal(t, models.RiskLevelMedium, RiskLevel(mk(models.SeverityMedium, 11)))
	assert.Equal(t, models.RiskLevelHigh, RiskLevel(mk(models.SeverityHigh, 6)))
	assert.Equal(t, models.RiskLevelCritical, RiskLevel(mk(models.SeverityCritical, 1)))

	// A single critical outranks any number of highs.
	mixed := append(mk(models.SeverityHigh, 10), mk(models.SeverityCritical, 1)...)
	assert.Equal(t, models.RiskLevelCritical, RiskLevel(mixed))
}

func TestComplianceMap(t *testing.T) {
	declared := []string{"OWASP-A03", "PCI-8.2", "GDPR-32"}
	findings := []models.Finding{{Standard: "OWASP-A03"}}

	m := ComplianceMap(declared, findings)
	assert.False(t, m["OWASP-A03"])
	assert.True(t, m["PCI-8.2"])
	assert.True(t, m["GDPR-32"])
	assert.Len(t, m, 3)
}

func TestComplianceMetrics(t *testing.T) {
	results := []models.SuiteResult{
		passedResult("SQL Injection", "Injection", 10, 10),
		passedResult("Authentication", "Authentication", 10, 5),
	}

	m := ComplianceMetrics(results)
	// Both categories are OWASP control areas; one suite passed.
	assert.InDelta(t, 50, m[models.StandardOWASP], 0.0001)
	// PCI matches both as well.
	assert.InDelta(t, 50, m[models.StandardPCIDSS], 0.0001)
	// No GDPR control-area suite ran, so no demonstrated compliance.
	assert.Zero(t, m[models.StandardGDPR])
}

func TestRecommendationsOrderingAndDedup(t *testing.T) {
	results := []models.SuiteResult{
		{Suite: "CSRF Protection", Category: "CSRF", Status: models.SuiteStatusFailed, TestsRun: 12, TestsFailed: 2},
	}
	findings := []models.Finding{
		{Severity: models.SeverityHigh, Category: "XSS", Remediation: "Encode output."},
		{Severity: models.SeverityCritical, Category: "SQL Injection", Remediation: "Use parameterized queries."},
		{Severity: models.SeverityCritical, Category: "SQL Injection", Remediation: "Use parameterized queries."},
	}
	compliance := map[string]bool{"OWASP-A03": false, "PCI-8.2": true}

	recs := Recommendations(results, findings, compliance)
	require.NotEmpty(t, recs)

	// Critical remediation leads, and the duplicate collapses to one entry.
	assert.True(t, strings.HasPrefix(recs[0], "URGENT"))
	urgent := 0
	for _, r := range recs {
		if strings.HasPrefix(r, "URGENT") {
			urgent++
		}
	}
	assert.Equal(t, 1, urgent)

	joined := strings.Join(recs, "\n")
	assert.Contains(t, joined, "HIGH: remediate XSS")
	assert.Contains(t, joined, "CSRF Protection suite")
	assert.Contains(t, joined, "OWASP-A03")
	assert.NotContains(t, joined, "PCI-8.2")
}

func TestSummarize(t *testing.T) {
	results := []models.SuiteResult{
		passedResult("SQL Injection", "Injection", 24, 24),
		passedResult("Authentication", "Authentication", 32, 30),
		{Suite: "API Security", Category: "API Security", Status: models.SuiteStatusErrored},
	}
	findings := []models.Finding{
		{Severity: models.SeverityHigh},
		{Severity: models.SeverityMedium},
		{Severity: models.SeverityLow},
	}

	summary := NewScorer().Summarize(results, findings)
	assert.Equal(t, 3, summary.TotalSuites)
	assert.Equal(t, 1, summary.SuitesPassed)
	assert.Equal(t, 1, summary.SuitesFailed)
	assert.Equal(t, 1, summary.SuitesErrored)
	assert.Equal(t, 56, summary.TotalTests)
	assert.Equal(t, 54, summary.TotalPassed)
	assert.Equal(t, 2, summary.TotalFailed)
	assert.Equal(t, 3, summary.TotalFindings)
	assert.Equal(t, 0, summary.CriticalFindings)
	assert.Equal(t, 1, summary.HighFindings)
	assert.Equal(t, models.RiskLevelMedium, summary.RiskLevel)
	assert.Greater(t, summary.SecurityScore, 0.0)

	// Suite tallies must reconcile with the per-status buckets.
	assert.Equal(t, summary.TotalSuites, summary.SuitesPassed+summary.SuitesFailed+summary.SuitesErrored)
}

func TestExecutiveSummaryInterpolatesScore(t *testing.T) {
	summary := models.RunSummary{
		TotalSuites:   8,
		TotalTests:    164,
		TotalPassed:   150,
		TotalFailed:   14,
		TotalFindings: 2,
		SecurityScore: 71.5,
		RiskLevel:     models.RiskLevelHigh,
	}
	text := ExecutiveSummary(summary, "staging")
	assert.Contains(t, text, "staging environment")
	assert.Contains(t, text, "71.5/100")
	assert.Contains(t, text, "prioritized remediation")
}
