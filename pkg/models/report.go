package models

import (
	"time"
)

const (
	RiskLevelCritical = "critical"
	RiskLevelHigh     = "high"
	RiskLevelMedium   = "medium"
	RiskLevelLow      = "low"
	RiskLevelInfo     = "info"
)

// Named standards the scoring engine derives compliance percentages for.
const (
	StandardOWASP    = "OWASP Top 10"
	StandardPCIDSS   = "PCI DSS"
	StandardGDPR     = "GDPR"
	StandardISO27001 = "ISO 27001"
)

// RunSummary aggregates every SuiteResult of a run.
type RunSummary struct {
	TotalSuites      int     `json:"total_suites"`
	SuitesPassed     int     `json:"suites_passed"`
	SuitesFailed     int     `json:"suites_failed"`
	SuitesErrored    int     `json:"suites_errored"`
	TotalTests       int     `json:"total_tests"`
	TotalPassed      int     `json:"total_passed"`
	TotalFailed      int     `json:"total_failed"`
	TotalSkipped     int     `json:"total_skipped"`
	TotalFindings    int     `json:"total_findings"`
	CriticalFindings int     `json:"critical_findings"`
	HighFindings     int     `json:"high_findings"`
	MediumFindings   int     `json:"medium_findings"`
	LowFindings      int     `json:"low_findings"`
	SecurityScore    float64 `json:"security_score"`
	RiskLevel        string  `json:"risk_level"`
}

type RunMetadata struct {
	Environment  string            `json:"environment"`
	ToolVersions map[string]string `json:"tool_versions,omitempty"`
	Duration     time.Duration     `json:"duration"`
	GeneratedBy  string            `json:"generated_by"`
	ToolVersion  string            `json:"tool_version"`
}

// RunReport is the single immutable artifact of one orchestrator invocation.
// The scheduler accumulates into a builder; once the scoring engine seals the
// report it is handed to the emitter as a value and never mutated again.
type RunReport struct {
	RunID             string             `json:"run_id"`
	Timestamp         time.Time          `json:"timestamp"`
	Summary           RunSummary         `json:"summary"`
	Results           []SuiteResult      `json:"results"`
	Findings          []Finding          `json:"findings"`
	Compliance        map[string]bool    `json:"compliance"`
	ComplianceMetrics map[string]float64 `json:"compliance_metrics"`
	Recommendations   []string           `json:"recommendations"`
	ExecutiveSummary  string             `json:"executive_summary"`
	Metadata          RunMetadata        `json:"metadata"`
}

// ExitCode maps the sealed report onto the process exit contract: 2 when any
// critical finding is present, 1 when any suite failed or errored, else 0.
func (r *RunReport) ExitCode() int {
	if r.Summary.CriticalFindings > 0 {
		return 2
	}
	if r.Summary.SuitesFailed > 0 || r.Summary.SuitesErrored > 0 {
		return 1
	}
	return 0
}

// CategoryResults groups results by suite category, preserving report order.
func (r *RunReport) CategoryResults() map[string][]SuiteResult {
	out := make(map[string][]SuiteResult)
	for _, res := range r.Results {
		out[res.Category] = append(out[res.Category], res)
	}
	return out
}
