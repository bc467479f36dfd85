package models

import (
	"fmt"
)

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"

	LikelihoodLow    = "low"
	LikelihoodMedium = "medium"
	LikelihoodHigh   = "high"
)

var severityWeights = map[string]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
	SeverityInfo:     1,
}

var likelihoodWeights = map[string]int{
	LikelihoodLow:    1,
	LikelihoodMedium: 2,
	LikelihoodHigh:   3,
}

// severityRank orders severities for risk-level comparisons; higher is worse.
var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Finding is one extracted signal that a suite's output indicates a specific
// vulnerability class. IDs are deterministic: identical raw output always
// reproduces identical findings.
type Finding struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Standard    string `json:"standard"`
	Location    string `json:"location"`
	Remediation string `json:"remediation"`
	Impact      string `json:"impact"`
	Likelihood  string `json:"likelihood"`
	RiskScore   int    `json:"risk_score"`
	Suite       string `json:"suite"`
}

func (f *Finding) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("finding id is required")
	}
	if f.Title == "" {
		return fmt.Errorf("finding title is required")
	}
	if _, ok := severityWeights[f.Severity]; !ok {
		return fmt.Errorf("invalid severity: %s", f.Severity)
	}
	if _, ok := likelihoodWeights[f.Likelihood]; !ok {
		return fmt.Errorf("invalid likelihood: %s", f.Likelihood)
	}
	return nil
}

// CalculateRiskScore is severity weight times likelihood weight over the fixed
// integer tables. Unknown values fall back to the lowest weight.
func (f *Finding) CalculateRiskScore() int {
	sev, ok := severityWeights[f.Severity]
	if !ok {
		sev = severityWeights[SeverityInfo]
	}
	lik, ok := likelihoodWeights[f.Likelihood]
	if !ok {
		lik = likelihoodWeights[LikelihoodLow]
	}
	return sev * lik
}

func SeverityWeight(severity string) int {
	if w, ok := severityWeights[severity]; ok {
		return w
	}
	return severityWeights[SeverityInfo]
}

// SeverityAtLeast reports whether severity a is at least as severe as b.
func SeverityAtLeast(a, b string) bool {
	return severityRank[a] >= severityRank[b]
}

func ValidSeverity(severity string) bool {
	_, ok := severityWeights[severity]
	return ok
}
