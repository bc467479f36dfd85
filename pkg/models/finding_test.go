package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateRiskScore(t *testing.T) {
	f := Finding{Severity: SeverityCritical, Likelihood: LikelihoodHigh}
	assert.Equal(t, 15, f.CalculateRiskScore())

	f = Finding{Severity: SeverityCritical, Likelihood: LikelihoodMedium}
	assert.Equal(t, 10, f.CalculateRiskScore())

	f = Finding{Severity: SeverityInfo, Likelihood: LikelihoodLow}
	assert.Equal(t, 1, f.CalculateRiskScore())
}

func TestCalculateRiskScoreUnknownValuesFallBack(t *testing.T) {
	f := Finding{Severity: "catastrophic", Likelihood: "certain"}
	assert.Equal(t, 1, f.CalculateRiskScore())
}

func TestFindingValidate(t *testing.T) {
	valid := Finding{
		ID:         "finding_0000000000000001",
		Title:      "SQL Injection Detected",
		Severity:   SeverityCritical,
		Likelihood: LikelihoodMedium,
	}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.Error(t, noID.Validate())

	badSeverity := valid
	badSeverity.Severity = "urgent"
	assert.Error(t, badSeverity.Validate())

	badLikelihood := valid
	badLikelihood.Likelihood = "always"
	assert.Error(t, badLikelihood.Validate())
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityAtLeast(SeverityCritical, SeverityHigh))
	assert.True(t, SeverityAtLeast(SeverityHigh, SeverityHigh))
	assert.False(t, SeverityAtLeast(SeverityLow, SeverityMedium))
}

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 5, SeverityWeight(SeverityCritical))
	assert.Equal(t, 1, SeverityWeight("unknown"))
	assert.True(t, ValidSeverity(SeverityMedium))
	assert.False(t, ValidSeverity("moderate"))
}
