package normalize

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

func quietNormalizer() *Normalizer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewNormalizer(logger)
}

func TestCountsStatsBlock(t *testing.T) {
	output := `npm noise before the document
{"stats":{"tests":24,"passes":22,"failures":2,"pending":0},"failures":[]}
`
	counts, measured := quietNormalizer().Counts(output, 99)
	assert.True(t, measured)
	assert.Equal(t, Counts{Run: 24, Passed: 22, Failed: 2}, counts)
}

func TestCountsTestList(t *testing.T) {
	output := `{"tests":[{"state":"passed"},{"state":"failed"},{"state":"pending"},{"state":"PASSED"}]}`
	counts, measured := quietNormalizer().Counts(output, 99)
	assert.True(t, measured)
	assert.Equal(t, Counts{Run: 4, Passed: 2, Failed: 1, Skipped: 1}, counts)
}

func TestCountsLinePattern(t *testing.T) {
	output := `
  some suite title

  12 passing (3s)
  3 failing
  1 pending
`
	counts, measured := quietNormalizer().Counts(output, 99)
	assert.True(t, measured)
	assert.Equal(t, Counts{Run: 16, Passed: 12, Failed: 3, Skipped: 1}, counts)
}

func TestCountsFallsBackToEstimate(t *testing.T) {
	counts, measured := quietNormalizer().Counts("unrecognizable runner noise", 24)
	assert.False(t, measured)
	assert.Equal(t, Counts{Run: 24}, counts)
}

func TestCountsMalformedJSONFallsThrough(t *testing.T) {
	counts, measured := quietNormalizer().Counts("boom {not json at all}", 10)
	assert.False(t, measured)
	assert.Equal(t, 10, counts.Run)
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name         string
		runnerFailed bool
		exitCode     int
		counts       Counts
		want         string
	}{
		{"runner failure dominates", true, 0, Counts{Run: 10}, models.SuiteStatusErrored},
		{"clean exit passes", false, 0, Counts{Run: 10, Passed: 10}, models.SuiteStatusPassed},
		{"nonzero exit with tests failed", false, 1, Counts{Run: 10, Failed: 2}, models.SuiteStatusFailed},
		{"nonzero exit without tests errored", false, 1, Counts{}, models.SuiteStatusErrored},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.runnerFailed, tc.exitCode, tc.counts))
		})
	}
}
