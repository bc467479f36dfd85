package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/secsweep/pkg/models"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func archivedReport(runID string, ts time.Time) *models.RunReport {
	return &models.RunReport{
		RunID:     runID,
		Timestamp: ts,
		Summary: models.RunSummary{
			TotalSuites:   8,
			SecurityScore: 82.5,
			RiskLevel:     models.RiskLevelLow,
			TotalFindings: 2,
		},
		Metadata: models.RunMetadata{Environment: "staging"},
	}
}

func TestArchiveSaveAndLoad(t *testing.T) {
	a, err := NewArchive(t.TempDir(), false, 0, quietLogger())
	require.NoError(t, err)

	report := archivedReport("run_roundtrip", time.Now().UTC())
	require.NoError(t, a.Save(report))

	loaded, err := a.Load("run_roundtrip")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.InDelta(t, 82.5, loaded.Summary.SecurityScore, 0.0001)
	assert.Equal(t, "staging", loaded.Metadata.Environment)
}

func TestArchiveCompressedRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	a, err := NewArchive(baseDir, true, 0, quietLogger())
	require.NoError(t, err)

	require.NoError(t, a.Save(archivedReport("run_gz", time.Now().UTC())))

	// The plain JSON file is replaced by the gzip variant.
	assert.False(t, utils.FileExists(filepath.Join(baseDir, "runs", "run_gz.json")))
	assert.True(t, utils.FileExists(filepath.Join(baseDir, "runs", "run_gz.json.gz")))

	loaded, err := a.Load("run_gz")
	require.NoError(t, err)
	assert.Equal(t, "run_gz", loaded.RunID)
}

func TestArchiveListNewestFirst(t *testing.T) {
	a, err := NewArchive(t.TempDir(), false, 0, quietLogger())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, a.Save(archivedReport("run_old", now.Add(-2*time.Hour))))
	require.NoError(t, a.Save(archivedReport("run_new", now)))

	entries, err := a.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run_new", entries[0].RunID)
	assert.Equal(t, "run_old", entries[1].RunID)
}

func TestArchiveRetentionSweep(t *testing.T) {
	baseDir := t.TempDir()
	a, err := NewArchive(baseDir, false, 0, quietLogger())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, a.Save(archivedReport("run_stale", now.Add(-48*time.Hour))))
	require.NoError(t, a.Save(archivedReport("run_fresh", now)))

	// Re-opening with a 24h retention window sweeps the stale run.
	swept, err := NewArchive(baseDir, false, 24*time.Hour, quietLogger())
	require.NoError(t, err)

	entries, err := swept.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run_fresh", entries[0].RunID)
	assert.False(t, utils.FileExists(filepath.Join(baseDir, "runs", "run_stale.json")))
}

func TestArchiveLoadMissingRun(t *testing.T) {
	a, err := NewArchive(t.TempDir(), false, 0, quietLogger())
	require.NoError(t, err)

	_, err = a.Load("run_absent")
	assert.Error(t, err)
}
