package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "250ms", HumanizeDuration(250*time.Millisecond))
	assert.Equal(t, "2.5s", HumanizeDuration(2500*time.Millisecond))
	assert.Equal(t, "3m20s", HumanizeDuration(200*time.Second))
	assert.Equal(t, "1h30m", HumanizeDuration(90*time.Minute))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exactly", TruncateString("exactly", 7))
	assert.Equal(t, "long...", TruncateString("long string here", 7))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestRemoveDuplicates(t *testing.T) {
	in := []string{"OWASP-A03", "PCI-8.2", "OWASP-A03", "GDPR-32", "PCI-8.2"}
	assert.Equal(t, []string{"OWASP-A03", "PCI-8.2", "GDPR-32"}, RemoveDuplicates(in))
}

func TestStringInSlice(t *testing.T) {
	assert.True(t, StringInSlice("b", []string{"a", "b"}))
	assert.False(t, StringInSlice("c", []string{"a", "b"}))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "secsweep_20260314_093000.json", SanitizeFilename("secsweep_20260314_093000.json"))
	assert.Equal(t, "run_report__staging_.html", SanitizeFilename("run report (staging).html"))
}

func TestSafeWriteFileAtomicity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, SafeWriteFile(path, []byte(`{"ok":true}`), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAndReadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	in := map[string]int{"suites": 8}
	require.NoError(t, WriteFileJSON(path, in, true))

	var out map[string]int
	require.NoError(t, ReadFileJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SECSWEEP_TEST_STR", "value")
	t.Setenv("SECSWEEP_TEST_INT", "42")

	assert.Equal(t, "value", GetEnv("SECSWEEP_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("SECSWEEP_TEST_MISSING", "fallback"))
	assert.Equal(t, 42, GetEnvInt("SECSWEEP_TEST_INT", 7))
	assert.Equal(t, 7, GetEnvInt("SECSWEEP_TEST_MISSING", 7))
}
