package runner

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func echoDescriptor() models.SuiteDescriptor {
	return models.SuiteDescriptor{
		Name:       "Echo",
		Spec:       "hello-spec",
		Category:   "Injection",
		Timeout:    10 * time.Second,
		Mode:       models.ExecModeConcurrent,
		RunnerKind: models.RunnerKindProcess,
	}
}

func TestProcessRunnerCapturesOutput(t *testing.T) {
	p := NewProcessRunner(Config{Command: "echo", Args: []string{"suite"}}, quietLogger())

	inv, err := p.Run(context.Background(), echoDescriptor(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, inv.ExitCode)
	assert.False(t, inv.TimedOut)
	assert.Contains(t, inv.Output, "suite hello-spec")
}

func TestProcessRunnerMissingExecutable(t *testing.T) {
	p := NewProcessRunner(Config{Command: "secsweep-no-such-runner"}, quietLogger())

	_, err := p.Run(context.Background(), echoDescriptor(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunnerNotFound)
}

func TestProcessRunnerNonZeroExitIsNotAnError(t *testing.T) {
	p := NewProcessRunner(Config{Command: "sh", Args: []string{"-c", "echo failures; exit 3; ignored:"}}, quietLogger())

	inv, err := p.Run(context.Background(), echoDescriptor(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, inv.ExitCode)
	assert.Contains(t, inv.Output, "failures")
}

func TestProcessRunnerTimeout(t *testing.T) {
	p := NewProcessRunner(Config{Command: "sleep"}, quietLogger())
	desc := echoDescriptor()
	desc.Timeout = 100 * time.Millisecond
	desc.Spec = "5" // sleep far longer than the suite timeout

	inv, err := p.Run(context.Background(), desc, t.TempDir())
	require.Error(t, err)
	assert.True(t, inv.TimedOut)
	assert.Contains(t, err.Error(), "timed out")
}

func TestMeetsMinVersion(t *testing.T) {
	p := NewProcessRunner(Config{Command: "npx", MinVersion: "18.0.0"}, quietLogger())

	assert.True(t, p.MeetsMinVersion("v20.11.1"))
	assert.True(t, p.MeetsMinVersion("18.0.0"))
	assert.False(t, p.MeetsMinVersion("v16.20.0"))
	assert.False(t, p.MeetsMinVersion("not-a-version"))

	unconstrained := NewProcessRunner(Config{Command: "npx"}, quietLogger())
	assert.True(t, unconstrained.MeetsMinVersion("v0.0.1"))
}

func TestForDescriptorSelectsRunnerFamily(t *testing.T) {
	process := NewProcessRunner(DefaultConfig(), quietLogger())
	browser := NewBrowserRunner(DefaultConfig(), true, quietLogger())

	desc := echoDescriptor()
	assert.Same(t, Runner(process), ForDescriptor(desc, process, browser))

	desc.RunnerKind = models.RunnerKindBrowser
	assert.Same(t, Runner(browser), ForDescriptor(desc, process, browser))
}
