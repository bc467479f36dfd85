package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// ErrRunnerNotFound marks an infrastructure failure: the external test runner
// executable is missing. A normal non-zero exit is not an error at all, it
// signals test failures and is carried in the Invocation.
var ErrRunnerNotFound = errors.New("test runner executable not found")

// Invocation is the raw outcome of one suite process: combined stdout/stderr,
// the exit status, and whether the configured timeout fired first.
type Invocation struct {
	Output   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Runner invokes the external test runner for one suite descriptor.
type Runner interface {
	Run(ctx context.Context, desc models.SuiteDescriptor, workDir string) (*Invocation, error)
}

// Config holds the external runner command line. The suite spec path is
// appended as the final argument.
type Config struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`

	// MinVersion gates a compatibility warning, never a failure.
	MinVersion string `yaml:"min_version" json:"min_version"`
}

func DefaultConfig() Config {
	return Config{
		Command:    "npx",
		Args:       []string{"mocha", "--reporter", "json"},
		MinVersion: "18.0.0",
	}
}

// ProcessRunner spawns a plain in-process test runner per suite.
type ProcessRunner struct {
	config Config
	logger *logrus.Logger
}

func NewProcessRunner(config Config, logger *logrus.Logger) *ProcessRunner {
	if logger == nil {
		logger = logrus.New()
	}
	if config.Command == "" {
		config = DefaultConfig()
	}
	return &ProcessRunner{config: config, logger: logger}
}

func (p *ProcessRunner) Run(ctx context.Context, desc models.SuiteDescriptor, workDir string) (*Invocation, error) {
	runCtx, cancel := context.WithTimeout(ctx, desc.Timeout)
	defer cancel()

	args := append(append([]string{}, p.config.Args...), desc.Spec)
	cmd := exec.CommandContext(runCtx, p.config.Command, args...)
	cmd.Dir = workDir

	start := time.Now()
	out, err := cmd.CombinedOutput()
	inv := &Invocation{
		Output:   string(out),
		Duration: time.Since(start),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		inv.TimedOut = true
		return inv, fmt.Errorf("suite %s timed out after %v", desc.Name, desc.Timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			// Non-zero exit means assertion failures, not infrastructure failure.
			inv.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound):
			return inv, fmt.Errorf("%w: %s", ErrRunnerNotFound, p.config.Command)
		default:
			return inv, fmt.Errorf("spawn %s: %w", p.config.Command, err)
		}
	}

	p.logger.Debugf("Suite %s exited %d in %v", desc.Name, inv.ExitCode, inv.Duration)
	return inv, nil
}

// RunnerVersion reports the node runtime version backing the test runner,
// for the run metadata block.
func (p *ProcessRunner) RunnerVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "node", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("query runner version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// MeetsMinVersion checks the reported runtime version against the configured
// minimum. Unparseable versions are treated as incompatible.
func (p *ProcessRunner) MeetsMinVersion(reported string) bool {
	if p.config.MinVersion == "" {
		return true
	}
	min, err := semver.NewVersion(p.config.MinVersion)
	if err != nil {
		return true
	}
	got, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(reported), "v"))
	if err != nil {
		return false
	}
	return !got.LessThan(min)
}
