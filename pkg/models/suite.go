package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	ExecModeConcurrent = "concurrent"
	ExecModeSerial     = "serial"

	RunnerKindProcess = "process"
	RunnerKindBrowser = "browser"

	SuiteStatusPassed  = "passed"
	SuiteStatusFailed  = "failed"
	SuiteStatusSkipped = "skipped"
	SuiteStatusErrored = "errored"

	CapabilityBrowserDriver = "browser_driver"
)

// SuiteDescriptor describes one independently executable security test suite.
// Descriptors are built once at startup and never mutated afterwards.
type SuiteDescriptor struct {
	Name           string        `json:"name" yaml:"name"`
	Spec           string        `json:"spec" yaml:"spec"`
	Category       string        `json:"category" yaml:"category"`
	Standards      []string      `json:"standards" yaml:"standards"`
	EstimatedTests int           `json:"estimated_tests" yaml:"estimated_tests"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	Mode           string        `json:"mode" yaml:"mode"`
	RunnerKind     string        `json:"runner_kind" yaml:"runner_kind"`
	Capabilities   []string      `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

func (d *SuiteDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if d.Spec == "" {
		return fmt.Errorf("suite spec is required for %s", d.Name)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("suite %s: timeout must be positive", d.Name)
	}
	switch d.Mode {
	case ExecModeConcurrent, ExecModeSerial:
	default:
		return fmt.Errorf("suite %s: invalid execution mode: %s", d.Name, d.Mode)
	}
	switch d.RunnerKind {
	case RunnerKindProcess, RunnerKindBrowser:
	default:
		return fmt.Errorf("suite %s: invalid runner kind: %s", d.Name, d.RunnerKind)
	}
	// A serial suite must document the exclusive resource it monopolizes.
	if d.Mode == ExecModeSerial && len(d.Capabilities) == 0 {
		return fmt.Errorf("suite %s: serial suites must declare required capabilities", d.Name)
	}
	return nil
}

func (d *SuiteDescriptor) RequiresCapability(capability string) bool {
	for _, c := range d.Capabilities {
		if strings.EqualFold(c, capability) {
			return true
		}
	}
	return false
}

// SuiteResult is the canonical record for one suite execution within a run.
// It is immutable once the scheduler appends it to the run accumulator.
type SuiteResult struct {
	Suite           string        `json:"suite"`
	Category        string        `json:"category"`
	Status          string        `json:"status"`
	Duration        time.Duration `json:"duration"`
	TestsRun        int           `json:"tests_run"`
	TestsPassed     int           `json:"tests_passed"`
	TestsFailed     int           `json:"tests_failed"`
	TestsSkipped    int           `json:"tests_skipped"`
	CountsEstimated bool          `json:"counts_estimated,omitempty"`
	Findings        []Finding     `json:"findings,omitempty"`
	Standards       []string      `json:"standards,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Coverage is the passed/run ratio, 0 when no tests ran.
func (r *SuiteResult) Coverage() float64 {
	if r.TestsRun == 0 {
		return 0
	}
	return float64(r.TestsPassed) / float64(r.TestsRun)
}

func (r *SuiteResult) Passed() bool {
	return r.Status == SuiteStatusPassed
}
