package registry

import (
	"fmt"
	"time"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// Registry is the static, ordered catalog of security test suites. It is
// assembled once at startup, validated, and read-only afterwards; changing
// the catalog requires a new process start.
type Registry struct {
	suites []models.SuiteDescriptor
}

func NewRegistry() (*Registry, error) {
	return NewRegistryWith(defaultSuites())
}

func NewRegistryWith(suites []models.SuiteDescriptor) (*Registry, error) {
	for i := range suites {
		if err := suites[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid suite descriptor: %w", err)
		}
	}
	return &Registry{suites: suites}, nil
}

// Suites returns the catalog in registration order. Callers receive a copy so
// the registry stays immutable.
func (r *Registry) Suites() []models.SuiteDescriptor {
	out := make([]models.SuiteDescriptor, len(r.suites))
	copy(out, r.suites)
	return out
}

func (r *Registry) Len() int {
	return len(r.suites)
}

// Partition splits the catalog into the concurrent and serial execution sets,
// preserving registry order within each.
func (r *Registry) Partition() (concurrent, serial []models.SuiteDescriptor) {
	for _, s := range r.suites {
		if s.Mode == models.ExecModeSerial {
			serial = append(serial, s)
		} else {
			concurrent = append(concurrent, s)
		}
	}
	return concurrent, serial
}

// Standards returns every standard tag declared by at least one suite.
func (r *Registry) Standards() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range r.suites {
		for _, tag := range s.Standards {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func defaultSuites() []models.SuiteDescriptor {
	return []models.SuiteDescriptor{
		{
			Name:           "SQL Injection",
			Spec:           "tests/security/injection.spec.js",
			Category:       "Injection",
			Standards:      []string{"OWASP-A03", "PCI-6.5.1"},
			EstimatedTests: 24,
			Timeout:        5 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "Cross-Site Scripting",
			Spec:           "tests/security/xss.spec.js",
			Category:       "XSS",
			Standards:      []string{"OWASP-A03", "PCI-6.5.7"},
			EstimatedTests: 18,
			Timeout:        5 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "Authentication",
			Spec:           "tests/security/authentication.spec.js",
			Category:       "Authentication",
			Standards:      []string{"OWASP-A07", "PCI-8.2", "ISO-A9"},
			EstimatedTests: 32,
			Timeout:        8 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "CSRF Protection",
			Spec:           "tests/security/csrf.spec.js",
			Category:       "CSRF",
			Standards:      []string{"OWASP-A01"},
			EstimatedTests: 12,
			Timeout:        4 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "API Security",
			Spec:           "tests/security/api.spec.js",
			Category:       "API Security",
			Standards:      []string{"OWASP-A01", "GDPR-32"},
			EstimatedTests: 28,
			Timeout:        6 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "File Upload",
			Spec:           "tests/security/upload.spec.js",
			Category:       "File Upload",
			Standards:      []string{"OWASP-A04", "ISO-A12"},
			EstimatedTests: 14,
			Timeout:        5 * time.Minute,
			Mode:           models.ExecModeConcurrent,
			RunnerKind:     models.RunnerKindProcess,
		},
		{
			Name:           "Browser Session",
			Spec:           "tests/security/browser/session.spec.js",
			Category:       "Session Management",
			Standards:      []string{"OWASP-A07", "PCI-8.2"},
			EstimatedTests: 16,
			Timeout:        10 * time.Minute,
			Mode:           models.ExecModeSerial,
			RunnerKind:     models.RunnerKindBrowser,
			Capabilities:   []string{models.CapabilityBrowserDriver},
		},
		{
			Name:           "Browser Access Control",
			Spec:           "tests/security/browser/access_control.spec.js",
			Category:       "Access Control",
			Standards:      []string{"OWASP-A01", "GDPR-25"},
			EstimatedTests: 20,
			Timeout:        10 * time.Minute,
			Mode:           models.ExecModeSerial,
			RunnerKind:     models.RunnerKindBrowser,
			Capabilities:   []string{models.CapabilityBrowserDriver},
		},
	}
}
