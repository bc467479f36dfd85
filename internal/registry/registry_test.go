package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

func TestDefaultRegistryIsValid(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 8, reg.Len())

	for _, s := range reg.Suites() {
		s := s
		assert.NoError(t, s.Validate(), "suite %s", s.Name)
	}
}

func TestPartitionPreservesRegistryOrder(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	concurrent, serial := reg.Partition()
	assert.Len(t, concurrent, 6)
	assert.Len(t, serial, 2)

	for _, s := range concurrent {
		assert.Equal(t, models.ExecModeConcurrent, s.Mode)
	}
	for _, s := range serial {
		assert.Equal(t, models.ExecModeSerial, s.Mode)
		assert.True(t, s.RequiresCapability(models.CapabilityBrowserDriver))
	}

	// Within each partition the catalog order must survive.
	assert.Equal(t, "SQL Injection", concurrent[0].Name)
	assert.Equal(t, "File Upload", concurrent[len(concurrent)-1].Name)
	assert.Equal(t, "Browser Session", serial[0].Name)
	assert.Equal(t, "Browser Access Control", serial[1].Name)
}

func TestNewRegistryWithRejectsInvalidDescriptor(t *testing.T) {
	_, err := NewRegistryWith([]models.SuiteDescriptor{
		{
			Name:       "Orphan Serial",
			Spec:       "tests/orphan.spec.js",
			Timeout:    time.Minute,
			Mode:       models.ExecModeSerial,
			RunnerKind: models.RunnerKindBrowser,
			// no capabilities declared
		},
	})
	assert.Error(t, err)
}

func TestSuitesReturnsACopy(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	suites := reg.Suites()
	suites[0].Name = "Mutated"
	assert.Equal(t, "SQL Injection", reg.Suites()[0].Name)
}

func TestStandardsAreDeduplicated(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	tags := reg.Standards()
	seen := make(map[string]int)
	for _, tag := range tags {
		seen[tag]++
	}
	// OWASP-A03 is declared by two suites but must appear once.
	assert.Equal(t, 1, seen["OWASP-A03"])
	assert.Contains(t, tags, "GDPR-32")
	assert.Contains(t, tags, "PCI-8.2")
}
