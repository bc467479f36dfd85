package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bl4ck0w1/secsweep/internal/registry"
)

func NewSuitesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the registered security test suites",
		Long:  `List every suite in the static catalog with its category, execution mode, runner kind, timeout, and standard mappings.`,
		RunE:  runSuites,
	}
}

func runSuites(cmd *cobra.Command, args []string) error {
	reg, err := registry.NewRegistry()
	if err != nil {
		return fmt.Errorf("build suite registry: %w", err)
	}

	fmt.Println("Registered Security Test Suites:")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("%-24s %-20s %-11s %-8s %-8s %s\n", "SUITE", "CATEGORY", "MODE", "RUNNER", "TIMEOUT", "STANDARDS")

	for _, s := range reg.Suites() {
		fmt.Printf("%-24s %-20s %-11s %-8s %-8s %s\n",
			s.Name, s.Category, s.Mode, s.RunnerKind,
			s.Timeout.String(), strings.Join(s.Standards, ","))
	}

	concurrent, serial := reg.Partition()
	fmt.Printf("\n%d suites total: %d concurrent, %d serial (exclusive browser driver)\n",
		reg.Len(), len(concurrent), len(serial))
	return nil
}
