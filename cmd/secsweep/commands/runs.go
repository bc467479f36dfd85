package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/secsweep/internal/storage"
)

func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived security test runs",
		Long:  `List past runs from the data directory archive, newest first, with their score and risk level.`,
		RunE:  runRuns,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	_ = viper.BindPFlag("runs.limit", cmd.Flags().Lookup("limit"))
	return cmd
}

func runRuns(cmd *cobra.Command, args []string) error {
	archive, err := storage.NewArchive(
		viper.GetString("data_directory"),
		viper.GetBool("archive.compress"),
		viper.GetDuration("archive.retention"),
		logrus.StandardLogger(),
	)
	if err != nil {
		return fmt.Errorf("open run archive: %w", err)
	}

	entries, err := archive.List()
	if err != nil {
		return fmt.Errorf("list archived runs: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No archived runs found.")
		return nil
	}

	limit := viper.GetInt("runs.limit")
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	fmt.Println("Archived Security Runs:")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("%-42s %-20s %-10s %-9s %s\n", "RUN", "TIMESTAMP", "SCORE", "RISK", "FINDINGS")
	for _, e := range entries {
		fmt.Printf("%-42s %-20s %-10.1f %-9s %d\n",
			e.RunID, e.Timestamp.Format("2006-01-02 15:04:05"),
			e.SecurityScore, e.RiskLevel, e.TotalFindings)
	}
	return nil
}
