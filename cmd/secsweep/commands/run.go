package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bl4ck0w1/secsweep/internal/orchestrate"
	"github.com/bl4ck0w1/secsweep/internal/registry"
	"github.com/bl4ck0w1/secsweep/internal/report"
	"github.com/bl4ck0w1/secsweep/internal/runner"
	"github.com/bl4ck0w1/secsweep/internal/storage"
	"github.com/bl4ck0w1/secsweep/pkg/models"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

// ExitError carries the process exit code contract through cobra: 1 for
// suite failures, 2 for critical findings, 3 for orchestrator failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewRunCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full security test suite catalog",
		Long: `Execute every registered security test suite against the running target
application, extract vulnerability findings from suite output, score the
overall security posture, and write the report artifacts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSecurity(version)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory for report artifacts")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose per-suite logging")
	cmd.Flags().String("env", "", "Environment label recorded in the report")
	cmd.Flags().String("workdir", "", "Working directory the suite runner is invoked from")
	cmd.Flags().Bool("no-archive", false, "Skip archiving the run report to the data directory")
	cmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address during the run")
	cmd.Flags().Bool("headed", false, "Run browser-driven suites with a visible browser")

	_ = viper.BindPFlag("run.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("run.verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("run.environment", cmd.Flags().Lookup("env"))
	_ = viper.BindPFlag("run.workdir", cmd.Flags().Lookup("workdir"))
	_ = viper.BindPFlag("run.no_archive", cmd.Flags().Lookup("no-archive"))
	_ = viper.BindPFlag("run.metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	_ = viper.BindPFlag("run.headed", cmd.Flags().Lookup("headed"))

	return cmd
}

func runSecurity(version string) error {
	if viper.GetBool("run.verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	outputDir := viper.GetString("run.output")
	if outputDir == "" {
		outputDir = viper.GetString("output_directory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	reg, err := registry.NewRegistry()
	if err != nil {
		return &ExitError{Code: 3, Err: fmt.Errorf("build suite registry: %w", err)}
	}

	var metrics *utils.MetricsCollector
	if addr := viper.GetString("run.metrics_addr"); addr != "" {
		metrics = utils.NewMetricsCollector(true)
		go func() {
			if err := metrics.StartServerWithContext(ctx, addr); err != nil {
				logrus.Warnf("Metrics server stopped: %v", err)
			}
		}()
	}

	orch := orchestrate.NewOrchestrator(reg, orchestratorConfig(), version, metrics, logrus.StandardLogger())

	runReport, err := orch.Run(ctx, outputDir)
	if err != nil {
		return &ExitError{Code: 3, Err: fmt.Errorf("security run failed: %w", err)}
	}

	emitter := report.NewEmitter(outputDir, logrus.StandardLogger())
	if _, err := emitter.Emit(runReport); err != nil {
		return &ExitError{Code: 3, Err: fmt.Errorf("emit report: %w", err)}
	}

	if !viper.GetBool("run.no_archive") {
		archive, err := storage.NewArchive(
			viper.GetString("data_directory"),
			viper.GetBool("archive.compress"),
			viper.GetDuration("archive.retention"),
			logrus.StandardLogger(),
		)
		if err != nil {
			logrus.Warnf("Run archive unavailable: %v", err)
		} else if err := archive.Save(runReport); err != nil {
			logrus.Warnf("Failed to archive run: %v", err)
		}
	}

	displaySummary(runReport)

	if code := runReport.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func orchestratorConfig() orchestrate.Config {
	cfg := orchestrate.DefaultConfig()
	if wd := viper.GetString("run.workdir"); wd != "" {
		cfg.WorkDir = wd
	} else if wd := viper.GetString("work_dir"); wd != "" {
		cfg.WorkDir = wd
	}
	if env := viper.GetString("run.environment"); env != "" {
		cfg.Environment = env
	} else if env := viper.GetString("environment"); env != "" {
		cfg.Environment = env
	}
	cfg.Headless = !viper.GetBool("run.headed")
	if cmd := viper.GetString("runner.command"); cmd != "" {
		cfg.Runner = runner.Config{
			Command:    cmd,
			Args:       viper.GetStringSlice("runner.args"),
			MinVersion: viper.GetString("runner.min_version"),
		}
	}
	return cfg
}

func displaySummary(r *models.RunReport) {
	line := strings.Repeat("═", 63)
	fmt.Printf(`
Security Run Summary:
%s
Run ID:           %s
Suites:           %d (%d passed, %d failed, %d errored)
Tests:            %d (%d passed, %d failed, %d skipped)
Findings:         %d (Critical: %d, High: %d, Medium: %d, Low: %d)
Security Score:   %.1f/100
Risk Level:       %s
Duration:         %s
%s
`,
		line,
		r.RunID,
		r.Summary.TotalSuites, r.Summary.SuitesPassed, r.Summary.SuitesFailed, r.Summary.SuitesErrored,
		r.Summary.TotalTests, r.Summary.TotalPassed, r.Summary.TotalFailed, r.Summary.TotalSkipped,
		r.Summary.TotalFindings, r.Summary.CriticalFindings, r.Summary.HighFindings, r.Summary.MediumFindings, r.Summary.LowFindings,
		r.Summary.SecurityScore,
		strings.ToUpper(r.Summary.RiskLevel),
		utils.HumanizeDuration(r.Metadata.Duration),
		line,
	)
}
