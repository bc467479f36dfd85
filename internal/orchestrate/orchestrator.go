package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bl4ck0w1/secsweep/internal/extract"
	"github.com/bl4ck0w1/secsweep/internal/normalize"
	"github.com/bl4ck0w1/secsweep/internal/registry"
	"github.com/bl4ck0w1/secsweep/internal/runner"
	"github.com/bl4ck0w1/secsweep/internal/scoring"
	"github.com/bl4ck0w1/secsweep/pkg/models"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

type Config struct {
	WorkDir     string        `yaml:"work_dir" json:"work_dir"`
	Environment string        `yaml:"environment" json:"environment"`
	Headless    bool          `yaml:"headless" json:"headless"`
	SpawnRate   rate.Limit    `yaml:"spawn_rate" json:"spawn_rate"`
	SpawnBurst  int           `yaml:"spawn_burst" json:"spawn_burst"`
	Runner      runner.Config `yaml:"runner" json:"runner"`
}

func DefaultConfig() Config {
	return Config{
		WorkDir:     ".",
		Environment: "staging",
		Headless:    true,
		SpawnRate:   8,
		SpawnBurst:  4,
		Runner:      runner.DefaultConfig(),
	}
}

// Orchestrator drives one run: concurrent fan-out over independent suites,
// then the serial phase for suites that monopolize the browser driver, then
// normalization, extraction, scoring, and report assembly. All accumulation
// happens on the coordinating goroutine or into disjoint slots, so the run
// needs no locks.
type Orchestrator struct {
	registry   *registry.Registry
	process    *runner.ProcessRunner
	browser    *runner.BrowserRunner
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	scorer     *scoring.Scorer
	metrics    *utils.MetricsCollector
	limiter    *rate.Limiter
	logger     *logrus.Logger
	config     Config
	version    string

	// runnerFor resolves the runner family per descriptor; overridable in tests.
	runnerFor func(models.SuiteDescriptor) runner.Runner
}

func NewOrchestrator(reg *registry.Registry, config Config, version string, metrics *utils.MetricsCollector, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	if config.SpawnRate <= 0 {
		config.SpawnRate = DefaultConfig().SpawnRate
	}
	if config.SpawnBurst <= 0 {
		config.SpawnBurst = DefaultConfig().SpawnBurst
	}

	o := &Orchestrator{
		registry:   reg,
		process:    runner.NewProcessRunner(config.Runner, logger),
		browser:    runner.NewBrowserRunner(config.Runner, config.Headless, logger),
		normalizer: normalize.NewNormalizer(logger),
		extractor:  extract.NewExtractor(logger),
		scorer:     scoring.NewScorer(),
		metrics:    metrics,
		limiter:    rate.NewLimiter(config.SpawnRate, config.SpawnBurst),
		logger:     logger,
		config:     config,
		version:    version,
	}
	o.runnerFor = func(desc models.SuiteDescriptor) runner.Runner {
		return runner.ForDescriptor(desc, o.process, o.browser)
	}
	return o
}

// Run executes the full catalog and returns the sealed report. The only
// fatal error is failing to prepare the output directory before any suite
// starts; every per-suite failure is absorbed into an errored result.
func (o *Orchestrator) Run(ctx context.Context, outputDir string) (*models.RunReport, error) {
	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("prepare output directory %s: %w", outputDir, err)
	}

	runID := "run_" + uuid.NewString()
	start := time.Now()
	log := o.logger.WithField("run_id", runID)
	log.Infof("Starting security test run (%d suites)", o.registry.Len())

	concurrent, serial := o.registry.Partition()

	// Phase 1: every independent suite launches at once and the run suspends
	// until all of them settle. A failing sibling never cancels the others.
	phase1 := make([]models.SuiteResult, len(concurrent))
	var g errgroup.Group
	for i, desc := range concurrent {
		i, desc := i, desc
		g.Go(func() error {
			if err := o.limiter.Wait(ctx); err != nil {
				phase1[i] = erroredResult(desc, err)
				return nil
			}
			phase1[i] = o.executeSuite(ctx, desc)
			return nil
		})
	}
	_ = g.Wait()

	// Phase 2: suites holding the browser driver run one at a time, in
	// registry order, only after phase 1 has fully settled.
	phase2 := make([]models.SuiteResult, 0, len(serial))
	for _, desc := range serial {
		phase2 = append(phase2, o.executeSuite(ctx, desc))
	}

	results := append(phase1, phase2...)

	var findings []models.Finding
	for _, r := range results {
		findings = append(findings, r.Findings...)
	}

	summary := o.scorer.Summarize(results, findings)
	compliance := scoring.ComplianceMap(o.registry.Standards(), findings)

	report := &models.RunReport{
		RunID:             runID,
		Timestamp:         start,
		Summary:           summary,
		Results:           results,
		Findings:          findings,
		Compliance:        compliance,
		ComplianceMetrics: scoring.ComplianceMetrics(results),
		Recommendations:   scoring.Recommendations(results, findings, compliance),
		ExecutiveSummary:  scoring.ExecutiveSummary(summary, o.config.Environment),
		Metadata: models.RunMetadata{
			Environment:  o.config.Environment,
			ToolVersions: o.toolVersions(ctx),
			Duration:     time.Since(start),
			GeneratedBy:  "secsweep",
			ToolVersion:  o.version,
		},
	}

	log.WithField("duration_ms", report.Metadata.Duration.Milliseconds()).
		Infof("Run completed: score %.1f, risk %s, %d findings",
			summary.SecurityScore, summary.RiskLevel, summary.TotalFindings)
	return report, nil
}

// executeSuite runs one suite end to end: spawn, normalize, extract. Every
// failure mode collapses into the returned result; this function never
// propagates an error.
func (o *Orchestrator) executeSuite(ctx context.Context, desc models.SuiteDescriptor) models.SuiteResult {
	log := o.logger.WithField("suite", desc.Name)
	log.Infof("Running %s suite (%s, %s)", desc.Name, desc.Mode, desc.RunnerKind)

	if o.metrics != nil {
		o.metrics.SuiteStarted()
		defer o.metrics.SuiteSettled()
	}

	inv, err := o.runnerFor(desc).Run(ctx, desc, o.config.WorkDir)
	if err != nil {
		log.WithError(err).Warn("Suite execution errored")
		res := erroredResult(desc, err)
		if inv != nil {
			res.Duration = inv.Duration
		}
		o.observe(desc, res)
		return res
	}

	counts, measured := o.normalizer.Counts(inv.Output, desc.EstimatedTests)
	res := models.SuiteResult{
		Suite:           desc.Name,
		Category:        desc.Category,
		Status:          normalize.DeriveStatus(false, inv.ExitCode, counts),
		Duration:        inv.Duration,
		TestsRun:        counts.Run,
		TestsPassed:     counts.Passed,
		TestsFailed:     counts.Failed,
		TestsSkipped:    counts.Skipped,
		CountsEstimated: !measured,
		Findings:        o.extractor.Extract(inv.Output, desc),
		Standards:       desc.Standards,
	}

	log.Infof("Suite %s: %s (%d/%d passed, %d findings, %v)",
		desc.Name, res.Status, res.TestsPassed, res.TestsRun, len(res.Findings), res.Duration.Round(time.Millisecond))
	o.observe(desc, res)
	return res
}

func (o *Orchestrator) observe(desc models.SuiteDescriptor, res models.SuiteResult) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveSuite(desc.Name, desc.Mode, res.Status, res.Duration)
	o.metrics.CountTests(res.TestsPassed, res.TestsFailed, res.TestsSkipped)
	for _, f := range res.Findings {
		o.metrics.CountFinding(f.Severity, f.Category)
	}
}

func (o *Orchestrator) toolVersions(ctx context.Context) map[string]string {
	versions := map[string]string{"secsweep": o.version}

	verCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if node, err := o.process.RunnerVersion(verCtx); err == nil {
		versions["node"] = node
		if !o.process.MeetsMinVersion(node) {
			o.logger.Warnf("Test runner runtime %s is below the supported minimum", node)
		}
	} else {
		o.logger.WithError(err).Debug("Could not determine runner version")
	}
	return versions
}

func erroredResult(desc models.SuiteDescriptor, err error) models.SuiteResult {
	return models.SuiteResult{
		Suite:     desc.Name,
		Category:  desc.Category,
		Status:    models.SuiteStatusErrored,
		Standards: desc.Standards,
		Error:     err.Error(),
	}
}
