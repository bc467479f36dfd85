package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// BrowserRunner executes browser-driven suites. The suites themselves run as
// external processes like everything else, but they monopolize the browser
// automation driver, so the runner performs a one-time driver preflight and
// holds an exclusivity lock for the whole invocation.
type BrowserRunner struct {
	process   *ProcessRunner
	logger    *logrus.Logger
	mu        sync.Mutex
	preflight bool
	headless  bool
}

func NewBrowserRunner(config Config, headless bool, logger *logrus.Logger) *BrowserRunner {
	if logger == nil {
		logger = logrus.New()
	}
	return &BrowserRunner{
		process:  NewProcessRunner(config, logger),
		logger:   logger,
		headless: headless,
	}
}

func (b *BrowserRunner) Run(ctx context.Context, desc models.SuiteDescriptor, workDir string) (*Invocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureDriver(); err != nil {
		return nil, fmt.Errorf("browser driver preflight: %w", err)
	}
	return b.process.Run(ctx, desc, workDir)
}

// ensureDriver verifies the automation driver can actually be launched before
// the suite process is spawned, so a missing browser surfaces as a runner
// error rather than an opaque suite failure.
func (b *BrowserRunner) ensureDriver() error {
	if b.preflight {
		return nil
	}

	if err := playwright.Install(); err != nil {
		b.logger.WithError(err).Warn("Playwright browser install failed (continuing if already installed)")
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start driver: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}
	if err := browser.Close(); err != nil {
		b.logger.WithError(err).Warn("Preflight browser close failed")
	}
	if err := pw.Stop(); err != nil {
		return fmt.Errorf("stop driver: %w", err)
	}

	b.preflight = true
	b.logger.Info("Browser driver preflight completed")
	return nil
}

// ForDescriptor selects the runner family from the descriptor's explicit
// runner kind field.
func ForDescriptor(desc models.SuiteDescriptor, process *ProcessRunner, browser *BrowserRunner) Runner {
	if desc.RunnerKind == models.RunnerKindBrowser {
		return browser
	}
	return process
}
