package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/secsweep/pkg/models"
)

// Counts is the canonical test tally decoded from raw runner output.
type Counts struct {
	Run     int
	Passed  int
	Failed  int
	Skipped int
}

// OutputParser is one decoding strategy. Parsers are tried in order and the
// first success wins; a false second return means "not my shape", never an
// error.
type OutputParser interface {
	Name() string
	Parse(output string) (Counts, bool)
}

// Normalizer converts heterogeneous raw suite output into canonical counts.
// When every parser misses, the descriptor's estimated test count substitutes
// for ground truth and the result is marked estimated.
type Normalizer struct {
	parsers []OutputParser
	logger  *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Normalizer{
		parsers: []OutputParser{
			&statsBlockParser{},
			&testListParser{},
			&linePatternParser{},
		},
		logger: logger,
	}
}

// Counts runs the parser chain over raw output. The returned bool reports
// whether the counts were measured (true) or estimated (false).
func (n *Normalizer) Counts(output string, estimatedTests int) (Counts, bool) {
	for _, p := range n.parsers {
		if c, ok := p.Parse(output); ok {
			n.logger.Debugf("Output decoded by %s parser", p.Name())
			return c, true
		}
	}
	n.logger.Debug("No parser matched, falling back to estimated test count")
	return Counts{Run: estimatedTests}, false
}

// DeriveStatus is a pure function of the runner outcome and decoded counts.
func DeriveStatus(runnerFailed bool, exitCode int, counts Counts) string {
	switch {
	case runnerFailed:
		return models.SuiteStatusErrored
	case exitCode == 0:
		return models.SuiteStatusPassed
	case counts.Run > 0:
		return models.SuiteStatusFailed
	default:
		return models.SuiteStatusErrored
	}
}

// statsBlockParser decodes the summary-counters shape: a JSON document with a
// "stats" object carrying aggregate tallies (mocha's json reporter).
type statsBlockParser struct{}

func (p *statsBlockParser) Name() string { return "stats_block" }

func (p *statsBlockParser) Parse(output string) (Counts, bool) {
	doc, ok := extractJSON(output)
	if !ok {
		return Counts{}, false
	}
	var payload struct {
		Stats *struct {
			Tests    int `json:"tests"`
			Passes   int `json:"passes"`
			Failures int `json:"failures"`
			Pending  int `json:"pending"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(doc), &payload); err != nil || payload.Stats == nil {
		return Counts{}, false
	}
	return Counts{
		Run:     payload.Stats.Tests,
		Passed:  payload.Stats.Passes,
		Failed:  payload.Stats.Failures,
		Skipped: payload.Stats.Pending,
	}, true
}

// testListParser decodes the per-test list shape: a JSON document with a
// "tests" array of individual test records carrying a state field.
type testListParser struct{}

func (p *testListParser) Name() string { return "test_list" }

func (p *testListParser) Parse(output string) (Counts, bool) {
	doc, ok := extractJSON(output)
	if !ok {
		return Counts{}, false
	}
	var payload struct {
		Tests []struct {
			State string `json:"state"`
		} `json:"tests"`
	}
	if err := json.Unmarshal([]byte(doc), &payload); err != nil || len(payload.Tests) == 0 {
		return Counts{}, false
	}
	var c Counts
	c.Run = len(payload.Tests)
	for _, t := range payload.Tests {
		switch strings.ToLower(t.State) {
		case "passed":
			c.Passed++
		case "failed":
			c.Failed++
		case "pending", "skipped":
			c.Skipped++
		}
	}
	return c, true
}

// linePatternParser scans free-text output for the classic reporter epilogue
// lines, e.g. "12 passing" / "3 failing" / "1 pending".
type linePatternParser struct{}

var countLine = regexp.MustCompile(`(?m)^\s*(\d+)\s+(passing|failing|pending)\b`)

func (p *linePatternParser) Name() string { return "line_pattern" }

func (p *linePatternParser) Parse(output string) (Counts, bool) {
	matches := countLine.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return Counts{}, false
	}
	var c Counts
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "passing":
			c.Passed += n
		case "failing":
			c.Failed += n
		case "pending":
			c.Skipped += n
		}
	}
	c.Run = c.Passed + c.Failed + c.Skipped
	return c, c.Run > 0
}

// extractJSON pulls the outermost JSON object out of mixed output. Runners
// commonly prefix the document with install noise and suffix it with blank
// lines, so the slice spans the first '{' through the last '}'.
func extractJSON(output string) (string, bool) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return output[start : end+1], true
}
