package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bl4ck0w1/secsweep/pkg/models"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

// Formatter renders one artifact format of a sealed RunReport.
type Formatter interface {
	Format(report *models.RunReport) ([]byte, error)
	Suffix() string
}

// Emitter writes the four run artifacts under the output directory with a
// shared timestamp-derived filename stem. Directory creation is the only
// fatal step; each individual artifact write is best-effort.
type Emitter struct {
	outputDir  string
	formatters []Formatter
	logger     *logrus.Logger
}

func NewEmitter(outputDir string, logger *logrus.Logger) *Emitter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Emitter{
		outputDir: outputDir,
		formatters: []Formatter{
			&jsonFormatter{},
			&htmlFormatter{},
			&csvFormatter{},
			&txtFormatter{},
		},
		logger: logger,
	}
}

// Emit renders every artifact and returns the paths that were written.
func (e *Emitter) Emit(report *models.RunReport) ([]string, error) {
	if err := utils.EnsureDir(e.outputDir); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", e.outputDir, err)
	}

	stem := "secsweep_" + report.Timestamp.Format("20060102_150405")
	var written []string
	for _, f := range e.formatters {
		data, err := f.Format(report)
		if err != nil {
			e.logger.Warnf("Failed to format %s artifact: %v", f.Suffix(), err)
			continue
		}
		path := filepath.Join(e.outputDir, utils.SanitizeFilename(stem+f.Suffix()))
		if err := utils.SafeWriteFile(path, data, 0o644); err != nil {
			e.logger.Warnf("Failed to write %s: %v", path, err)
			continue
		}
		e.logger.Infof("Report artifact written: %s", path)
		written = append(written, path)
	}
	return written, nil
}

type jsonFormatter struct{}

func (f *jsonFormatter) Suffix() string { return ".json" }

func (f *jsonFormatter) Format(report *models.RunReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

type csvFormatter struct{}

func (f *csvFormatter) Suffix() string { return "_findings.csv" }

func (f *csvFormatter) Format(report *models.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "suite", "severity", "likelihood", "risk_score", "category", "standard", "title", "location"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, fi := range report.Findings {
		row := []string{
			fi.ID, fi.Suite, fi.Severity, fi.Likelihood,
			strconv.Itoa(fi.RiskScore), fi.Category, fi.Standard, fi.Title, fi.Location,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type txtFormatter struct{}

func (f *txtFormatter) Suffix() string { return "_summary.txt" }

func (f *txtFormatter) Format(report *models.RunReport) ([]byte, error) {
	var b strings.Builder
	line := strings.Repeat("=", 63)

	fmt.Fprintf(&b, "SecSweep Security Report - %s\n%s\n\n", report.RunID, line)
	fmt.Fprintf(&b, "%s\n\n", report.ExecutiveSummary)
	fmt.Fprintf(&b, "Environment:      %s\n", report.Metadata.Environment)
	fmt.Fprintf(&b, "Generated:        %s\n", report.Timestamp.Format(time.RFC1123))
	fmt.Fprintf(&b, "Duration:         %s\n", utils.HumanizeDuration(report.Metadata.Duration))
	fmt.Fprintf(&b, "Security Score:   %.1f/100\n", report.Summary.SecurityScore)
	fmt.Fprintf(&b, "Risk Level:       %s\n\n", strings.ToUpper(report.Summary.RiskLevel))

	fmt.Fprintf(&b, "Suites: %d total, %d passed, %d failed, %d errored\n",
		report.Summary.TotalSuites, report.Summary.SuitesPassed,
		report.Summary.SuitesFailed, report.Summary.SuitesErrored)
	fmt.Fprintf(&b, "Tests:  %d total, %d passed, %d failed, %d skipped\n\n",
		report.Summary.TotalTests, report.Summary.TotalPassed,
		report.Summary.TotalFailed, report.Summary.TotalSkipped)

	fmt.Fprintf(&b, "Compliance:\n")
	for standard, pct := range report.ComplianceMetrics {
		fmt.Fprintf(&b, "  %-12s %.0f%%\n", standard, pct)
	}

	fmt.Fprintf(&b, "\nRecommendations:\n")
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, rec)
	}

	return []byte(b.String()), nil
}

type htmlFormatter struct {
	tmpl *template.Template
}

func (f *htmlFormatter) Suffix() string { return ".html" }

func (f *htmlFormatter) Format(report *models.RunReport) ([]byte, error) {
	if f.tmpl == nil {
		t, err := template.New("report").Funcs(template.FuncMap{
			"upper":    strings.ToUpper,
			"score":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
			"percent":  func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
			"duration": func(d time.Duration) string { return utils.HumanizeDuration(d) },
		}).Parse(htmlReport)
		if err != nil {
			return nil, fmt.Errorf("parse report template: %w", err)
		}
		f.tmpl = t
	}

	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render report template: %w", err)
	}
	return buf.Bytes(), nil
}

const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SecSweep Report {{.RunID}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1a1a2e; }
h1, h2 { border-bottom: 2px solid #e0e0e0; padding-bottom: .3rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d0d0; padding: .4rem .6rem; text-align: left; font-size: .9rem; }
th { background: #f4f4f8; }
.badge { display: inline-block; padding: .1rem .5rem; border-radius: .6rem; color: #fff; font-size: .8rem; }
.critical { background: #c0392b; } .high { background: #e67e22; } .medium { background: #d4a017; }
.low { background: #2980b9; } .info { background: #7f8c8d; }
.passed { background: #27ae60; } .failed { background: #c0392b; } .errored { background: #8e44ad; } .skipped { background: #7f8c8d; }
.summary { background: #f9f9fb; border: 1px solid #e0e0e0; padding: 1rem; border-radius: .4rem; }
</style>
</head>
<body>
<h1>SecSweep Security Report</h1>
<div class="summary">
<p>{{.ExecutiveSummary}}</p>
<p><strong>Run:</strong> {{.RunID}} &middot; <strong>Environment:</strong> {{.Metadata.Environment}} &middot;
<strong>Duration:</strong> {{duration .Metadata.Duration}}</p>
<p><strong>Security score:</strong> {{score .Summary.SecurityScore}}/100 &middot;
<strong>Risk level:</strong> <span class="badge {{.Summary.RiskLevel}}">{{upper .Summary.RiskLevel}}</span></p>
</div>

<h2>Suite Results</h2>
<table>
<tr><th>Suite</th><th>Category</th><th>Status</th><th>Run</th><th>Passed</th><th>Failed</th><th>Skipped</th><th>Duration</th></tr>
{{range .Results}}
<tr>
<td>{{.Suite}}</td><td>{{.Category}}</td>
<td><span class="badge {{.Status}}">{{upper .Status}}</span></td>
<td>{{.TestsRun}}{{if .CountsEstimated}} (est.){{end}}</td>
<td>{{.TestsPassed}}</td><td>{{.TestsFailed}}</td><td>{{.TestsSkipped}}</td>
<td>{{duration .Duration}}</td>
</tr>
{{end}}
</table>

<h2>Findings ({{.Summary.TotalFindings}})</h2>
{{if .Findings}}
<table>
<tr><th>Severity</th><th>Title</th><th>Category</th><th>Standard</th><th>Suite</th><th>Risk</th></tr>
{{range .Findings}}
<tr>
<td><span class="badge {{.Severity}}">{{upper .Severity}}</span></td>
<td>{{.Title}}</td><td>{{.Category}}</td><td>{{.Standard}}</td><td>{{.Suite}}</td><td>{{.RiskScore}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No vulnerability signatures were detected in suite output.</p>
{{end}}

<h2>Compliance</h2>
<table>
<tr><th>Standard</th><th>Coverage</th></tr>
{{range $standard, $pct := .ComplianceMetrics}}
<tr><td>{{$standard}}</td><td>{{percent $pct}}</td></tr>
{{end}}
</table>

<h2>Recommendations</h2>
<ol>
{{range .Recommendations}}<li>{{.}}</li>{{end}}
</ol>
</body>
</html>
`
