package extract

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/bl4ck0w1/secsweep/pkg/models"
	"github.com/bl4ck0w1/secsweep/pkg/utils"
)

// signature is one entry of the fixed, ordered vulnerability pattern table.
// The extractor is a coarse text heuristic over suite output: a match means
// "the suite's own failure message mentions this vulnerability class", not a
// formal proof.
type signature struct {
	pattern  *regexp.Regexp
	title    string
	severity string
	category string
	standard string
}

var signatures = []signature{
	{regexp.MustCompile(`(?i)SQL injection`), "SQL Injection Detected", models.SeverityCritical, "SQL Injection", "OWASP-A03"},
	{regexp.MustCompile(`(?i)cross-site scripting|\bXSS\b`), "Cross-Site Scripting Detected", models.SeverityHigh, "XSS", "OWASP-A03"},
	{regexp.MustCompile(`(?i)auth(entication)? bypass`), "Authentication Bypass", models.SeverityCritical, "Authentication", "OWASP-A07"},
	{regexp.MustCompile(`(?i)cross-site request forgery|\bCSRF\b.{0,40}(missing|invalid|absent|bypass)`), "CSRF Protection Failure", models.SeverityHigh, "CSRF", "OWASP-A01"},
	{regexp.MustCompile(`(?i)session (fixation|hijack)`), "Session Handling Weakness", models.SeverityHigh, "Session Management", "OWASP-A07"},
	{regexp.MustCompile(`(?i)insecure direct object|\bIDOR\b|broken access control`), "Broken Access Control", models.SeverityHigh, "Access Control", "OWASP-A01"},
	{regexp.MustCompile(`(?i)unrestricted file upload|malicious file accepted`), "Unrestricted File Upload", models.SeverityCritical, "File Upload", "OWASP-A04"},
	{regexp.MustCompile(`(?i)sensitive data exposure|information disclosure`), "Information Disclosure", models.SeverityMedium, "Information Disclosure", "GDPR-32"},
	{regexp.MustCompile(`(?i)weak password polic|default credentials`), "Weak Credential Policy", models.SeverityMedium, "Authentication", "PCI-8.2"},
	{regexp.MustCompile(`(?i)rate limit(ing)? (missing|not enforced|absent)`), "Missing Rate Limiting", models.SeverityMedium, "API Security", "OWASP-A04"},
	{regexp.MustCompile(`(?i)missing security header`), "Missing Security Header", models.SeverityLow, "Configuration", "OWASP-A05"},
}

var remediationByCategory = map[string]string{
	"SQL Injection":          "Use parameterized queries or the ORM's bound-parameter API for every database access; never interpolate user input into SQL.",
	"XSS":                    "Encode all user-controlled output for its HTML context and enable a restrictive Content-Security-Policy.",
	"Authentication":         "Enforce server-side session checks on every protected route and require strong, unique credentials with account lockout.",
	"CSRF":                   "Issue per-session CSRF tokens and validate them on every state-changing request.",
	"Session Management":     "Regenerate session identifiers at privilege changes, set Secure/HttpOnly/SameSite cookie flags, and expire idle sessions.",
	"Access Control":         "Authorize every object access against the authenticated principal on the server; never trust client-supplied identifiers.",
	"File Upload":            "Validate upload content type and extension server-side, store uploads outside the web root, and scan them before serving.",
	"Information Disclosure": "Strip stack traces, version banners, and internal identifiers from every client-facing response.",
	"API Security":           "Apply authentication, authorization, and rate limiting uniformly across all API endpoints.",
	"Configuration":          "Set the standard security response headers (CSP, X-Content-Type-Options, X-Frame-Options, HSTS) at the middleware layer.",
}

var impactBySeverity = map[string]string{
	models.SeverityCritical: "Full compromise of application data or user accounts is possible; exploitation requires little skill and is likely already automated.",
	models.SeverityHigh:     "An attacker can access or modify data belonging to other users, or escalate privileges within the application.",
	models.SeverityMedium:   "Exposure weakens the application's defensive posture and can be chained with other flaws into a practical attack.",
	models.SeverityLow:      "Limited direct impact, but the weakness aids reconnaissance and erodes defense in depth.",
	models.SeverityInfo:     "Informational signal with no direct security impact.",
}

// Extractor pattern-scans raw runner output for known vulnerability
// signatures. It is a pure function of its inputs: identical output always
// yields identical findings with identical identifiers.
type Extractor struct {
	logger *logrus.Logger
}

func NewExtractor(logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(output string, desc models.SuiteDescriptor) []models.Finding {
	var findings []models.Finding

	for patternIdx, sig := range signatures {
		matches := sig.pattern.FindAllString(output, -1)
		for matchIdx, fragment := range matches {
			f := models.Finding{
				ID:          findingID(desc.Name, patternIdx, matchIdx),
				Title:       sig.title,
				Description: fmt.Sprintf("Suite output matched the %s signature: %q", sig.category, utils.TruncateString(fragment, 120)),
				Severity:    sig.severity,
				Category:    sig.category,
				Standard:    sig.standard,
				Location:    desc.Spec,
				Remediation: remediation(sig.category),
				Impact:      impactBySeverity[sig.severity],
				Likelihood:  models.LikelihoodMedium,
				Suite:       desc.Name,
			}
			f.RiskScore = f.CalculateRiskScore()
			findings = append(findings, f)
		}
	}

	if len(findings) > 0 {
		e.logger.Warnf("Extracted %d findings from suite %s", len(findings), desc.Name)
	}
	return findings
}

// findingID hashes (suite, pattern index, match index) so re-running over
// identical output reproduces identical identifiers.
func findingID(suite string, patternIdx, matchIdx int) string {
	h := xxh3.HashString(fmt.Sprintf("%s:%d:%d", suite, patternIdx, matchIdx))
	return fmt.Sprintf("finding_%016x", h)
}

func remediation(category string) string {
	if r, ok := remediationByCategory[category]; ok {
		return r
	}
	return "Investigate the finding and apply the appropriate security control for the affected component."
}

// SignatureCount is exposed for registry sanity checks and tests.
func SignatureCount() int {
	return len(signatures)
}
