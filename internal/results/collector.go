package results

// Severity is the weight of a finding.
type Severity string

const (
	SeverityMessage Severity = "message"
	SeverityWarning Severity = "warning"
	SeverityFailure Severity = "failure"
)

// Finding is one reported observation from rule code.
type Finding struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// Markdown is a free-form markdown block. It carries no severity and does
// not participate in pass/fail computation.
type Markdown struct {
	Text string `json:"text"`
}

// Collector accumulates findings for one evaluation. The append operations
// never fail and may be called any number of times, including zero.
type Collector struct {
	findings  []Finding
	markdowns []Markdown
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{}
}

// Reset clears all accumulated findings and markdown blocks. Idempotent.
func (c *Collector) Reset() {
	c.findings = nil
	c.markdowns = nil
}

// AddMessage records an informational finding. path and line are optional;
// pass "" and 0 when absent.
func (c *Collector) AddMessage(text, path string, line int) {
	c.findings = append(c.findings, Finding{Severity: SeverityMessage, Text: text, Path: path, Line: line})
}

// AddWarning records a non-blocking warning finding.
func (c *Collector) AddWarning(text, path string, line int) {
	c.findings = append(c.findings, Finding{Severity: SeverityWarning, Text: text, Path: path, Line: line})
}

// AddFailure records a blocking failure finding.
func (c *Collector) AddFailure(text, path string, line int) {
	c.findings = append(c.findings, Finding{Severity: SeverityFailure, Text: text, Path: path, Line: line})
}

// AddMarkdown records a free-form markdown block.
func (c *Collector) AddMarkdown(text string) {
	c.markdowns = append(c.markdowns, Markdown{Text: text})
}

// HasFailures reports whether at least one failure finding was recorded.
func (c *Collector) HasFailures() bool {
	return c.count(SeverityFailure) > 0
}

// HasWarnings reports whether at least one warning finding was recorded.
func (c *Collector) HasWarnings() bool {
	return c.count(SeverityWarning) > 0
}

// ExitCode returns 0 when no failure finding was recorded, 1 otherwise.
// Message and warning counts never affect it.
func (c *Collector) ExitCode() int {
	if c.HasFailures() {
		return 1
	}
	return 0
}

// Counts returns the number of failures, warnings, and messages.
func (c *Collector) Counts() (failures, warnings, messages int) {
	return c.count(SeverityFailure), c.count(SeverityWarning), c.count(SeverityMessage)
}

// Findings returns a copy of all findings in append order.
func (c *Collector) Findings() []Finding {
	return append([]Finding{}, c.findings...)
}

// Markdowns returns a copy of all markdown blocks in append order.
func (c *Collector) Markdowns() []Markdown {
	return append([]Markdown{}, c.markdowns...)
}

// BySeverity returns findings of the given severity in append order.
func (c *Collector) BySeverity(s Severity) []Finding {
	var out []Finding
	for _, f := range c.findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

func (c *Collector) count(s Severity) int {
	n := 0
	for _, f := range c.findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
