package results

import (
	"fmt"
	"io"
)

// MarkdownWriter outputs a report suitable for posting as a single PR
// comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	failures, warnings, messages := report.Findings.Counts()

	switch {
	case report.Findings.HasFailures():
		ew.printf("## :x: Gavel review failed\n\n")
	case report.Findings.HasWarnings():
		ew.printf("## :warning: Gavel review passed with warnings\n\n")
	default:
		ew.printf("## :white_check_mark: Gavel review passed\n\n")
	}

	if cs := report.Changes; cs != nil {
		ew.printf("%d created, %d modified, %d deleted files\n\n",
			len(cs.CreatedFiles), len(cs.ModifiedFiles), len(cs.DeletedFiles))
	}

	sections := []struct {
		severity Severity
		heading  string
		count    int
	}{
		{SeverityFailure, "Failures", failures},
		{SeverityWarning, "Warnings", warnings},
		{SeverityMessage, "Messages", messages},
	}
	for _, s := range sections {
		findings := report.Findings.BySeverity(s.severity)
		if len(findings) == 0 {
			continue
		}
		ew.printf("### %s (%d)\n\n", s.heading, s.count)
		for _, f := range findings {
			ew.printf("- %s%s\n", f.Text, mdLocation(f))
		}
		ew.printf("\n")
	}

	for _, md := range report.Findings.Markdowns() {
		ew.printf("%s\n\n", md.Text)
	}

	return ew.err
}

func mdLocation(f Finding) string {
	if f.Path == "" {
		return ""
	}
	if f.Line > 0 {
		return fmt.Sprintf(" (`%s:%d`)", f.Path, f.Line)
	}
	return fmt.Sprintf(" (`%s`)", f.Path)
}
