package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TextWriter outputs a human-readable terminal report.
type TextWriter struct{}

var (
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel = color.New(color.FgYellow, color.Bold).SprintFunc()
	noteLabel = color.New(color.FgCyan).SprintFunc()
)

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	failures, warnings, messages := report.Findings.Counts()

	ew.printf("Gavel Review\n")
	if cs := report.Changes; cs != nil {
		ew.printf("Changes: %d created, %d modified, %d deleted\n",
			len(cs.CreatedFiles), len(cs.ModifiedFiles), len(cs.DeletedFiles))
	}
	if pr := report.PR; pr != nil {
		ew.printf("PR #%d: %s (+%d/-%d, %d files)\n",
			pr.Number, pr.Title, pr.Additions, pr.Deletions, pr.ChangedFiles)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d failures, %d warnings, %d messages\n",
		failures, warnings, messages)
	ew.println(strings.Repeat("─", 60))

	sections := []struct {
		severity Severity
		label    string
		sprint   func(a ...interface{}) string
	}{
		{SeverityFailure, "FAIL", failLabel},
		{SeverityWarning, "WARN", warnLabel},
		{SeverityMessage, "NOTE", noteLabel},
	}
	for _, s := range sections {
		findings := report.Findings.BySeverity(s.severity)
		if len(findings) == 0 {
			continue
		}
		ew.println("")
		for _, f := range findings {
			if f.Path != "" && f.Line > 0 {
				ew.printf("  %s  %s (%s:%d)\n", s.sprint(s.label), f.Text, f.Path, f.Line)
			} else if f.Path != "" {
				ew.printf("  %s  %s (%s)\n", s.sprint(s.label), f.Text, f.Path)
			} else {
				ew.printf("  %s  %s\n", s.sprint(s.label), f.Text)
			}
		}
	}

	if markdowns := report.Findings.Markdowns(); len(markdowns) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		for _, m := range markdowns {
			ew.printf("%s\n", m.Text)
		}
	}

	if failures == 0 && warnings == 0 && messages == 0 && len(report.Findings.Markdowns()) == 0 {
		ew.println("\nNo findings. Looks good!")
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
