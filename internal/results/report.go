package results

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/gavel/internal/changeset"
	"github.com/dshills/gavel/internal/hosting"
)

// Report bundles the collector's final state with the change and PR context
// it was produced against. Renderers derive everything from this.
type Report struct {
	Findings *Collector
	Changes  *changeset.ChangeSet
	PR       *hosting.PullRequest
}

// Writer renders a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
