package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/gavel/internal/config"
	"github.com/dshills/gavel/internal/evaluate"
	"github.com/dshills/gavel/internal/hosting"
	"github.com/dshills/gavel/internal/results"
	"github.com/dshills/gavel/internal/rulefile"
	"github.com/spf13/cobra"
)

var (
	flagBase     string
	flagRuleFile string
	flagFormat   string
	flagOut      string
	flagGitHub   bool
	flagComment  bool
	flagRepo     string
	flagPR       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the reviewfile against the current changes",
	Long: "Run locates the reviewfile, builds the change model against the base ref, " +
		"optionally fetches PR metadata from GitHub, and executes the rule function. " +
		"Exits 0 when no failure was reported and 1 otherwise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		runEvaluation(cfg)
		return nil
	},
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagBase != "" {
		m["baseRef"] = flagBase
	}
	if flagRuleFile != "" {
		m["ruleFile"] = flagRuleFile
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagGitHub {
		m["github"] = "true"
	}
	if flagComment {
		m["comment"] = "true"
	}
	return m
}

func runEvaluation(cfg config.Config) {
	ctx := context.Background()

	useGitHub := cfg.GitHub || flagPR > 0 || flagRepo != ""
	adapter := buildAdapter()

	res, err := evaluate.Evaluate(ctx, evaluate.Options{
		BaseRef:  cfg.BaseRef,
		RuleFile: cfg.RuleFile,
		GitHub:   useGitHub,
		Adapter:  adapter,
	})
	if err != nil {
		// Infrastructure failure: hard stop before any report.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, evaluate.ErrRuleFileNotFound), errors.Is(err, rulefile.ErrNotFound):
			exitCode = ExitUsageError
		default:
			exitCode = ExitRuntimeError
		}
		return
	}

	report := &results.Report{Findings: res.Findings, Changes: res.Changes, PR: res.PR}
	if err := results.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if cfg.Comment {
		postComment(ctx, adapter, report)
	}

	exitCode = res.ExitCode
}

// buildAdapter constructs a hosting adapter from explicit flags. Returns nil
// when flags are absent or unresolvable; the evaluator then falls back to
// environment resolution.
func buildAdapter() *hosting.Adapter {
	if flagRepo == "" && flagPR == 0 {
		return nil
	}
	opts := hosting.Options{Number: flagPR}
	if flagRepo != "" {
		parts := strings.SplitN(flagRepo, "/", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "warning: --repo must be owner/repo, got %q\n", flagRepo)
			return nil
		}
		opts.Owner, opts.Repo = parts[0], parts[1]
	}
	adapter, err := hosting.NewAdapter(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return adapter
}

// postComment renders the markdown report and publishes it on the PR.
func postComment(ctx context.Context, adapter *hosting.Adapter, report *results.Report) {
	if adapter == nil {
		var err error
		adapter, err = hosting.NewAdapter(hosting.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot post comment: %v\n", err)
			return
		}
	}
	var sb strings.Builder
	if err := (&results.MarkdownWriter{}).Write(&sb, report); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot render comment: %v\n", err)
		return
	}
	if err := adapter.PostComment(ctx, sb.String()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot post comment: %v\n", err)
	}
}

func init() {
	runCmd.Flags().StringVar(&flagBase, "base", "", "Base ref to diff against (default origin/main)")
	runCmd.Flags().StringVar(&flagRuleFile, "rulefile", "", "Rule script path (default: probe reviewfile.js candidates)")
	runCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, markdown)")
	runCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	runCmd.Flags().BoolVar(&flagGitHub, "github", false, "Fetch PR metadata from GitHub")
	runCmd.Flags().BoolVar(&flagComment, "comment", false, "Post the markdown report as a PR comment")
	runCmd.Flags().StringVar(&flagRepo, "repo", "", "GitHub repository as owner/repo (default: detect from remote)")
	runCmd.Flags().IntVar(&flagPR, "pr", 0, "Pull request number (default: GAVEL_PR_NUMBER or PR_NUMBER)")
}
