package evaluate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/gavel/internal/changeset"
	"github.com/dshills/gavel/internal/hosting"
	"github.com/dshills/gavel/internal/results"
	"github.com/dshills/gavel/internal/rulefile"
)

// ErrRuleFileNotFound aborts an evaluation when no rule file exists at the
// resolved path.
var ErrRuleFileNotFound = errors.New("rule file not found")

// Options configures one evaluation.
type Options struct {
	// BaseRef is the comparison point for the change model.
	BaseRef string
	// RuleFile is an explicit rule script path; empty probes the default
	// candidates in Dir.
	RuleFile string
	// Dir is the working directory for git and rule file resolution.
	Dir string
	// GitHub enables the PR metadata adapter.
	GitHub bool
	// Adapter overrides the default-constructed hosting adapter. Used by
	// tests and by callers that resolved the PR identity themselves.
	Adapter *hosting.Adapter
	// Environment is exposed to the rule context. Nil means the process
	// environment.
	Environment map[string]string
	// Log receives degraded-context diagnostics. Nil means os.Stderr.
	Log io.Writer
}

// Result is the terminal outcome of one evaluation.
type Result struct {
	Changes  *changeset.ChangeSet
	PR       *hosting.PullRequest // nil when absent
	Findings *results.Collector
	Passed   bool
	ExitCode int
}

// Evaluate runs the full pipeline. It returns an error only for
// infrastructure failures; rule-code errors are contained as a failure
// finding in the result.
func Evaluate(ctx context.Context, opts Options) (*Result, error) {
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}

	collector := results.New()

	path, exists := rulefile.Locate(opts.RuleFile, opts.Dir)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRuleFileNotFound, path)
	}

	builder := &changeset.Builder{Dir: opts.Dir}
	changes, err := builder.Build(ctx, opts.BaseRef)
	if err != nil {
		fmt.Fprintf(logw, "warning: %v; continuing with empty change set\n", err)
		changes = changeset.Empty()
	}

	var pr *hosting.PullRequest
	if opts.GitHub {
		pr = fetchPR(ctx, opts.Adapter, logw)
	}

	rule, err := rulefile.Load(path)
	if err != nil {
		return nil, err
	}

	env := opts.Environment
	if env == nil {
		env = processEnv()
	}

	if err := rule.Invoke(&rulefile.Context{
		Changes:     changes,
		PR:          pr,
		Environment: env,
		Results:     collector,
	}); err != nil {
		collector.AddFailure(ruleErrorText(err), "", 0)
	}

	return &Result{
		Changes:  changes,
		PR:       pr,
		Findings: collector,
		Passed:   !collector.HasFailures(),
		ExitCode: collector.ExitCode(),
	}, nil
}

// fetchPR builds the PR context when possible. Failures only degrade: the
// context stays absent and a diagnostic is logged, never a finding.
func fetchPR(ctx context.Context, adapter *hosting.Adapter, logw io.Writer) *hosting.PullRequest {
	if adapter == nil {
		var err error
		adapter, err = hosting.NewAdapter(hosting.Options{})
		if err != nil {
			fmt.Fprintf(logw, "warning: %v; continuing without PR context\n", err)
			return nil
		}
	}
	pr, err := adapter.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(logw, "warning: %v; continuing without PR context\n", err)
		return nil
	}
	return pr
}

func ruleErrorText(err error) string {
	var rerr *rulefile.RuleError
	if errors.As(err, &rerr) {
		if rerr.Stack != "" && rerr.Stack != rerr.Message {
			return rerr.Message + "\n" + rerr.Stack
		}
		return rerr.Message
	}
	return err.Error()
}

func processEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
