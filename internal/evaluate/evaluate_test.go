package evaluate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/gavel/internal/hosting"
	"github.com/dshills/gavel/internal/results"
	"github.com/dshills/gavel/internal/rulefile"
)

// newRepo creates a git repo with a "base" branch and one commit on top that
// creates fresh.go and modifies base.go.
func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	git("init", "-b", "main")
	git("config", "user.email", "test@example.com")
	git("config", "user.name", "Test")
	write("base.go", "package main\n\nvar a = 1\n")
	git("add", ".")
	git("commit", "-m", "base")
	git("branch", "base")
	write("fresh.go", "package main\n\nvar fresh = true\n")
	write("base.go", "package main\n\nvar a = 2\n")
	git("add", "-A")
	git("commit", "-m", "work")
	return dir
}

func writeReviewfile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "reviewfile.js"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluate_Pass(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		if (ctx.changeSet.hasChanges("*.go")) {
			message("go files changed");
		}
	};`)

	res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Passed || res.ExitCode != 0 {
		t.Errorf("Passed=%v ExitCode=%d, want true/0", res.Passed, res.ExitCode)
	}
	if len(res.Changes.CreatedFiles) != 1 || res.Changes.CreatedFiles[0] != "fresh.go" {
		t.Errorf("CreatedFiles = %v, want [fresh.go]", res.Changes.CreatedFiles)
	}
	if msgs := res.Findings.BySeverity(results.SeverityMessage); len(msgs) != 1 {
		t.Errorf("messages = %+v, want one", msgs)
	}
}

func TestEvaluate_FailFinding(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		fail("not allowed", "fresh.go", 1);
	};`)

	res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Passed || res.ExitCode != 1 {
		t.Errorf("Passed=%v ExitCode=%d, want false/1", res.Passed, res.ExitCode)
	}
}

// A deliberate fail() followed by an uncaught throw yields exactly two
// failure findings: the declared one and the contained error.
func TestEvaluate_FailThenThrow(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		fail("x");
		throw new Error("unexpected");
	};`)

	res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	failures := res.Findings.BySeverity(results.SeverityFailure)
	if len(failures) != 2 {
		t.Fatalf("failures = %+v, want exactly 2", failures)
	}
	if failures[0].Text != "x" {
		t.Errorf("failures[0] = %q, want %q", failures[0].Text, "x")
	}
	if !strings.Contains(failures[1].Text, "unexpected") {
		t.Errorf("failures[1] = %q, want the thrown message", failures[1].Text)
	}
	if res.Passed || res.ExitCode != 1 {
		t.Errorf("Passed=%v ExitCode=%d, want false/1", res.Passed, res.ExitCode)
	}
}

// A missing rule file is an infrastructure failure: no result, no findings.
func TestEvaluate_RuleFileMissing(t *testing.T) {
	dir := newRepo(t)

	res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
	if !errors.Is(err, ErrRuleFileNotFound) {
		t.Errorf("error = %v, want ErrRuleFileNotFound", err)
	}
	if res != nil {
		t.Error("no result may be produced for an infra failure")
	}
}

func TestEvaluate_RuleFileMalformed(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, "module.exports = 42;")

	_, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
	var serr *rulefile.ShapeError
	if !errors.As(err, &serr) {
		t.Errorf("error = %v, want *rulefile.ShapeError", err)
	}
}

// An unusable git backend degrades to an empty change set; the evaluation
// still completes.
func TestEvaluate_DegradeToEmptyChangeSet(t *testing.T) {
	dir := t.TempDir() // not a git repo
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		message("files=" + ctx.changeSet.fileDiffs.length);
	};`)

	var log bytes.Buffer
	res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir, Log: &log})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Passed {
		t.Error("degraded context must not fail the evaluation")
	}
	if msgs := res.Findings.BySeverity(results.SeverityMessage); len(msgs) != 1 || msgs[0].Text != "files=0" {
		t.Errorf("messages = %+v, want files=0", msgs)
	}
	if !strings.Contains(log.String(), "empty change set") {
		t.Errorf("degradation should be logged, got %q", log.String())
	}
}

// PR context requested but upstream fails: prContext is absent, the change
// set is still populated, and the evaluation completes.
func TestEvaluate_PRFetchFails(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		message("pr=" + (ctx.prContext === null));
		message("available=" + ctx.isHostingPlatformAvailable);
		message("changes=" + ctx.changeSet.fileDiffs.length);
	};`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	adapter, err := hosting.NewAdapter(hosting.Options{
		Owner: "acme", Repo: "widgets", Number: 7, Token: "t",
		APIBaseURL: srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	var log bytes.Buffer
	res, err := Evaluate(context.Background(), Options{
		BaseRef: "base",
		Dir:     dir,
		GitHub:  true,
		Adapter: adapter,
		Log:     &log,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.PR != nil {
		t.Error("PR must be absent after a fetch failure")
	}
	msgs := res.Findings.BySeverity(results.SeverityMessage)
	wants := []string{"pr=true", "available=false", "changes=2"}
	if len(msgs) != len(wants) {
		t.Fatalf("messages = %+v, want %d", msgs, len(wants))
	}
	for i, want := range wants {
		if msgs[i].Text != want {
			t.Errorf("message[%d] = %q, want %q", i, msgs[i].Text, want)
		}
	}
	// Degradation is a log-level side effect, not a finding
	if res.Findings.HasFailures() || res.Findings.HasWarnings() {
		t.Error("PR fetch failure must not produce findings")
	}
	if !strings.Contains(log.String(), "without PR context") {
		t.Errorf("degradation should be logged, got %q", log.String())
	}
}

func TestEvaluate_PRFetchSucceeds(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		if (!ctx.prContext.titleMatches("WIP")) {
			message("title clean");
		}
	};`)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 7, "title": "Ready to merge", "state": "open"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter, err := hosting.NewAdapter(hosting.Options{
		Owner: "acme", Repo: "widgets", Number: 7, Token: "t",
		APIBaseURL: srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	res, err := Evaluate(context.Background(), Options{
		BaseRef: "base", Dir: dir, GitHub: true, Adapter: adapter,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.PR == nil || res.PR.Number != 7 {
		t.Fatalf("PR = %+v, want #7", res.PR)
	}
	if msgs := res.Findings.BySeverity(results.SeverityMessage); len(msgs) != 1 || msgs[0].Text != "title clean" {
		t.Errorf("messages = %+v", msgs)
	}
}

// Repeated evaluations must not leak findings between runs.
func TestEvaluate_NoLeakBetweenRuns(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		warn("once per run");
	};`)

	for i := 0; i < 2; i++ {
		res, err := Evaluate(context.Background(), Options{BaseRef: "base", Dir: dir})
		if err != nil {
			t.Fatalf("Evaluate #%d: %v", i, err)
		}
		if _, warnings, _ := res.Findings.Counts(); warnings != 1 {
			t.Errorf("run %d: warnings = %d, want 1", i, warnings)
		}
	}
}

func TestEvaluate_ExplicitEnvironment(t *testing.T) {
	dir := newRepo(t)
	writeReviewfile(t, dir, `module.exports = function (ctx) {
		message("env=" + ctx.environment["REVIEW_MODE"]);
	};`)

	res, err := Evaluate(context.Background(), Options{
		BaseRef:     "base",
		Dir:         dir,
		Environment: map[string]string{"REVIEW_MODE": "strict"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msgs := res.Findings.BySeverity(results.SeverityMessage); len(msgs) != 1 || msgs[0].Text != "env=strict" {
		t.Errorf("messages = %+v, want env=strict", msgs)
	}
}
