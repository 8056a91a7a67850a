package rulefile

import (
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/dshills/gavel/internal/changeset"
	"github.com/dshills/gavel/internal/hosting"
	"github.com/dshills/gavel/internal/results"
)

// Context is the composed evaluation context handed to the rule function.
type Context struct {
	Changes     *changeset.ChangeSet
	PR          *hosting.PullRequest // nil when no hosting context
	Environment map[string]string
	Results     *results.Collector
}

// RuleError is an error raised by rule code itself, as opposed to an
// infrastructure failure. It carries the script's message and stack trace.
type RuleError struct {
	Message string
	Stack   string
}

func (e *RuleError) Error() string { return e.Message }

// Invoke calls the rule function exactly once with the given context. Any
// throw from the script, or a rejected or unsettled promise it returns, is
// reported as a [*RuleError]; Invoke never panics.
func (r *Rule) Invoke(rctx *Context) error {
	r.installReporters(rctx.Results)

	res, err := r.fn(goja.Undefined(), r.contextObject(rctx))
	if err != nil {
		if ex, ok := err.(*goja.Exception); ok {
			return &RuleError{Message: valueMessage(ex.Value()), Stack: ex.String()}
		}
		return &RuleError{Message: err.Error()}
	}

	if p, ok := res.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateRejected:
			return &RuleError{Message: valueMessage(p.Result()), Stack: valueStack(p.Result())}
		case goja.PromiseStatePending:
			return &RuleError{Message: "rule function returned a promise that never settled"}
		}
	}
	return nil
}

// installReporters binds the four ambient reporting operations to the
// collector. These are the entire side-effect surface rule scripts use.
func (r *Rule) installReporters(c *results.Collector) {
	r.vm.Set("message", r.reportFn(c.AddMessage))
	r.vm.Set("warn", r.reportFn(c.AddWarning))
	r.vm.Set("fail", r.reportFn(c.AddFailure))
	r.vm.Set("markdown", func(call goja.FunctionCall) goja.Value {
		c.AddMarkdown(call.Argument(0).String())
		return goja.Undefined()
	})
}

func (r *Rule) reportFn(add func(text, path string, line int)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		text := call.Argument(0).String()
		var path string
		var line int
		if a := call.Argument(1); !goja.IsUndefined(a) && !goja.IsNull(a) {
			path = a.String()
		}
		if a := call.Argument(2); !goja.IsUndefined(a) && !goja.IsNull(a) {
			line = int(a.ToInteger())
		}
		add(text, path, line)
		return goja.Undefined()
	}
}

func (r *Rule) contextObject(rctx *Context) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	_ = obj.Set("changeSet", r.changeSetObject(rctx.Changes))
	if rctx.PR != nil {
		_ = obj.Set("prContext", r.prObject(rctx.PR))
	} else {
		_ = obj.Set("prContext", goja.Null())
	}
	_ = obj.Set("isHostingPlatformAvailable", rctx.PR != nil)
	env := rctx.Environment
	if env == nil {
		env = map[string]string{}
	}
	_ = obj.Set("environment", env)
	return obj
}

func (r *Rule) changeSetObject(cs *changeset.ChangeSet) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	_ = obj.Set("createdFiles", orEmpty(cs.CreatedFiles))
	_ = obj.Set("modifiedFiles", orEmpty(cs.ModifiedFiles))
	_ = obj.Set("deletedFiles", orEmpty(cs.DeletedFiles))
	_ = obj.Set("binaryFiles", orEmpty(cs.BinaryFiles))

	commits := make([]map[string]interface{}, len(cs.Commits))
	for i, c := range cs.Commits {
		commits[i] = map[string]interface{}{
			"id":      c.ID,
			"author":  c.Author,
			"date":    c.Date.Format(time.RFC3339),
			"message": c.Message,
		}
	}
	_ = obj.Set("commits", commits)

	diffs := make([]map[string]interface{}, len(cs.FileDiffs))
	for i, d := range cs.FileDiffs {
		diffs[i] = map[string]interface{}{
			"path":    d.Path,
			"added":   d.Added,
			"deleted": d.Deleted,
			"total":   d.Total(),
		}
	}
	_ = obj.Set("fileDiffs", diffs)

	_ = obj.Set("fileMatch", func(call goja.FunctionCall) goja.Value {
		m := cs.FileMatch(r.argPatterns(call)...)
		mo := vm.NewObject()
		_ = mo.Set("created", orEmpty(m.Created))
		_ = mo.Set("modified", orEmpty(m.Modified))
		_ = mo.Set("deleted", orEmpty(m.Deleted))
		_ = mo.Set("edited", orEmpty(m.Edited()))
		_ = mo.Set("all", orEmpty(m.All()))
		_ = mo.Set("matches", func(goja.FunctionCall) goja.Value {
			return vm.ToValue(m.Matches())
		})
		return mo
	})
	_ = obj.Set("hasChanges", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(cs.HasChanges(r.argPatterns(call)...))
	})

	return obj
}

func (r *Rule) prObject(pr *hosting.PullRequest) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	_ = obj.Set("number", pr.Number)
	_ = obj.Set("title", pr.Title)
	_ = obj.Set("body", pr.Body)
	_ = obj.Set("state", pr.State)
	_ = obj.Set("url", pr.URL)
	_ = obj.Set("additions", pr.Additions)
	_ = obj.Set("deletions", pr.Deletions)
	_ = obj.Set("changedFileCount", pr.ChangedFiles)
	_ = obj.Set("author", map[string]interface{}{
		"login":      pr.Author.Login,
		"avatarUrl":  pr.Author.AvatarURL,
		"profileUrl": pr.Author.ProfileURL,
	})
	_ = obj.Set("createdAt", pr.CreatedAt.Format(time.RFC3339))
	_ = obj.Set("updatedAt", pr.UpdatedAt.Format(time.RFC3339))
	if pr.MergedAt != nil {
		_ = obj.Set("mergedAt", pr.MergedAt.Format(time.RFC3339))
	} else {
		_ = obj.Set("mergedAt", goja.Null())
	}
	_ = obj.Set("baseBranch", map[string]interface{}{"name": pr.Base.Name, "commitId": pr.Base.SHA})
	_ = obj.Set("headBranch", map[string]interface{}{"name": pr.Head.Name, "commitId": pr.Head.SHA})

	reviews := make([]map[string]interface{}, len(pr.Reviews))
	for i, rv := range pr.Reviews {
		reviews[i] = map[string]interface{}{
			"id":            rv.ID,
			"reviewerLogin": rv.Reviewer,
			"body":          rv.Body,
			"state":         rv.State,
			"submittedAt":   rv.SubmittedAt.Format(time.RFC3339),
		}
	}
	_ = obj.Set("reviews", reviews)

	comments := make([]map[string]interface{}, len(pr.Comments))
	for i, c := range pr.Comments {
		m := map[string]interface{}{
			"id":          c.ID,
			"authorLogin": c.Author,
			"body":        c.Body,
			"createdAt":   c.CreatedAt.Format(time.RFC3339),
		}
		if c.Path != "" {
			m["filePath"] = c.Path
			m["lineNumber"] = c.Line
		}
		comments[i] = m
	}
	_ = obj.Set("comments", comments)

	_ = obj.Set("titleMatches", func(call goja.FunctionCall) goja.Value {
		p := r.titlePattern(call.Argument(0))
		if p == nil {
			return vm.ToValue(false)
		}
		return vm.ToValue(pr.TitleMatches(p))
	})

	return obj
}

// titlePattern maps a JS argument onto the hosting pattern variant: a RegExp
// object becomes [hosting.Regexp], anything else a [hosting.Literal].
func (r *Rule) titlePattern(v goja.Value) hosting.TitlePattern {
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "RegExp" {
		src := obj.Get("source").String()
		if flags := obj.Get("flags").String(); strings.Contains(flags, "i") {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil
		}
		return hosting.Regexp{RE: re}
	}
	return hosting.Literal(v.String())
}

func (r *Rule) argPatterns(call goja.FunctionCall) []string {
	var out []string
	for _, a := range call.Arguments {
		if obj, ok := a.(*goja.Object); ok && obj.ClassName() == "Array" {
			var list []string
			if err := r.vm.ExportTo(obj, &list); err == nil {
				out = append(out, list...)
				continue
			}
		}
		out = append(out, a.String())
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func valueMessage(v goja.Value) string {
	if v == nil {
		return "rule error"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}

func valueStack(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		if st := obj.Get("stack"); st != nil && !goja.IsUndefined(st) {
			return st.String()
		}
	}
	return ""
}
