package rulefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
)

// Candidates is the ordered list of default rule file names probed by
// [Locate] when no explicit path is given.
var Candidates = []string{
	"reviewfile.js",
	"Reviewfile.js",
	"reviewfile.cjs",
	"Reviewfile.cjs",
}

// ErrNotFound indicates the rule file does not exist at the resolved path.
var ErrNotFound = errors.New("rule file not found")

// ParseError indicates the rule file exists but could not be compiled or
// evaluated as a module.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing rule file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ShapeError indicates the module loaded but does not export a single
// callable entry point.
type ShapeError struct {
	Path   string
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid rule module %s: %s", e.Path, e.Detail)
}

// Locate resolves the rule file path. An explicit path wins as-is.
// Otherwise the default candidates are probed in dir in order and the first
// that exists is returned; if none exists, the first candidate is returned
// with exists=false as a deterministic default.
func Locate(explicit, dir string) (path string, exists bool) {
	if explicit != "" {
		_, err := os.Stat(explicit)
		return explicit, err == nil
	}
	for _, name := range Candidates {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return filepath.Join(dir, Candidates[0]), false
}

// Rule is a loaded, validated rule script ready to invoke.
type Rule struct {
	vm   *goja.Runtime
	fn   goja.Callable
	path string
}

// Path returns the path the rule was loaded from.
func (r *Rule) Path() string { return r.path }

// Load evaluates the module at path and validates that it exports exactly
// one callable (module.exports = fn, or exports.default = fn for transpiled
// ES modules).
func Load(path string) (*Rule, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	vm := goja.New()
	registry := require.NewRegistry()
	req := registry.Enable(vm)
	console.Enable(vm)

	exports, err := req.Require(abs)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	fn, err := entryPoint(exports)
	if err != nil {
		return nil, &ShapeError{Path: path, Detail: err.Error()}
	}

	return &Rule{vm: vm, fn: fn, path: path}, nil
}

func entryPoint(exports goja.Value) (goja.Callable, error) {
	if fn, ok := goja.AssertFunction(exports); ok {
		return fn, nil
	}
	obj, ok := exports.(*goja.Object)
	if !ok {
		return nil, errors.New("module.exports is not a function")
	}
	if fn, ok := goja.AssertFunction(obj.Get("default")); ok {
		return fn, nil
	}
	return nil, errors.New("module must export a single function (module.exports = fn or exports.default = fn)")
}
