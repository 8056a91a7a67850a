package rulefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRule(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocate_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := writeRule(t, dir, "custom.js", "module.exports = function () {};")

	got, exists := Locate(path, dir)
	if got != path || !exists {
		t.Errorf("Locate = %q, %v; want %q, true", got, exists, path)
	}

	got, exists = Locate(filepath.Join(dir, "missing.js"), dir)
	if exists {
		t.Errorf("Locate(%q) exists = true, want false", got)
	}
}

func TestLocate_ProbeOrder(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "Reviewfile.js", "module.exports = function () {};")
	writeRule(t, dir, "reviewfile.cjs", "module.exports = function () {};")

	got, exists := Locate("", dir)
	if !exists || filepath.Base(got) != "Reviewfile.js" {
		t.Errorf("Locate = %q, %v; want Reviewfile.js (first existing candidate)", got, exists)
	}
}

func TestLocate_DefaultWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	got, exists := Locate("", dir)
	if exists {
		t.Error("exists should be false in an empty directory")
	}
	if filepath.Base(got) != Candidates[0] {
		t.Errorf("Locate = %q, want first candidate %q", got, Candidates[0])
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "reviewfile.js"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeRule(t, t.TempDir(), "reviewfile.js", "function (, {")
	_, err := Load(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error = %v (%T), want *ParseError", err, err)
	}
}

func TestLoad_ShapeError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"exports object", "module.exports = { rules: [] };"},
		{"exports number", "module.exports = 42;"},
		{"no export", "var unused = 1;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRule(t, t.TempDir(), "reviewfile.js", tt.content)
			_, err := Load(path)
			var serr *ShapeError
			if !errors.As(err, &serr) {
				t.Errorf("error = %v (%T), want *ShapeError", err, err)
			}
		})
	}
}

func TestLoad_Function(t *testing.T) {
	path := writeRule(t, t.TempDir(), "reviewfile.js", "module.exports = function (ctx) {};")
	rule, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rule.Path() != path {
		t.Errorf("Path() = %q, want %q", rule.Path(), path)
	}
}

func TestLoad_DefaultExport(t *testing.T) {
	// Transpiled ES module shape
	path := writeRule(t, t.TempDir(), "reviewfile.js",
		"exports.default = function (ctx) {};")
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_ArrowFunction(t *testing.T) {
	path := writeRule(t, t.TempDir(), "reviewfile.js", "module.exports = (ctx) => {};")
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
