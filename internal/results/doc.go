// Package results accumulates findings reported by rule code and renders
// them for display.
//
// A [Collector] is created per evaluation and threaded through the rule
// context; it is never shared global state. Rule code appends findings at
// three severities (message, warning, failure) plus free-form markdown
// blocks. Only failure-severity findings affect the pass/fail verdict and
// exit code.
//
// Two renderers are provided:
//   - text: human-readable terminal output with colored severity labels
//   - markdown: a single PR-comment-friendly document with a summary banner
//
// Use [GetWriter] for a [Writer] by format name, or [WriteReport] to handle
// destination selection.
package results
