// Gavel is a code-review rule engine driven by a user-supplied reviewfile.
//
// It builds a model of the changes between a base ref and HEAD, optionally
// fetches pull request metadata from GitHub, executes the reviewfile's rule
// function against that context, and reports the collected findings with a
// deterministic exit code for CI gating.
//
// Usage:
//
//	gavel run                         # evaluate ./reviewfile.js against origin/main
//	gavel run --base origin/develop   # different base ref
//	gavel run --github --pr 42        # include PR metadata in the context
//	gavel run --format markdown       # PR-comment-friendly report
//	gavel init                        # scaffold a starter reviewfile
//
// See https://github.com/dshills/gavel for full documentation.
package main
