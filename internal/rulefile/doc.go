// Package rulefile locates, loads, and invokes user-authored review rule
// scripts.
//
// A rule script is a CommonJS JavaScript module exporting exactly one
// function that takes a single context argument. [Locate] resolves the
// script path, probing a fixed list of default filenames when none is given.
// [Load] evaluates the module in an embedded goja runtime and validates its
// shape, distinguishing three failure kinds: [ErrNotFound], [*ParseError],
// and [*ShapeError].
//
// [Rule.Invoke] runs the exported function against a [Context]. Anything the
// script throws, or a rejected promise it returns, comes back as a
// [*RuleError]; it never panics and never crashes the process.
package rulefile
