// Package cli wires together the Cobra command tree for the gavel binary.
//
// It defines the root command and all subcommands (run, init, config,
// version), binds flags, reads configuration, invokes the evaluator, and
// returns deterministic exit codes for CI gating.
package cli
