// Package evaluate orchestrates a single review-rule evaluation.
//
// [Evaluate] resolves the rule file, builds the change model and the
// optional PR context, loads the rule script, invokes it exactly once, and
// drains the collector into a final [Result] with pass/fail verdict and exit
// code.
//
// Failure handling is asymmetric: infrastructure failures (missing rule
// file, malformed rule module) abort the evaluation; degraded-context
// failures (git unavailable, PR fetch failed) are logged and the evaluation
// continues with empty or absent context; errors raised by the rule function
// itself become exactly one failure-severity finding and never propagate.
package evaluate
