// Package changeset builds an immutable model of the file and commit changes
// between a base reference and the current head of a git repository.
//
// [Builder.Build] shells out to git for per-file diff statistics (numstat)
// and the commit log, then classifies each file as created, modified, or
// deleted from its added/deleted line counts. The resulting [ChangeSet] is
// read-only and supports glob-based queries via [ChangeSet.FileMatch] and
// [ChangeSet.HasChanges], with full `**`, brace-alternation, and
// character-class pattern support.
package changeset
