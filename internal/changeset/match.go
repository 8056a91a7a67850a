package changeset

import "github.com/bmatcuk/doublestar/v4"

// FileMatch holds the subsets of the change set that matched a set of glob
// patterns. Produced per query by [ChangeSet.FileMatch]; never stored.
type FileMatch struct {
	Created  []string
	Modified []string
	Deleted  []string

	cs       *ChangeSet
	patterns []string
}

// FileMatch filters the three file buckets by the given glob patterns with
// OR semantics: a file matching any one pattern is included. Patterns use
// doublestar syntax (`**`, `{a,b}`, character classes).
func (cs *ChangeSet) FileMatch(patterns ...string) *FileMatch {
	return &FileMatch{
		Created:  matchPaths(cs.CreatedFiles, patterns),
		Modified: matchPaths(cs.ModifiedFiles, patterns),
		Deleted:  matchPaths(cs.DeletedFiles, patterns),
		cs:       cs,
		patterns: patterns,
	}
}

// HasChanges reports whether any created, modified, or deleted file matches
// the given patterns. Computed over the filtered match result, which is a
// distinct code path from [FileMatch.Matches].
func (cs *ChangeSet) HasChanges(patterns ...string) bool {
	m := cs.FileMatch(patterns...)
	return len(m.Created) > 0 || len(m.Modified) > 0 || len(m.Deleted) > 0
}

// Edited returns the union of matched created and modified paths, in order,
// without duplicates.
func (m *FileMatch) Edited() []string {
	return dedup(append(append([]string{}, m.Created...), m.Modified...))
}

// All returns every matched path across the three buckets.
func (m *FileMatch) All() []string {
	all := append(append([]string{}, m.Created...), m.Modified...)
	return dedup(append(all, m.Deleted...))
}

// Matches reports whether the query's patterns match anything in the entire
// unfiltered change set. This is a standalone existence check against the
// full file universe, not the already-filtered subsets.
func (m *FileMatch) Matches() bool {
	for _, bucket := range [][]string{m.cs.CreatedFiles, m.cs.ModifiedFiles, m.cs.DeletedFiles} {
		for _, path := range bucket {
			if matchAny(path, m.patterns) {
				return true
			}
		}
	}
	return false
}

func matchPaths(paths, patterns []string) []string {
	var out []string
	for _, p := range paths {
		if matchAny(p, patterns) {
			out = append(out, p)
		}
	}
	return out
}

func matchAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, path)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func dedup(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
