package changeset

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrBackendUnavailable indicates that git could not be queried, e.g. the
// working directory is not a repository or the base ref does not exist.
var ErrBackendUnavailable = errors.New("git backend unavailable")

// Commit is one commit between the base ref and head.
type Commit struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// FileDiff holds the per-file line statistics reported by git.
type FileDiff struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// Total returns the total number of changed lines for the file.
func (d FileDiff) Total() int { return d.Added + d.Deleted }

// ChangeSet is the snapshot of changes for one evaluation. It is built once
// and never mutated afterward; the three file buckets are mutually exclusive.
type ChangeSet struct {
	CreatedFiles  []string   `json:"createdFiles"`
	ModifiedFiles []string   `json:"modifiedFiles"`
	DeletedFiles  []string   `json:"deletedFiles"`
	BinaryFiles   []string   `json:"binaryFiles"`
	Commits       []Commit   `json:"commits"`
	FileDiffs     []FileDiff `json:"fileDiffs"`
}

// Empty returns a ChangeSet with no changes. Used when the git backend is
// unavailable and the caller degrades rather than aborts.
func Empty() *ChangeSet {
	return &ChangeSet{}
}

// Builder queries git for the changes between a base ref and HEAD.
type Builder struct {
	// Dir is the working directory for git commands. Empty means the
	// current directory.
	Dir string
}

// Build collects diff statistics and the commit log for baseRef...HEAD.
// Errors wrap [ErrBackendUnavailable]; callers are expected to log and
// continue with [Empty] rather than abort.
func (b *Builder) Build(ctx context.Context, baseRef string) (*ChangeSet, error) {
	numstat, err := b.git(ctx, "diff", "--numstat", baseRef+"...HEAD")
	if err != nil {
		return nil, fmt.Errorf("%w: git diff --numstat %s: %v", ErrBackendUnavailable, baseRef, err)
	}

	cs := &ChangeSet{}
	for _, line := range strings.Split(numstat, "\n") {
		diff, binary, ok := parseNumstatLine(line)
		if !ok {
			continue
		}
		if binary {
			cs.BinaryFiles = append(cs.BinaryFiles, diff.Path)
			continue
		}
		cs.FileDiffs = append(cs.FileDiffs, diff)
		switch {
		case diff.Added > 0 && diff.Deleted == 0:
			cs.CreatedFiles = append(cs.CreatedFiles, diff.Path)
		case diff.Deleted > 0 && diff.Added == 0:
			cs.DeletedFiles = append(cs.DeletedFiles, diff.Path)
		case diff.Total() > 0:
			cs.ModifiedFiles = append(cs.ModifiedFiles, diff.Path)
		}
		// Zero-change entries (mode changes, pure renames) stay out of
		// all three buckets but remain visible in FileDiffs.
	}

	commits, err := b.listCommits(ctx, baseRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	cs.Commits = commits

	return cs, nil
}

// parseNumstatLine parses one "added\tdeleted\tpath" numstat line. Binary
// files report "-" for both counts.
func parseNumstatLine(line string) (diff FileDiff, binary, ok bool) {
	line = strings.TrimRight(line, "\r")
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 || parts[2] == "" {
		return FileDiff{}, false, false
	}
	path := normalizeRename(parts[2])
	if parts[0] == "-" && parts[1] == "-" {
		return FileDiff{Path: path}, true, true
	}
	added, err := strconv.Atoi(parts[0])
	if err != nil {
		return FileDiff{}, false, false
	}
	deleted, err := strconv.Atoi(parts[1])
	if err != nil {
		return FileDiff{}, false, false
	}
	return FileDiff{Path: path, Added: added, Deleted: deleted}, false, true
}

// normalizeRename resolves git's rename notation to the new path.
// "dir/{old => new}/file" becomes "dir/new/file" and "old => new" becomes
// "new".
func normalizeRename(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}
	open := strings.Index(path, "{")
	arrow := strings.Index(path, " => ")
	closing := strings.Index(path, "}")
	if open >= 0 && closing > arrow && arrow > open {
		newPart := path[arrow+len(" => ") : closing]
		path = path[:open] + newPart + path[closing+1:]
		return strings.ReplaceAll(path, "//", "/")
	}
	return path[arrow+len(" => "):]
}

// listCommits returns commits in baseRef..HEAD, oldest first.
func (b *Builder) listCommits(ctx context.Context, baseRef string) ([]Commit, error) {
	// Unit separators keep multi-word fields unambiguous in a single call.
	out, err := b.git(ctx, "log", "--reverse", "--date=unix",
		"--format=%H%x1f%an%x1f%ad%x1f%s", baseRef+"..HEAD")
	if err != nil {
		return nil, fmt.Errorf("git log %s..HEAD: %v", baseRef, err)
	}

	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\x1f", 4)
		if len(fields) != 4 {
			continue
		}
		sec, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			continue
		}
		commits = append(commits, Commit{
			ID:      fields[0],
			Author:  fields[1],
			Date:    time.Unix(sec, 0).UTC(),
			Message: fields[3],
		})
	}
	return commits, nil
}

func (b *Builder) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = b.Dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
