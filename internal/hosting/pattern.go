package hosting

import (
	"regexp"
	"strings"
)

// TitlePattern is a matcher for PR titles: either a literal substring or a
// compiled regular expression.
type TitlePattern interface {
	MatchTitle(title string) bool
}

// Literal matches by case-sensitive substring containment.
type Literal string

// MatchTitle reports whether title contains the literal text.
func (l Literal) MatchTitle(title string) bool {
	return strings.Contains(title, string(l))
}

// Regexp matches with a compiled regular expression.
type Regexp struct {
	RE *regexp.Regexp
}

// MatchTitle reports whether the regular expression matches the title.
func (r Regexp) MatchTitle(title string) bool {
	return r.RE != nil && r.RE.MatchString(title)
}

// TitleMatches reports whether the PR title matches the given pattern.
func (pr *PullRequest) TitleMatches(p TitlePattern) bool {
	return p != nil && p.MatchTitle(pr.Title)
}
