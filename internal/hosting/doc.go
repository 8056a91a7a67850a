// Package hosting fetches pull request metadata from GitHub.
//
// [NewAdapter] resolves the repository identity and PR number from explicit
// options, environment variables, or the git remote origin URL. [Adapter.Fetch]
// performs three sequential fetches (PR metadata, reviews, comments) and
// returns an immutable [PullRequest] snapshot. A failure in any fetch fails
// the whole call; no partial snapshot is ever exposed.
//
// Title matching uses the [TitlePattern] variant type: [Literal] for
// case-sensitive substring containment, [Regexp] for regular expressions.
package hosting
