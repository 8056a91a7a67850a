package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrMissingContext indicates that the repository identity or PR number
// could not be resolved from options or the environment.
var ErrMissingContext = errors.New("missing GitHub context")

// UpstreamError wraps a GitHub API failure with the operation that caused it.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Author identifies a GitHub user.
type Author struct {
	Login      string `json:"login"`
	AvatarURL  string `json:"avatarUrl"`
	ProfileURL string `json:"profileUrl"`
}

// Branch identifies one side of a pull request.
type Branch struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// Review is one submitted PR review.
type Review struct {
	ID          int64     `json:"id"`
	Reviewer    string    `json:"reviewer"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Comment is one PR comment. Issue-level and line-level comments are merged
// into a single sequence; line-level entries carry Path and Line.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	Path      string    `json:"path,omitempty"`
	Line      int       `json:"line,omitempty"`
}

// PullRequest is the immutable snapshot of PR metadata for one evaluation.
type PullRequest struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	URL          string     `json:"url"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changedFiles"`
	Author       Author     `json:"author"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	Base         Branch     `json:"base"`
	Head         Branch     `json:"head"`
	Reviews      []Review   `json:"reviews"`
	Comments     []Comment  `json:"comments"`
}

// Options configures an Adapter. Zero fields fall back to environment
// variables and the git remote origin URL.
type Options struct {
	Owner  string
	Repo   string
	Number int
	Token  string
	// APIBaseURL overrides the GitHub API endpoint (GitHub Enterprise,
	// tests). Must end with a slash when set.
	APIBaseURL string
}

// Adapter fetches pull request metadata from the GitHub API.
type Adapter struct {
	owner   string
	repo    string
	number  int
	client  *github.Client
	limiter *rate.Limiter
}

// NewAdapter resolves the repository identity and PR number and builds an
// API client. Returns an error wrapping [ErrMissingContext] when the
// identity cannot be resolved.
func NewAdapter(opts Options) (*Adapter, error) {
	owner, repo := opts.Owner, opts.Repo
	if owner == "" || repo == "" {
		if env := os.Getenv("GITHUB_REPOSITORY"); env != "" {
			parts := strings.SplitN(env, "/", 2)
			if len(parts) == 2 {
				owner, repo = parts[0], parts[1]
			}
		}
	}
	if owner == "" || repo == "" {
		if o, r, err := DetectRepo(); err == nil {
			owner, repo = o, r
		}
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: cannot resolve owner/repo", ErrMissingContext)
	}

	number := opts.Number
	if number == 0 {
		for _, key := range []string{"GAVEL_PR_NUMBER", "PR_NUMBER"} {
			if v := os.Getenv(key); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					number = n
					break
				}
			}
		}
	}
	if number == 0 {
		return nil, fmt.Errorf("%w: cannot resolve PR number", ErrMissingContext)
	}

	token := opts.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	httpClient := oauth2.NewClient(context.Background(), nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)
	if opts.APIBaseURL != "" {
		base, err := url.Parse(opts.APIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
		client.BaseURL = base
	}

	// Stay well under the 5000 req/hour authenticated limit.
	return &Adapter{
		owner:   owner,
		repo:    repo,
		number:  number,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}, nil
}

// Fetch retrieves PR metadata, reviews, and comments in sequence. Any
// failure fails the whole call; a half-populated snapshot is never returned.
func (a *Adapter) Fetch(ctx context.Context) (*PullRequest, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Op: "rate limit", Err: err}
	}
	raw, _, err := a.client.PullRequests.Get(ctx, a.owner, a.repo, a.number)
	if err != nil {
		return nil, &UpstreamError{Op: fmt.Sprintf("get PR #%d", a.number), Err: err}
	}
	pr := convertPR(raw)

	reviews, err := a.fetchReviews(ctx)
	if err != nil {
		return nil, err
	}
	pr.Reviews = reviews

	comments, err := a.fetchComments(ctx)
	if err != nil {
		return nil, err
	}
	pr.Comments = comments

	return pr, nil
}

func (a *Adapter) fetchReviews(ctx context.Context) ([]Review, error) {
	reviews := []Review{}
	opts := &github.ListOptions{PerPage: 100}
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Op: "rate limit", Err: err}
		}
		page, resp, err := a.client.PullRequests.ListReviews(ctx, a.owner, a.repo, a.number, opts)
		if err != nil {
			return nil, &UpstreamError{Op: "list reviews", Err: err}
		}
		for _, r := range page {
			reviews = append(reviews, Review{
				ID:          r.GetID(),
				Reviewer:    r.GetUser().GetLogin(),
				Body:        r.GetBody(),
				State:       r.GetState(),
				SubmittedAt: r.GetSubmittedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			return reviews, nil
		}
		opts.Page = resp.NextPage
	}
}

func (a *Adapter) fetchComments(ctx context.Context) ([]Comment, error) {
	comments := []Comment{}

	issueOpts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Op: "rate limit", Err: err}
		}
		page, resp, err := a.client.Issues.ListComments(ctx, a.owner, a.repo, a.number, issueOpts)
		if err != nil {
			return nil, &UpstreamError{Op: "list issue comments", Err: err}
		}
		for _, c := range page {
			comments = append(comments, Comment{
				ID:        c.GetID(),
				Author:    c.GetUser().GetLogin(),
				Body:      c.GetBody(),
				CreatedAt: c.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		issueOpts.Page = resp.NextPage
	}

	lineOpts := &github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Op: "rate limit", Err: err}
		}
		page, resp, err := a.client.PullRequests.ListComments(ctx, a.owner, a.repo, a.number, lineOpts)
		if err != nil {
			return nil, &UpstreamError{Op: "list review comments", Err: err}
		}
		for _, c := range page {
			comments = append(comments, Comment{
				ID:        c.GetID(),
				Author:    c.GetUser().GetLogin(),
				Body:      c.GetBody(),
				CreatedAt: c.GetCreatedAt().Time,
				Path:      c.GetPath(),
				Line:      c.GetLine(),
			})
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		lineOpts.Page = resp.NextPage
	}
}

// PostComment publishes body as an issue comment on the PR, e.g. the
// rendered markdown report.
func (a *Adapter) PostComment(ctx context.Context, body string) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return &UpstreamError{Op: "rate limit", Err: err}
	}
	_, _, err := a.client.Issues.CreateComment(ctx, a.owner, a.repo, a.number,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return &UpstreamError{Op: "create comment", Err: err}
	}
	return nil
}

func convertPR(raw *github.PullRequest) *PullRequest {
	pr := &PullRequest{
		Number:       raw.GetNumber(),
		Title:        raw.GetTitle(),
		Body:         raw.GetBody(),
		State:        raw.GetState(),
		URL:          raw.GetHTMLURL(),
		Additions:    raw.GetAdditions(),
		Deletions:    raw.GetDeletions(),
		ChangedFiles: raw.GetChangedFiles(),
		Author: Author{
			Login:      raw.GetUser().GetLogin(),
			AvatarURL:  raw.GetUser().GetAvatarURL(),
			ProfileURL: raw.GetUser().GetHTMLURL(),
		},
		CreatedAt: raw.GetCreatedAt().Time,
		UpdatedAt: raw.GetUpdatedAt().Time,
		Base: Branch{
			Name: raw.GetBase().GetRef(),
			SHA:  raw.GetBase().GetSHA(),
		},
		Head: Branch{
			Name: raw.GetHead().GetRef(),
			SHA:  raw.GetHead().GetSHA(),
		},
	}
	if raw.MergedAt != nil {
		t := raw.MergedAt.Time
		pr.MergedAt = &t
	}
	return pr
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
