package hosting

import (
	"regexp"
	"testing"
)

func TestLiteral(t *testing.T) {
	pr := &PullRequest{Title: "WIP: add rate limiter"}
	tests := []struct {
		literal string
		want    bool
	}{
		{"WIP", true},
		{"rate limiter", true},
		{"wip", false}, // case-sensitive containment
		{"release", false},
	}
	for _, tt := range tests {
		if got := pr.TitleMatches(Literal(tt.literal)); got != tt.want {
			t.Errorf("TitleMatches(Literal(%q)) = %v, want %v", tt.literal, got, tt.want)
		}
	}
}

func TestRegexp(t *testing.T) {
	pr := &PullRequest{Title: "feat(api): add pagination"}
	tests := []struct {
		pattern string
		want    bool
	}{
		{`^feat\(`, true},
		{`(?i)FEAT`, true},
		{`^fix`, false},
	}
	for _, tt := range tests {
		p := Regexp{RE: regexp.MustCompile(tt.pattern)}
		if got := pr.TitleMatches(p); got != tt.want {
			t.Errorf("TitleMatches(Regexp(%q)) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestTitleMatches_NilSafety(t *testing.T) {
	pr := &PullRequest{Title: "anything"}
	if pr.TitleMatches(nil) {
		t.Error("nil pattern should not match")
	}
	if pr.TitleMatches(Regexp{}) {
		t.Error("Regexp with nil RE should not match")
	}
}
