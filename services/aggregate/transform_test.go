package aggregate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sumitmalik51/gitsecureops/github"
)

func TestIssueItemDetectsPullRequests(t *testing.T) {
	assert := require.New(t)

	merged := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	issue := github.Issue{
		ID:            7,
		Number:        42,
		Title:         "Fix the frobnicator",
		State:         "closed",
		RepositoryURL: "https://api.github.com/repos/acme/widget",
		User:          github.User{Login: "alice"},
	}

	item := issueItem(issue)
	assert.Equal(KindIssue, item.Kind)
	assert.Equal("acme", item.Organization)
	assert.Equal("widget", item.Repository)
	assert.Equal("#42", item.Subtitle)
	assert.NotContains(item.Metadata, "merged")

	issue.PullRequest = &struct {
		URL      string     `json:"url"`
		MergedAt *time.Time `json:"merged_at"`
	}{MergedAt: &merged}

	item = issueItem(issue)
	assert.Equal(KindPullRequest, item.Kind)
	assert.Equal(true, item.Metadata["merged"])
}

func TestCommitItemUsesFirstMessageLine(t *testing.T) {
	assert := require.New(t)

	commit := github.Commit{
		SHA:        "0123456789abcdef",
		Repository: github.Repository{Name: "widget", Owner: github.User{Login: "acme"}},
	}
	commit.Commit.Message = "Fix flaky retry\n\nLong explanation body."
	commit.Commit.Author.Name = "Alice Example"

	item := commitItem(commit)
	assert.Equal("Fix flaky retry", item.Title)
	assert.Equal("0123456", item.Subtitle)
	assert.Equal("Alice Example", item.Author, "commit author name is the fallback identity")

	commit.Author = &github.User{Login: "alice"}
	item = commitItem(commit)
	assert.Equal("alice", item.Author)
}

func TestCodeItemPreview(t *testing.T) {
	assert := require.New(t)

	code := github.CodeResult{
		Name:       "main.go",
		Path:       "cmd/main.go",
		SHA:        "abc",
		Repository: github.Repository{Name: "widget", Owner: github.User{Login: "acme"}},
		TextMatches: []github.TextMatch{
			{Fragment: "func main() {"},
			{Fragment: "ignored second match"},
		},
	}

	item := codeItem(code)
	assert.Equal(KindCode, item.Kind)
	assert.Equal("func main() {", item.Preview)
	assert.Equal(float64(1), item.Score, "unscored hits default to 1")
}

func TestTrimDescription(t *testing.T) {
	assert := require.New(t)

	assert.Equal("short", trimDescription("  short  "))

	long := strings.Repeat("x", 500)
	trimmed := trimDescription(long)
	assert.Len([]rune(trimmed), maxDescriptionRunes+3)
	assert.True(strings.HasSuffix(trimmed, "..."))
}
