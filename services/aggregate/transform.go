package aggregate

import (
	"fmt"
	"strings"

	"github.com/sumitmalik51/gitsecureops/github"
)

// Kind-specific transforms from the provider schema into the unified
// item model. Scores default to 1 when the source does not assign one.

func scoreOrDefault(score float64) float64 {
	if score == 0 {
		return 1
	}
	return score
}

const maxDescriptionRunes = 240

func trimDescription(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxDescriptionRunes {
		return text
	}
	return string(runes[:maxDescriptionRunes]) + "..."
}

func repositoryItem(r github.Repository) Item {
	return Item{
		ID:           fmt.Sprintf("%d", r.ID),
		Kind:         KindRepository,
		Title:        r.Name,
		Subtitle:     r.FullName,
		Description:  trimDescription(r.Description),
		URL:          r.HTMLURL,
		Organization: r.Owner.Login,
		Repository:   r.Name,
		Author:       r.Owner.Login,
		Avatar:       r.Owner.AvatarURL,
		Language:     r.Language,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Score:        scoreOrDefault(r.Score),
		Metadata: map[string]any{
			"full_name": r.FullName,
			"stars":     r.StargazersCount,
			"private":   r.Private,
			"archived":  r.Archived,
		},
	}
}

func codeItem(c github.CodeResult) Item {
	var preview string
	if len(c.TextMatches) > 0 {
		preview = c.TextMatches[0].Fragment
	}

	return Item{
		ID:           c.Repository.FullName + "/" + c.Path + "@" + c.SHA,
		Kind:         KindCode,
		Title:        c.Name,
		Subtitle:     c.Path,
		URL:          c.HTMLURL,
		Organization: c.Repository.Owner.Login,
		Repository:   c.Repository.Name,
		Language:     c.Repository.Language,
		Score:        scoreOrDefault(c.Score),
		Preview:      preview,
		Metadata: map[string]any{
			"path": c.Path,
			"sha":  c.SHA,
		},
	}
}

func issueItem(i github.Issue) Item {
	kind := KindIssue
	merged := false
	if i.PullRequest != nil {
		kind = KindPullRequest
		merged = i.PullRequest.MergedAt != nil
	}

	org, repo := splitRepositoryURL(i.RepositoryURL)

	labels := make([]string, len(i.Labels))
	for n, l := range i.Labels {
		labels[n] = l.Name
	}
	assignees := make([]string, len(i.Assignees))
	for n, a := range i.Assignees {
		assignees[n] = a.Login
	}

	metadata := map[string]any{
		"number": i.Number,
		"state":  i.State,
	}
	if len(labels) > 0 {
		metadata["labels"] = labels
	}
	if len(assignees) > 0 {
		metadata["assignees"] = assignees
	}
	if kind == KindPullRequest {
		metadata["merged"] = merged
	}

	return Item{
		ID:           fmt.Sprintf("%d", i.ID),
		Kind:         kind,
		Title:        i.Title,
		Subtitle:     fmt.Sprintf("#%d", i.Number),
		Description:  trimDescription(i.Body),
		URL:          i.HTMLURL,
		Organization: org,
		Repository:   repo,
		Author:       i.User.Login,
		Avatar:       i.User.AvatarURL,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
		Score:        scoreOrDefault(i.Score),
		Metadata:     metadata,
	}
}

func commitItem(c github.Commit) Item {
	title := c.Commit.Message
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}

	author := c.Commit.Author.Name
	avatar := ""
	if c.Author != nil {
		author = c.Author.Login
		avatar = c.Author.AvatarURL
	}

	return Item{
		ID:           c.SHA,
		Kind:         KindCommit,
		Title:        title,
		Subtitle:     shortSHA(c.SHA),
		URL:          c.HTMLURL,
		Organization: c.Repository.Owner.Login,
		Repository:   c.Repository.Name,
		Author:       author,
		Avatar:       avatar,
		Language:     c.Repository.Language,
		CreatedAt:    c.Commit.Author.Date,
		UpdatedAt:    c.Commit.Author.Date,
		Score:        scoreOrDefault(c.Score),
		Metadata: map[string]any{
			"sha": c.SHA,
		},
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// splitRepositoryURL extracts owner and repo from an API repository URL
// of the form .../repos/{owner}/{repo}.
func splitRepositoryURL(repositoryURL string) (string, string) {
	const marker = "/repos/"
	idx := strings.Index(repositoryURL, marker)
	if idx == -1 {
		return "", ""
	}
	parts := strings.SplitN(repositoryURL[idx+len(marker):], "/", 3)
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
