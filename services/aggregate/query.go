package aggregate

import (
	"strings"
	"unicode"
)

// maxOrgsPerQuery caps how many org: qualifiers are OR-combined into a
// single provider query string; the search grammar rejects overly
// complex queries. Organizations beyond the cap are reported through
// the response metadata's truncated flag rather than dropped silently.
const maxOrgsPerQuery = 3

// buildProviderQuery renders the provider search-grammar string for one
// kind. Pure and deterministic.
func buildProviderQuery(kind Kind, q Query) string {
	var parts []string

	if text := strings.TrimSpace(q.Text); text != "" {
		parts = append(parts, quoteIfPhrase(text))
	}

	for i, org := range q.Organizations {
		if i == maxOrgsPerQuery {
			break
		}
		parts = append(parts, "org:"+org)
	}

	switch kind {
	case KindRepository, KindCode:
		if q.Language != "" {
			parts = append(parts, "language:"+q.Language)
		}
	case KindPullRequest:
		parts = append(parts, "is:pr")
		parts = appendIssueFilters(parts, q)
	case KindIssue:
		parts = append(parts, "is:issue")
		parts = appendIssueFilters(parts, q)
	case KindCommit:
		if q.Author != "" {
			parts = append(parts, "author:"+q.Author)
		}
	}

	return strings.Join(parts, " ")
}

func appendIssueFilters(parts []string, q Query) []string {
	if q.State != "" {
		parts = append(parts, "state:"+q.State)
	}
	if q.Author != "" {
		parts = append(parts, "author:"+q.Author)
	}
	return parts
}

// quoteIfPhrase wraps multi-word terms in quotes to force exact-phrase
// matching.
func quoteIfPhrase(text string) string {
	if strings.IndexFunc(text, unicode.IsSpace) == -1 {
		return text
	}
	if strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		return text
	}
	return `"` + text + `"`
}

// omittedOrganizations lists the orgs excluded by the per-query cap.
func omittedOrganizations(q Query) []string {
	if len(q.Organizations) <= maxOrgsPerQuery {
		return nil
	}
	return append([]string(nil), q.Organizations[maxOrgsPerQuery:]...)
}

// providerSort maps the logical sort key onto the search endpoints'
// sort parameter. Best-match is the provider default (empty).
func providerSort(s Sort) string {
	switch s {
	case SortCreated:
		return "created"
	case SortUpdated:
		return "updated"
	default:
		return ""
	}
}
