package github

import (
	"context"
	"net/url"
	"strconv"
)

// The search endpoint family shares the `{total_count, items}` envelope
// and a common query grammar; each call fetches a single page of up to
// perPage hits.

func searchParams(query, sort string, perPage int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(perPage))
	if sort != "" {
		params.Set("sort", sort)
		params.Set("order", "desc")
	}
	return params
}

func runSearch[T any](ctx context.Context, c *Client, token, path, accept, query, sort string, perPage int) (int, []T, error) {
	var envelope searchEnvelope[T]
	if err := c.get(ctx, token, path, searchParams(query, sort, perPage), accept, &envelope); err != nil {
		return 0, nil, err
	}
	return envelope.TotalCount, envelope.Items, nil
}

func (c *Client) SearchRepositories(ctx context.Context, token, query, sort string, perPage int) (int, []Repository, error) {
	return runSearch[Repository](ctx, c, token, "/search/repositories", "", query, sort, perPage)
}

// SearchCode requests text-match fragments alongside each hit so the
// console can show previews. The code search endpoint does not support
// sort keys other than recency of indexing, so sort is not forwarded.
func (c *Client) SearchCode(ctx context.Context, token, query string, perPage int) (int, []CodeResult, error) {
	return runSearch[CodeResult](ctx, c, token, "/search/code", acceptTextMatch, query, "", perPage)
}

// SearchIssues covers both issues and pull requests; hits carry a
// pull_request marker when they are PRs.
func (c *Client) SearchIssues(ctx context.Context, token, query, sort string, perPage int) (int, []Issue, error) {
	return runSearch[Issue](ctx, c, token, "/search/issues", "", query, sort, perPage)
}

func (c *Client) SearchCommits(ctx context.Context, token, query, sort string, perPage int) (int, []Commit, error) {
	return runSearch[Commit](ctx, c, token, "/search/commits", "", query, sort, perPage)
}
