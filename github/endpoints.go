package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Per-endpoint page functions. Each adapts one endpoint's response shape
// to the generic fetcher instead of duplicating the walk loop.

func pageParams(page, perPage int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	return params
}

// OrgRepositories lists every repository of an organization.
func (c *Client) OrgRepositories(token, org string) PageFunc[Repository] {
	path := fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org))
	return func(ctx context.Context, page, perPage int) ([]Repository, error) {
		var repos []Repository
		if err := c.get(ctx, token, path, pageParams(page, perPage), "", &repos); err != nil {
			return nil, err
		}
		return repos, nil
	}
}

// RepoCollaborators lists direct collaborators of a repository with
// their permission levels.
func (c *Client) RepoCollaborators(token, owner, repo string) PageFunc[Collaborator] {
	path := fmt.Sprintf("/repos/%s/%s/collaborators", url.PathEscape(owner), url.PathEscape(repo))
	return func(ctx context.Context, page, perPage int) ([]Collaborator, error) {
		params := pageParams(page, perPage)
		params.Set("affiliation", "direct")
		var collaborators []Collaborator
		if err := c.get(ctx, token, path, params, "", &collaborators); err != nil {
			return nil, err
		}
		return collaborators, nil
	}
}

// OrgMembers lists organization members. filter may be "2fa_disabled"
// to restrict to members without two-factor authentication.
func (c *Client) OrgMembers(token, org, filter string) PageFunc[User] {
	path := fmt.Sprintf("/orgs/%s/members", url.PathEscape(org))
	return func(ctx context.Context, page, perPage int) ([]User, error) {
		params := pageParams(page, perPage)
		if filter != "" {
			params.Set("filter", filter)
		}
		var members []User
		if err := c.get(ctx, token, path, params, "", &members); err != nil {
			return nil, err
		}
		return members, nil
	}
}

// CopilotSeats lists Copilot seat assignments. The endpoint wraps its
// pages in a `{total_seats, seats}` envelope rather than a bare array.
func (c *Client) CopilotSeats(token, org string) PageFunc[CopilotSeat] {
	path := fmt.Sprintf("/orgs/%s/copilot/billing/seats", url.PathEscape(org))
	return func(ctx context.Context, page, perPage int) ([]CopilotSeat, error) {
		var envelope seatsEnvelope
		if err := c.get(ctx, token, path, pageParams(page, perPage), "", &envelope); err != nil {
			return nil, err
		}
		return envelope.Seats, nil
	}
}

// RemoveCollaborator removes a direct collaborator from a repository.
func (c *Client) RemoveCollaborator(ctx context.Context, token, owner, repo, username string) error {
	path := fmt.Sprintf("/repos/%s/%s/collaborators/%s",
		url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(username))
	return c.delete(ctx, token, path)
}

// AuthenticatedUser resolves the identity behind a token.
func (c *Client) AuthenticatedUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, token, "/user", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
