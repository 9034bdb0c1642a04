package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the source type of a unified item.
type Kind string

const (
	KindRepository  Kind = "repo"
	KindCode        Kind = "code"
	KindPullRequest Kind = "pr"
	KindIssue       Kind = "issue"
	KindCommit      Kind = "commit"
	KindUser        Kind = "user"
	KindDiscussion  Kind = "discussion"
	KindRelease     Kind = "release"
)

// searchableKinds are the kinds the fan-out can query directly. Users,
// discussions and releases only appear as normalized side products.
var searchableKinds = []Kind{KindRepository, KindCode, KindPullRequest, KindIssue, KindCommit}

type Mode string

const (
	ModeRecent Mode = "recent"
	ModeSearch Mode = "search"
)

type Sort string

const (
	SortBestMatch Sort = "best-match"
	SortCreated   Sort = "created"
	SortUpdated   Sort = "updated"
)

// Item is the unified result record every provider schema normalizes
// into. Items are immutable value objects owned by their response.
type Item struct {
	ID           string         `json:"id"`
	Kind         Kind           `json:"kind"`
	Title        string         `json:"title"`
	Subtitle     string         `json:"subtitle,omitempty"`
	Description  string         `json:"description,omitempty"`
	URL          string         `json:"url"`
	Organization string         `json:"organization"`
	Repository   string         `json:"repository,omitempty"`
	Author       string         `json:"author,omitempty"`
	Avatar       string         `json:"avatar,omitempty"`
	Language     string         `json:"language,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
	Score        float64        `json:"score"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Preview      string         `json:"preview,omitempty"`
}

// dedupKey groups items that refer to the same repository, regardless
// of kind.
func (i Item) dedupKey() string {
	if i.Repository == "" {
		// Items without a repository scope are never collapsed together.
		return string(i.Kind) + ":" + i.ID
	}
	return i.Organization + "/" + i.Repository
}

// Query describes one logical aggregation request. It is built per user
// action and never persisted.
type Query struct {
	Mode          Mode     `json:"mode"`
	Organizations []string `json:"organizations"`
	Text          string   `json:"query"`
	Types         []Kind   `json:"types"`
	Language      string   `json:"language,omitempty"`
	State         string   `json:"state,omitempty"`
	Author        string   `json:"author,omitempty"`
	Sort          Sort     `json:"sort"`
	Limit         int      `json:"limit"`
}

const defaultLimit = 50

// normalized fills defaults: all searchable kinds when none requested,
// best-match sort, a bounded limit, recent mode forcing updated order.
func (q Query) normalized() Query {
	if len(q.Types) == 0 {
		q.Types = append([]Kind(nil), searchableKinds...)
	}
	if q.Mode == "" {
		q.Mode = ModeSearch
	}
	if q.Mode == ModeRecent {
		q.Sort = SortUpdated
	}
	if q.Sort == "" {
		q.Sort = SortBestMatch
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	return q
}

// CacheKey is a deterministic serialization of the logical query.
func (q Query) CacheKey() string {
	types := make([]string, len(q.Types))
	for i, t := range q.Types {
		types[i] = string(t)
	}
	return strings.Join([]string{
		string(q.Mode),
		strings.Join(q.Organizations, ","),
		q.Text,
		strings.Join(types, ","),
		q.Language,
		q.State,
		q.Author,
		string(q.Sort),
		fmt.Sprintf("%d", q.Limit),
	}, "|")
}

// FacetCount is one value bucket of a facet group.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are tallied over the pre-dedup item set, so a repository with
// many code hits keeps its true hit count even though it appears once
// in the deduplicated items.
type Facets struct {
	Organizations []FacetCount `json:"organizations"`
	Types         []FacetCount `json:"types"`
	Languages     []FacetCount `json:"languages"`
	Repositories  []FacetCount `json:"repositories"`
}

type Metadata struct {
	TotalCount           int      `json:"total_count"`
	Query                Query    `json:"query"`
	ElapsedMS            int64    `json:"elapsed_ms"`
	Truncated            bool     `json:"truncated,omitempty"`
	OmittedOrganizations []string `json:"omitted_organizations,omitempty"`
	Partial              bool     `json:"partial,omitempty"`
	Facets               Facets   `json:"facets"`
}

// Response is the envelope returned to callers. Failure paths resolve
// to a typed response; no error escapes the engine's entry points.
type Response struct {
	Success  bool     `json:"success"`
	Items    []Item   `json:"items"`
	Metadata Metadata `json:"metadata"`
	Error    string   `json:"error,omitempty"`
}
