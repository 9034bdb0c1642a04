package aggregate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sumitmalik51/gitsecureops/db/kvdb"
	"github.com/sumitmalik51/gitsecureops/db/searchdb"
	"github.com/sumitmalik51/gitsecureops/github"
	"github.com/sumitmalik51/gitsecureops/logger"
	"golang.org/x/sync/errgroup"
)

// SearchClient is the slice of the provider client the aggregator
// fans out over.
type SearchClient interface {
	SearchRepositories(ctx context.Context, token, query, sort string, perPage int) (int, []github.Repository, error)
	SearchCode(ctx context.Context, token, query string, perPage int) (int, []github.CodeResult, error)
	SearchIssues(ctx context.Context, token, query, sort string, perPage int) (int, []github.Issue, error)
	SearchCommits(ctx context.Context, token, query, sort string, perPage int) (int, []github.Commit, error)
}

// ActivityIndexer receives the items of successful aggregations for the
// local activity index.
type ActivityIndexer interface {
	IndexItems(documents []searchdb.Document) error
}

const maxConcurrentSubSearches = 4

// Service is the fan-out aggregator: it decomposes a logical query into
// per-kind sub-searches, runs them with bounded concurrency, merges the
// normalized results, and produces deduplicated, ranked, faceted
// responses. Sub-search failures contribute zero items; only total
// failure flips the envelope to success:false.
type Service struct {
	logger  logger.Logger
	client  SearchClient
	cache   *Cache
	index   ActivityIndexer
	history kvdb.DB
	now     func() time.Time
}

func New(logger logger.Logger, client SearchClient, cache *Cache, index ActivityIndexer, history kvdb.DB) *Service {
	if cache == nil {
		cache = NewCache(5*time.Minute, nil)
	}
	return &Service{
		logger:  logger,
		client:  client,
		cache:   cache,
		index:   index,
		history: history,
		now:     time.Now,
	}
}

// Search runs the aggregation to completion. Repeat invocations within
// the cache TTL are served from the memo without touching the provider.
func (s *Service) Search(ctx context.Context, token string, q Query) *Response {
	q = q.normalized()

	key := q.CacheKey()
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("aggregation served from cache", "key", key)
		return cached
	}

	response := s.run(ctx, token, q, nil)
	s.finish(q, response)

	return response
}

// SearchStream runs the aggregation and emits a superseding snapshot
// after every completed sub-search, terminated by the final response.
// The channel is closed once the final snapshot has been sent.
// Streaming reads bypass the cache, but the final result is written
// back for later non-streaming reads.
func (s *Service) SearchStream(ctx context.Context, token string, q Query) <-chan *Response {
	q = q.normalized()

	// Buffered for the worst case of one snapshot per sub-search plus
	// the final response, so an abandoned consumer never wedges the
	// fan-out.
	snapshots := make(chan *Response, len(q.Types)+1)

	go func() {
		defer close(snapshots)

		final := s.run(ctx, token, q, func(partial *Response) {
			snapshots <- partial
		})
		s.finish(q, final)

		snapshots <- final
	}()

	return snapshots
}

// InvalidateCache drops every memoized response.
func (s *Service) InvalidateCache() {
	s.cache.InvalidateAll()
}

// finish memoizes, locally indexes and history-records successful
// responses. Failures are never cached, so the next call retries from
// scratch.
func (s *Service) finish(q Query, response *Response) {
	if !response.Success {
		return
	}
	s.cache.Put(q.CacheKey(), response)
	s.indexItems(response.Items)
	s.recordHistory(q, response)
}

func (s *Service) run(ctx context.Context, token string, q Query, onProgress func(*Response)) *Response {
	start := s.now()

	var mu sync.Mutex
	var collected []Item
	var failures []string

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentSubSearches)

	for _, kind := range q.Types {
		kind := kind
		g.Go(func() error {
			items, err := s.subSearch(ctx, token, kind, q)

			mu.Lock()
			if err != nil {
				s.logger.Warn("sub-search failed", "kind", string(kind), "err", err.Error())
				failures = append(failures, fmt.Sprintf("%s: %s", kind, err.Error()))
			} else {
				collected = append(collected, items...)
			}

			var snapshot *Response
			if onProgress != nil {
				snapshot = s.assemble(q, collected, failures, start, false)
			}
			mu.Unlock()

			if snapshot != nil {
				onProgress(snapshot)
			}

			// Sub-search failures never abort siblings.
			return nil
		})
	}

	g.Wait()

	return s.assemble(q, collected, failures, start, true)
}

func (s *Service) subSearch(ctx context.Context, token string, kind Kind, q Query) ([]Item, error) {
	query := buildProviderQuery(kind, q)
	sortParam := providerSort(q.Sort)

	switch kind {
	case KindRepository:
		_, repos, err := s.client.SearchRepositories(ctx, token, query, sortParam, github.PerPage)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(repos))
		for i, r := range repos {
			items[i] = repositoryItem(r)
		}
		return items, nil

	case KindCode:
		_, results, err := s.client.SearchCode(ctx, token, query, github.PerPage)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(results))
		for i, r := range results {
			items[i] = codeItem(r)
		}
		return items, nil

	case KindPullRequest, KindIssue:
		_, issues, err := s.client.SearchIssues(ctx, token, query, sortParam, github.PerPage)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(issues))
		for i, issue := range issues {
			items[i] = issueItem(issue)
		}
		return items, nil

	case KindCommit:
		_, commits, err := s.client.SearchCommits(ctx, token, query, sortParam, github.PerPage)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(commits))
		for i, c := range commits {
			items[i] = commitItem(c)
		}
		return items, nil
	}

	// Kinds without a dedicated search endpoint contribute nothing.
	return nil, nil
}

// assemble builds a response over the items collected so far. Callers
// holding the collector lock get a consistent snapshot; Rank never
// mutates its input.
func (s *Service) assemble(q Query, collected []Item, failures []string, start time.Time, final bool) *Response {
	response := &Response{
		Success: true,
		Items:   Rank(collected, q.Sort, q.Limit),
		Metadata: Metadata{
			TotalCount:           len(collected),
			Query:                q,
			ElapsedMS:            s.now().Sub(start).Milliseconds(),
			Truncated:            len(q.Organizations) > maxOrgsPerQuery,
			OmittedOrganizations: omittedOrganizations(q),
			Partial:              !final,
			Facets:               countFacets(collected),
		},
	}

	if final && len(q.Types) > 0 && len(failures) == len(q.Types) {
		response.Success = false
		response.Error = strings.Join(failures, "; ")
	}

	return response
}

func (s *Service) indexItems(items []Item) {
	if s.index == nil || len(items) == 0 {
		return
	}

	documents := make([]searchdb.Document, len(items))
	for i, item := range items {
		documents[i] = searchdb.Document{
			ID:           string(item.Kind) + ":" + item.ID,
			Kind:         string(item.Kind),
			Organization: item.Organization,
			Repository:   item.Repository,
			Title:        item.Title,
			Content:      strings.TrimSpace(item.Description + " " + item.Preview),
			URL:          item.URL,
			UpdatedAt:    timestamp(item.UpdatedAt),
		}
	}

	if err := s.index.IndexItems(documents); err != nil {
		s.logger.Warn("could not index aggregated items", "err", err.Error())
	}
}
