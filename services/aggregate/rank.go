package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// kindPriority decides which hit represents a repository when several
// kinds collapse into one entry. Repository beats code beats the rest.
var kindPriority = map[Kind]int{
	KindRepository:  4,
	KindCode:        3,
	KindPullRequest: 2,
	KindIssue:       2,
	KindCommit:      2,
}

// collapsedLabel names each kind in the "(+3 files, 2 PRs)" annotation.
var collapsedLabel = map[Kind]struct{ singular, plural string }{
	KindRepository:  {"repo", "repos"},
	KindCode:        {"file", "files"},
	KindPullRequest: {"PR", "PRs"},
	KindIssue:       {"issue", "issues"},
	KindCommit:      {"commit", "commits"},
}

// annotationOrder keeps the collapsed-hit summary deterministic.
var annotationOrder = []Kind{KindRepository, KindCode, KindPullRequest, KindIssue, KindCommit}

// Rank collapses items referring to the same repository into one
// representative, annotates it with the collapsed hit counts, sorts by
// the requested key and truncates to limit. The input slice is not
// modified; ranking an already-ranked set is a no-op.
func Rank(items []Item, sortKey Sort, limit int) []Item {
	type group struct {
		representative Item
		collapsed      map[Kind]int
	}

	var order []string
	groups := make(map[string]*group)

	for _, item := range items {
		key := item.dedupKey()
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{representative: item, collapsed: map[Kind]int{}}
			order = append(order, key)
			continue
		}

		if betterRepresentative(item, g.representative) {
			g.collapsed[g.representative.Kind]++
			g.representative = item
		} else {
			g.collapsed[item.Kind]++
		}
	}

	ranked := make([]Item, 0, len(order))
	for _, key := range order {
		g := groups[key]
		representative := g.representative
		if annotation := collapsedSummary(g.collapsed); annotation != "" {
			if representative.Description != "" {
				representative.Description += " "
			}
			representative.Description += "(+" + annotation + ")"
			representative.Metadata = withMatchCounts(representative.Metadata, g.collapsed)
		}
		ranked = append(ranked, representative)
	}

	sortItems(ranked, sortKey)

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func betterRepresentative(candidate, current Item) bool {
	cp, op := kindPriority[candidate.Kind], kindPriority[current.Kind]
	if cp != op {
		return cp > op
	}
	return candidate.Score > current.Score
}

func collapsedSummary(collapsed map[Kind]int) string {
	var parts []string
	for _, kind := range annotationOrder {
		count := collapsed[kind]
		if count == 0 {
			continue
		}
		label := collapsedLabel[kind].plural
		if count == 1 {
			label = collapsedLabel[kind].singular
		}
		parts = append(parts, fmt.Sprintf("%d %s", count, label))
	}
	return strings.Join(parts, ", ")
}

func withMatchCounts(metadata map[string]any, collapsed map[Kind]int) map[string]any {
	counts := map[string]int{}
	for kind, count := range collapsed {
		counts[string(kind)] = count
	}

	enriched := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		enriched[k] = v
	}
	enriched["collapsed_matches"] = counts
	return enriched
}

// sortItems orders descending by the requested key. Ties keep their
// pre-sort relative order, which makes truncation stable.
func sortItems(items []Item, sortKey Sort) {
	switch sortKey {
	case SortCreated:
		sort.SliceStable(items, func(i, j int) bool {
			return timestamp(items[i].CreatedAt).After(timestamp(items[j].CreatedAt))
		})
	case SortUpdated:
		sort.SliceStable(items, func(i, j int) bool {
			return timestamp(items[i].UpdatedAt).After(timestamp(items[j].UpdatedAt))
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Score > items[j].Score
		})
	}
}

// timestamp treats a missing time as the epoch so undated items sort
// oldest.
func timestamp(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
