package aggregate

import "sort"

// countFacets tallies the pre-dedup item set by organization, type,
// language and repository. Each group is sorted descending by count,
// ties broken alphabetically for determinism.
func countFacets(items []Item) Facets {
	organizations := map[string]int{}
	types := map[string]int{}
	languages := map[string]int{}
	repositories := map[string]int{}

	for _, item := range items {
		if item.Organization != "" {
			organizations[item.Organization]++
		}
		types[string(item.Kind)]++
		if item.Language != "" {
			languages[item.Language]++
		}
		if item.Repository != "" {
			repositories[item.Organization+"/"+item.Repository]++
		}
	}

	return Facets{
		Organizations: sortedCounts(organizations),
		Types:         sortedCounts(types),
		Languages:     sortedCounts(languages),
		Repositories:  sortedCounts(repositories),
	}
}

func sortedCounts(counts map[string]int) []FacetCount {
	facets := make([]FacetCount, 0, len(counts))
	for value, count := range counts {
		facets = append(facets, FacetCount{Value: value, Count: count})
	}

	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Value < facets[j].Value
	})

	return facets
}
