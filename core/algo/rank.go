package algo

import "sort"

// AuthorVolume pairs an author key with its change volume.
type AuthorVolume struct {
	Author string
	Volume float64
}

// RankAuthors sorts authors by volume in descending order, breaking ties by
// author key, and returns the top 'limit' entries. A non-positive limit keeps all.
func RankAuthors(volumes map[string]float64, limit int) []AuthorVolume {
	ranked := make([]AuthorVolume, 0, len(volumes))
	for a, v := range volumes {
		ranked = append(ranked, AuthorVolume{Author: a, Volume: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Volume != ranked[j].Volume {
			return ranked[i].Volume > ranked[j].Volume
		}
		return ranked[i].Author < ranked[j].Author
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
