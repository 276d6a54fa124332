// Package typoutil ranks headwords by edit distance for "did you mean"
// suggestions.
package typoutil

import (
	"sort"
)

// DistanceWithin computes the Damerau-Levenshtein distance between a and b
// (insertions, deletions, substitutions and adjacent transpositions, counted
// on runes). It stops early and returns maxDistance+1 once the distance is
// known to exceed maxDistance.
func DistanceWithin(a, b string, maxDistance int) int {
	runesA := []rune(a)
	runesB := []rune(b)
	lenA, lenB := len(runesA), len(runesB)

	diff := lenA - lenB
	if diff < 0 {
		diff = -diff
	}
	if diff > maxDistance {
		return maxDistance + 1
	}
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Three rows: i-2 is needed for transpositions.
	prevPrev := make([]int, lenB+1)
	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		rowMin := i

		for j := 1; j <= lenB; j++ {
			cost := 1
			if runesA[i-1] == runesB[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)

			if i > 1 && j > 1 && runesA[i-1] == runesB[j-2] && runesA[i-2] == runesB[j-1] {
				curr[j] = min(curr[j], prevPrev[j-2]+1)
			}
			rowMin = min(rowMin, curr[j])
		}

		if rowMin > maxDistance {
			return maxDistance + 1
		}
		prevPrev, prev, curr = prev, curr, prevPrev
	}

	if prev[lenB] > maxDistance {
		return maxDistance + 1
	}
	return prev[lenB]
}

// MaxDistanceFor returns the edit budget for a query: none for one or two
// runes, one up to five runes, two beyond.
func MaxDistanceFor(query string) int {
	switch n := len([]rune(query)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

// Closest returns up to limit candidates within maxDistance of query,
// nearest first. Ties keep candidate order. The query itself is never
// returned.
func Closest(query string, candidates []string, maxDistance, limit int) []string {
	type scored struct {
		word     string
		distance int
	}

	var hits []scored
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == query {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if d := DistanceWithin(query, c, maxDistance); d <= maxDistance {
			hits = append(hits, scored{word: c, distance: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distance < hits[j].distance
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	words := make([]string, len(hits))
	for i, h := range hits {
		words[i] = h.word
	}
	return words
}
