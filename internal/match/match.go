// ABOUTME: Selects ranked base-catalog matches for one merge unit from a score row.
// ABOUTME: Top-k is taken before the threshold filter; ties keep base document order.
package match

import (
	"math"
	"sort"

	"github.com/2389-research/ctlmatch/internal/models"
)

// TopIndices returns the indices of the k highest scores in descending order.
// Equal scores keep their original order and NaN ranks below every number.
func TopIndices(row []float64, k int) []int {
	if k <= 0 || len(row) == 0 {
		return nil
	}

	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return higher(row[idx[a]], row[idx[b]])
	})

	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// Select returns up to topK matches from base whose score is at least threshold,
// best first. row[j] must be the score against base[j].
func Select(row []float64, base []models.TextUnit, topK int, threshold float64) []models.Match {
	if len(base) == 0 {
		return nil
	}
	if len(row) > len(base) {
		row = row[:len(base)]
	}

	var matches []models.Match
	for _, j := range TopIndices(row, topK) {
		score := row[j]
		if !(score >= threshold) {
			continue
		}
		matches = append(matches, models.Match{Base: base[j], Score: score})
	}
	return matches
}
