package assignment

import (
	"errors"
	"math/rand"

	"github.com/angelayejinyi/mfv-labeller/internal/models"
)

// ErrInsufficientFoundations is returned when the corpus has fewer than
// two distinct foundations, making pair assignment impossible.
var ErrInsufficientFoundations = errors.New("at least 2 distinct foundations are required")

// AllPairs enumerates every unordered pair of distinct foundations, in
// the order the (sorted) foundation slice produces: (f[i], f[j]) for
// all i < j. This order is the canonical stored form of a pair.
func AllPairs(foundations []string) []models.FoundationPair {
	var pairs []models.FoundationPair
	for i := 0; i < len(foundations); i++ {
		for j := i + 1; j < len(foundations); j++ {
			pairs = append(pairs, models.FoundationPair{A: foundations[i], B: foundations[j]})
		}
	}
	return pairs
}

// MinCountPairs returns all pairs whose historical assignment count
// equals the minimum across every pair. Pairs absent from counts count
// as zero. The result is fully determined by the inputs, which is what
// makes the tie-break testable in isolation.
func MinCountPairs(foundations []string, counts map[models.FoundationPair]int) []models.FoundationPair {
	pairs := AllPairs(foundations)
	if len(pairs) == 0 {
		return nil
	}

	minCount := -1
	var candidates []models.FoundationPair
	for _, p := range pairs {
		c := counts[p]
		switch {
		case minCount < 0 || c < minCount:
			minCount = c
			candidates = append(candidates[:0], p)
		case c == minCount:
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// ChoosePair picks the foundation pair that most improves balance: one
// of the least-assigned pairs, uniformly at random among ties.
func ChoosePair(foundations []string, counts map[models.FoundationPair]int, rng *rand.Rand) (models.FoundationPair, error) {
	candidates := MinCountPairs(foundations, counts)
	if len(candidates) == 0 {
		return models.FoundationPair{}, ErrInsufficientFoundations
	}
	return candidates[rng.Intn(len(candidates))], nil
}
