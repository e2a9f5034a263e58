package assignment

import (
	"math/rand"

	"github.com/angelayejinyi/mfv-labeller/internal/models"
)

// Pool is the read-only sample source the sampler draws from. The
// corpus index satisfies it.
type Pool interface {
	ByFoundationAndLabel(foundation string, label models.Label) []models.Sample
	ByLabel(label models.Label) []models.Sample
	All() []models.Sample
}

// Sampler draws quota-constrained sample sets for an assigned pair.
// Draws are side-effect free with respect to other participants: ids
// are excluded only within a single Draw call.
type Sampler struct {
	pool Pool
	rng  *rand.Rand
}

// NewSampler creates a sampler over the given pool. The random source
// is injected so tests can seed it.
func NewSampler(pool Pool, rng *rand.Rand) *Sampler {
	return &Sampler{pool: pool, rng: rng}
}

// Draw returns an ordered list of sample ids for the pair: first a
// shuffled block for pair.A, then a shuffled block for pair.B, then a
// shuffled filler block if the corpus could not cover the quota even
// with the cross-foundation fallback. Blocks are never shuffled across
// each other. Each quota is split between the foundations as
// floor(quota/2) for A and the remainder for B.
//
// Scarcity never raises an error; the result is simply shorter than
// the quota. Callers needing an exact count must check the length.
func (s *Sampler) Draw(pair models.FoundationPair, wantOriginal, wantGenerated int) []int {
	origA := wantOriginal / 2
	genA := wantGenerated / 2

	allocations := []struct {
		foundation string
		needOrig   int
		needGen    int
	}{
		{pair.A, origA, genA},
		{pair.B, wantOriginal - origA, wantGenerated - genA},
	}

	chosen := make(map[int]bool)
	var ids []int

	for _, alloc := range allocations {
		block := s.drawLabel(alloc.foundation, models.LabelOriginal, alloc.needOrig, chosen)
		block = append(block, s.drawLabel(alloc.foundation, models.LabelGenerated, alloc.needGen, chosen)...)
		s.rng.Shuffle(len(block), func(i, j int) {
			block[i], block[j] = block[j], block[i]
		})
		ids = append(ids, block...)
	}

	total := wantOriginal + wantGenerated
	if len(ids) < total {
		filler := s.pick(s.pool.All(), total-len(ids), chosen)
		s.rng.Shuffle(len(filler), func(i, j int) {
			filler[i], filler[j] = filler[j], filler[i]
		})
		ids = append(ids, filler...)
	}

	return ids
}

// drawLabel draws up to n samples of a label from one foundation,
// topping up from the label's full cross-foundation pool when the
// foundation runs short. Quota fulfillment wins over strict foundation
// adherence.
func (s *Sampler) drawLabel(foundation string, label models.Label, n int, chosen map[int]bool) []int {
	got := s.pick(s.pool.ByFoundationAndLabel(foundation, label), n, chosen)
	if len(got) < n {
		got = append(got, s.pick(s.pool.ByLabel(label), n-len(got), chosen)...)
	}
	return got
}

// pick draws up to n ids uniformly without replacement from the pool
// entries not yet chosen, marking them chosen.
func (s *Sampler) pick(pool []models.Sample, n int, chosen map[int]bool) []int {
	if n <= 0 {
		return nil
	}

	candidates := make([]int, 0, len(pool))
	for _, sample := range pool {
		if !chosen[sample.ID] {
			candidates = append(candidates, sample.ID)
		}
	}

	if n > len(candidates) {
		n = len(candidates)
	}
	// Partial Fisher-Yates: the first n positions end up a uniform
	// without-replacement draw.
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	picked := candidates[:n]
	for _, id := range picked {
		chosen[id] = true
	}
	return picked
}
