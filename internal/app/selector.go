package app

import (
	"math"
	"sort"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
	"github.com/julianparmann/seatjumper-sub002/internal/rng"
)

// WeightedSelector draws one unit from a candidate set with a price-biased
// distribution: cheaper units carry more weight, and the curve exponent
// controls how sharply the mass concentrates on the cheap end. Around 2.5 the
// expected payout is conservative; closer to 1.5 the variance widens for
// uncapped configurations.
type WeightedSelector struct {
	rng rng.Source
}

func NewWeightedSelector(src rng.Source) *WeightedSelector {
	return &WeightedSelector{rng: src}
}

// Select returns one sellable unit from items. Units that are sold out or out
// of stock are filtered first; an empty result is ErrEmptySelectionPool.
func (s *WeightedSelector) Select(items []domain.InventoryUnit, curveExponent float64) (domain.InventoryUnit, error) {
	eligible := make([]domain.InventoryUnit, 0, len(items))
	for _, u := range items {
		if u.Sellable() {
			eligible = append(eligible, u)
		}
	}
	if len(eligible) == 0 {
		return domain.InventoryUnit{}, domain.ErrEmptySelectionPool
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].UnitValue.LessThan(eligible[j].UnitValue)
	})

	weights := curveWeights(len(eligible), curveExponent)
	total := 0.0
	for _, w := range weights {
		total += w
	}

	r := s.rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative >= r {
			return eligible[i], nil
		}
	}
	// Floating-point drift can leave cumulative a hair under total.
	return eligible[len(eligible)-1], nil
}

// curveWeights assigns the i-th cheapest of n items the weight (1 - i/n)^exp.
// The cheapest item always weighs 1; the weight of the most expensive tends
// toward zero as the exponent grows.
func curveWeights(n int, exponent float64) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = math.Pow(1-float64(i)/float64(n), exponent)
	}
	return weights
}
