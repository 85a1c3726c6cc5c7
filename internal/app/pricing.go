package app

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// PricingCalculator computes the buyer-facing price of a bundle from the
// current inventory snapshot. It is pure: the same snapshot, size, and margin
// always produce the same price, so pool generation and pricing previews
// cannot disagree.
type PricingCalculator struct {
	curveExponent float64
}

func NewPricingCalculator(curveExponent float64) *PricingCalculator {
	return &PricingCalculator{curveExponent: curveExponent}
}

// Price returns the price of a bundle of bundleSize (ticket, memorabilia)
// pairs. The base is a curve-weighted average unit price per kind (the same
// weighting the selector draws with, which suppresses outlier influence),
// scaled by the bundle size. The requested margin is then widened by a risk
// multiplier derived from the price variance of the combined snapshot and
// capped at 2x:
//
//	effectiveMargin = marginPct * min(1 + variance/10000, 2)
//
// Fewer than bundleSize sellable units of either kind is ErrInsufficientInventory.
func (c *PricingCalculator) Price(tickets, memorabilia []domain.InventoryUnit, bundleSize int, marginPct float64) (decimal.Decimal, error) {
	if !domain.ValidBundleSize(bundleSize) {
		return decimal.Zero, domain.ErrInvalidBundleSize
	}
	if marginPct < 0 {
		return decimal.Zero, domain.ErrInvalidMargin
	}

	ticketPrices := sellablePrices(tickets)
	memorabiliaPrices := sellablePrices(memorabilia)
	if len(ticketPrices) < bundleSize || len(memorabiliaPrices) < bundleSize {
		return decimal.Zero, domain.ErrInsufficientInventory
	}

	base := (c.weightedAverage(ticketPrices) + c.weightedAverage(memorabiliaPrices)) * float64(bundleSize)

	combined := append(append([]float64{}, ticketPrices...), memorabiliaPrices...)
	effectiveMargin := marginPct * math.Min(1+variance(combined)/10000, 2)

	return decimal.NewFromFloat(base * (1 + effectiveMargin)).Round(2), nil
}

func (c *PricingCalculator) weightedAverage(prices []float64) float64 {
	sorted := append([]float64{}, prices...)
	sort.Float64s(sorted)

	weights := curveWeights(len(sorted), c.curveExponent)
	sum, total := 0.0, 0.0
	for i, p := range sorted {
		sum += p * weights[i]
		total += weights[i]
	}
	return sum / total
}

func sellablePrices(units []domain.InventoryUnit) []float64 {
	prices := make([]float64, 0, len(units))
	for _, u := range units {
		if u.Sellable() {
			prices = append(prices, u.UnitValue.InexactFloat64())
		}
	}
	return prices
}

func variance(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
