package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

func memorabiliaUnit(id string, value float64, quantity int) domain.InventoryUnit {
	u := unit(id, value, quantity)
	u.Kind = domain.UnitKindMemorabilia
	return u
}

func TestPricingCalculator_Price(t *testing.T) {
	t.Parallel()

	calc := NewPricingCalculator(2.5)

	tickets := []domain.InventoryUnit{
		unit("t1", 100, 1), unit("t2", 150, 1), unit("t3", 400, 1),
	}
	memorabilia := []domain.InventoryUnit{
		memorabiliaUnit("m1", 50, 1), memorabiliaUnit("m2", 900, 1),
	}

	t.Run("preview scenario lands between extremes, biased low", func(t *testing.T) {
		price, err := calc.Price(tickets, memorabilia, 1, 0.30)
		require.NoError(t, err)

		got := price.InexactFloat64()
		require.Greater(t, got, 150.0, "must exceed the cheapest combined total")
		require.Less(t, got, 1300.0, "must stay under the dearest combined total")
		require.Less(t, got, (150.0+1300.0)/2, "curve weighting biases toward the cheap end")
	})

	t.Run("monotonically non-decreasing in margin", func(t *testing.T) {
		prev := -1.0
		for _, margin := range []float64{0, 0.1, 0.2, 0.3, 0.5, 1.0} {
			price, err := calc.Price(tickets, memorabilia, 1, margin)
			require.NoError(t, err)
			require.GreaterOrEqual(t, price.InexactFloat64(), prev)
			prev = price.InexactFloat64()
		}
	})

	t.Run("scales linearly with bundle size", func(t *testing.T) {
		bigTickets := append([]domain.InventoryUnit{}, tickets...)
		bigMemorabilia := []domain.InventoryUnit{
			memorabiliaUnit("m1", 50, 2), memorabiliaUnit("m2", 900, 2),
		}

		one, err := calc.Price(bigTickets, bigMemorabilia, 1, 0.30)
		require.NoError(t, err)
		two, err := calc.Price(bigTickets, bigMemorabilia, 2, 0.30)
		require.NoError(t, err)

		require.InDelta(t, one.InexactFloat64()*2, two.InexactFloat64(), 0.02)
	})

	t.Run("same snapshot gives the same price", func(t *testing.T) {
		a, err := calc.Price(tickets, memorabilia, 1, 0.30)
		require.NoError(t, err)
		b, err := calc.Price(tickets, memorabilia, 1, 0.30)
		require.NoError(t, err)
		require.True(t, a.Equal(b))
	})

	t.Run("high variance doubles the margin at most", func(t *testing.T) {
		flat := []domain.InventoryUnit{
			memorabiliaUnit("f1", 100, 1), memorabiliaUnit("f2", 100, 1),
		}
		flatTickets := []domain.InventoryUnit{
			unit("ft1", 100, 1), unit("ft2", 100, 1),
		}

		// Zero variance: margin applies unscaled; base is exactly 200.
		price, err := calc.Price(flatTickets, flat, 1, 0.30)
		require.NoError(t, err)
		require.InDelta(t, 260.0, price.InexactFloat64(), 0.01)

		// Huge variance: the risk multiplier caps at 2x the requested margin,
		// so prices at two margins relate by (1+2*m1)/(1+2*m2).
		spreadA, err := calc.Price(tickets, memorabilia, 1, 0.30)
		require.NoError(t, err)
		spreadB, err := calc.Price(tickets, memorabilia, 1, 0.15)
		require.NoError(t, err)
		ratio := spreadA.InexactFloat64() / spreadB.InexactFloat64()
		require.InDelta(t, 1.6/1.3, ratio, 0.001)
	})

	t.Run("insufficient tickets", func(t *testing.T) {
		_, err := calc.Price(tickets[:1], memorabilia, 2, 0.30)
		require.ErrorIs(t, err, domain.ErrInsufficientInventory)
	})

	t.Run("insufficient memorabilia", func(t *testing.T) {
		_, err := calc.Price(tickets, nil, 1, 0.30)
		require.ErrorIs(t, err, domain.ErrInsufficientInventory)
	})

	t.Run("sold units do not count toward eligibility", func(t *testing.T) {
		sold := memorabiliaUnit("sold", 75, 0)
		sold.Status = domain.UnitStatusSold
		_, err := calc.Price(tickets, []domain.InventoryUnit{sold}, 1, 0.30)
		require.ErrorIs(t, err, domain.ErrInsufficientInventory)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := calc.Price(tickets, memorabilia, 0, 0.30)
		require.ErrorIs(t, err, domain.ErrInvalidBundleSize)
		_, err = calc.Price(tickets, memorabilia, 5, 0.30)
		require.ErrorIs(t, err, domain.ErrInvalidBundleSize)
		_, err = calc.Price(tickets, memorabilia, 1, -0.1)
		require.ErrorIs(t, err, domain.ErrInvalidMargin)
	})
}
