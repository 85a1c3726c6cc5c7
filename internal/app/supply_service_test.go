package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianparmann/seatjumper-sub002/internal/config"
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

type fakeSupplier struct {
	mu        sync.Mutex
	available map[string]int // keyed by gameID
	genErr    error
	generated int
}

func (f *fakeSupplier) Generate(_ context.Context, gameID string, _, count int) ([]domain.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return nil, f.genErr
	}
	pools := make([]domain.Pool, count)
	f.available[gameID] += count
	f.generated += count
	return pools, nil
}

func (f *fakeSupplier) CountAvailable(_ context.Context, gameID string, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[gameID], nil
}

func TestSupplyService_EnsureSupply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("tops up to the floor", func(t *testing.T) {
		supplier := &fakeSupplier{available: map[string]int{"game-1": 2}}
		svc := NewSupplyService(supplier, testLogger)

		count, err := svc.EnsureSupply(ctx, "game-1", 2, 5)
		require.NoError(t, err)
		require.Equal(t, 5, count)
		require.Equal(t, 3, supplier.generated, "only the deficit is generated")
	})

	t.Run("at or above the floor generates nothing", func(t *testing.T) {
		supplier := &fakeSupplier{available: map[string]int{"game-1": 5}}
		svc := NewSupplyService(supplier, testLogger)

		count, err := svc.EnsureSupply(ctx, "game-1", 2, 5)
		require.NoError(t, err)
		require.Equal(t, 5, count)
		require.Zero(t, supplier.generated)
	})

	t.Run("negative floor is treated as zero", func(t *testing.T) {
		supplier := &fakeSupplier{available: map[string]int{}}
		svc := NewSupplyService(supplier, testLogger)

		count, err := svc.EnsureSupply(ctx, "game-1", 2, -3)
		require.NoError(t, err)
		require.Zero(t, count)
		require.Zero(t, supplier.generated)
	})

	t.Run("generation failure reports the count it reached", func(t *testing.T) {
		supplier := &fakeSupplier{
			available: map[string]int{"game-1": 1},
			genErr:    domain.ErrInsufficientInventory,
		}
		svc := NewSupplyService(supplier, testLogger)

		count, err := svc.EnsureSupply(ctx, "game-1", 2, 5)
		require.ErrorIs(t, err, domain.ErrInsufficientInventory)
		require.Equal(t, 1, count)
	})
}

func TestSupplyMonitor_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	targets := []config.SupplyTarget{
		{GameID: "game-1", BundleSize: 2, Floor: 4},
		{GameID: "game-2", BundleSize: 1, Floor: 3},
	}

	t.Run("sweeps every target", func(t *testing.T) {
		supplier := &fakeSupplier{available: map[string]int{"game-1": 1}}
		monitor := NewSupplyMonitor(NewSupplyService(supplier, testLogger), targets, time.Minute, testLogger)

		monitor.Sweep(ctx)
		require.Equal(t, 4, supplier.available["game-1"])
		require.Equal(t, 3, supplier.available["game-2"])
	})

	t.Run("a failing target does not stop the sweep", func(t *testing.T) {
		supplier := &fakeSupplier{
			available: map[string]int{},
			genErr:    errors.New("db down"),
		}
		monitor := NewSupplyMonitor(NewSupplyService(supplier, testLogger), targets, time.Minute, testLogger)

		monitor.Sweep(ctx)
		require.Zero(t, supplier.generated)
	})

	t.Run("stop without start returns immediately", func(t *testing.T) {
		supplier := &fakeSupplier{available: map[string]int{}}
		monitor := NewSupplyMonitor(NewSupplyService(supplier, testLogger), targets, time.Minute, testLogger)
		monitor.Stop()
	})
}
