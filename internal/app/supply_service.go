package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/julianparmann/seatjumper-sub002/internal/config"
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// PoolSupplier is the slice of PoolService the supply check needs.
type PoolSupplier interface {
	Generate(ctx context.Context, gameID string, bundleSize, count int) ([]domain.Pool, error)
	CountAvailable(ctx context.Context, gameID string, bundleSize int) (int, error)
}

// SupplyService keeps pool stock above a floor. EnsureSupply is synchronous:
// it sits in the "is anything sellable right now" path, so a purchase request
// right after it can rely on stock existing. Post-claim backfill runs
// detached instead.
type SupplyService struct {
	pools  PoolSupplier
	logger *slog.Logger
}

func NewSupplyService(pools PoolSupplier, logger *slog.Logger) *SupplyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SupplyService{pools: pools, logger: logger}
}

// EnsureSupply tops the (game, size) key up to floor, generating the deficit
// before returning. The returned count is the AVAILABLE supply after the call.
func (s *SupplyService) EnsureSupply(ctx context.Context, gameID string, bundleSize, floor int) (int, error) {
	if floor < 0 {
		floor = 0
	}

	count, err := s.pools.CountAvailable(ctx, gameID, bundleSize)
	if err != nil {
		return 0, err
	}
	if count >= floor {
		return count, nil
	}

	generated, err := s.pools.Generate(ctx, gameID, bundleSize, floor-count)
	if err != nil {
		return count + len(generated), err
	}
	return count + len(generated), nil
}

// SupplyMonitor sweeps configured supply targets on an interval. Sweep
// failures are logged and never propagate: the monitor is an optimization
// layered over the synchronous check, not a correctness requirement.
type SupplyMonitor struct {
	supply   *SupplyService
	targets  []config.SupplyTarget
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

func NewSupplyMonitor(supply *SupplyService, targets []config.SupplyTarget, interval time.Duration, logger *slog.Logger) *SupplyMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SupplyMonitor{
		supply:   supply,
		targets:  targets,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Stop halts it and waits for the in-flight
// sweep to finish.
func (m *SupplyMonitor) Start() {
	if m.started {
		return
	}
	m.started = true
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), m.interval)
				m.Sweep(ctx)
				cancel()
			case <-m.stop:
				return
			}
		}
	}()
}

func (m *SupplyMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	if m.started {
		<-m.done
	}
}

// Sweep runs one pass over every target.
func (m *SupplyMonitor) Sweep(ctx context.Context) {
	for _, t := range m.targets {
		count, err := m.supply.EnsureSupply(ctx, t.GameID, t.BundleSize, t.Floor)
		if err != nil {
			m.logger.Error("supply sweep failed",
				"game_id", t.GameID, "bundle_size", t.BundleSize, "floor", t.Floor, "error", err)
			continue
		}
		if count < t.Floor {
			m.logger.Warn("supply below floor after sweep",
				"game_id", t.GameID, "bundle_size", t.BundleSize, "floor", t.Floor, "available", count)
		}
	}
}
