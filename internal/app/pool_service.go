package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/cache"
	"github.com/julianparmann/seatjumper-sub002/internal/clock"
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

type PoolRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetGame(ctx context.Context, gameID string) (domain.Game, error)
	ListEligibleUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error)
	CreatePool(ctx context.Context, pool domain.Pool) error
	GetAvailablePool(ctx context.Context, gameID string, bundleSize int) (*domain.Pool, error)
	CountAvailablePools(ctx context.Context, gameID string, bundleSize int) (int, error)
	MarkStaleByGame(ctx context.Context, gameID string) (int64, error)
	ListVIPUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error)
}

// PreviewKey identifies one cached pricing preview.
type PreviewKey struct {
	GameID     string
	BundleSize int
	MarginPct  float64
}

// PoolService pre-generates ready-to-sell pools and answers read-side pool
// queries. Generation never mutates inventory: pools are speculative offers,
// not reservations, so an unclaimed pool needs no release step.
type PoolService struct {
	repo     PoolRepository
	selector *WeightedSelector
	pricing  *PricingCalculator
	clock    clock.Clock
	logger   *slog.Logger

	curveExponent float64
	defaultMargin float64
	previews      *cache.TTL[PreviewKey, decimal.Decimal]
}

const (
	defaultCurveExponent = 2.5
	defaultMarginPct     = 0.30
)

func NewPoolService(repo PoolRepository, selector *WeightedSelector, pricing *PricingCalculator, clk clock.Clock, logger *slog.Logger, opts ...PoolServiceOption) *PoolService {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &PoolService{
		repo:          repo,
		selector:      selector,
		pricing:       pricing,
		clock:         clk,
		logger:        logger,
		curveExponent: defaultCurveExponent,
		defaultMargin: defaultMarginPct,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PoolServiceOption func(*PoolService)

// WithCurveExponent overrides the selection curve steepness.
func WithCurveExponent(exp float64) PoolServiceOption {
	return func(s *PoolService) {
		if exp > 0 {
			s.curveExponent = exp
		}
	}
}

// WithDefaultMargin overrides the margin used when a game carries none.
func WithDefaultMargin(margin float64) PoolServiceOption {
	return func(s *PoolService) {
		if margin >= 0 {
			s.defaultMargin = margin
		}
	}
}

// WithPreviewCache caches PreviewPrice results until inventory changes or the
// TTL lapses.
func WithPreviewCache(c *cache.TTL[PreviewKey, decimal.Decimal]) PoolServiceOption {
	return func(s *PoolService) {
		s.previews = c
	}
}

// Generate builds count pools of bundleSize for the game. Each pool draws its
// ticket and memorabilia units through the weighted selector from the eligible
// snapshot. Consumption is tracked across the batch so two pools never promise
// more of a unit than its quantity covers; a draw that runs out of candidates
// skips that pool without failing the batch.
func (s *PoolService) Generate(ctx context.Context, gameID string, bundleSize, count int) ([]domain.Pool, error) {
	if !domain.ValidBundleSize(bundleSize) {
		return nil, domain.ErrInvalidBundleSize
	}
	if count <= 0 {
		return nil, domain.ErrInvalidCount
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	units, err := s.repo.ListEligibleUnits(ctx, gameID)
	if err != nil {
		return nil, err
	}
	tickets, memorabilia := splitByKind(units)
	if len(tickets) < bundleSize || len(memorabilia) < bundleSize {
		return nil, domain.ErrInsufficientInventory
	}
	margin := s.marginFor(game)

	consumed := make(map[string]int)
	pools := make([]domain.Pool, 0, count)
	for i := 0; i < count; i++ {
		pool, used, err := s.buildPool(game, tickets, memorabilia, bundleSize, margin, consumed)
		if errors.Is(err, domain.ErrEmptySelectionPool) {
			s.logger.Warn("pool generation draw exhausted, skipping pool",
				"game_id", gameID, "bundle_size", bundleSize, "generated", len(pools))
			continue
		}
		if err != nil {
			return pools, err
		}

		if err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			return s.repo.CreatePool(txCtx, pool)
		}); err != nil {
			return pools, err
		}

		for id, n := range used {
			consumed[id] += n
		}
		pools = append(pools, pool)
	}

	s.logger.Info("pools generated",
		"game_id", gameID, "bundle_size", bundleSize, "requested", count, "generated", len(pools))
	return pools, nil
}

// buildPool draws one pool's units against the batch's remaining quantities.
// It mutates nothing; the returned used map is merged only after the pool
// persists.
func (s *PoolService) buildPool(game domain.Game, tickets, memorabilia []domain.InventoryUnit, bundleSize int, margin float64, consumed map[string]int) (domain.Pool, map[string]int, error) {
	used := make(map[string]int)

	remaining := func(units []domain.InventoryUnit) []domain.InventoryUnit {
		view := make([]domain.InventoryUnit, 0, len(units))
		for _, u := range units {
			left := u.Quantity - consumed[u.ID] - used[u.ID]
			if left <= 0 {
				continue
			}
			v := u
			v.Quantity = left
			view = append(view, v)
		}
		return view
	}

	draw := func(units []domain.InventoryUnit) ([]domain.InventoryUnit, error) {
		drawn := make([]domain.InventoryUnit, 0, bundleSize)
		for i := 0; i < bundleSize; i++ {
			u, err := s.selector.Select(remaining(units), s.curveExponent)
			if err != nil {
				return nil, err
			}
			used[u.ID]++
			drawn = append(drawn, u)
		}
		return drawn, nil
	}

	drawnTickets, err := draw(tickets)
	if err != nil {
		return domain.Pool{}, nil, err
	}
	drawnMemorabilia, err := draw(memorabilia)
	if err != nil {
		return domain.Pool{}, nil, err
	}

	bundles := make([]domain.Bundle, bundleSize)
	total := decimal.Zero
	for i := range bundles {
		bundles[i] = domain.Bundle{
			TicketUnitID:      drawnTickets[i].ID,
			MemorabiliaUnitID: drawnMemorabilia[i].ID,
			TicketValue:       drawnTickets[i].UnitValue,
			MemorabiliaValue:  drawnMemorabilia[i].UnitValue,
		}
		total = total.Add(bundles[i].Value())
	}

	// Priced off the full snapshot, not the drawn units, so every pool of the
	// same (game, size) sells for the same price.
	price, err := s.pricing.Price(tickets, memorabilia, bundleSize, margin)
	if err != nil {
		return domain.Pool{}, nil, err
	}

	return domain.Pool{
		ID:         uuid.NewString(),
		GameID:     game.ID,
		BundleSize: bundleSize,
		Bundles:    bundles,
		TotalValue: total,
		Price:      price,
		Status:     domain.PoolStatusAvailable,
		CreatedAt:  s.clock.Now(),
	}, used, nil
}

// GetAvailablePool returns one AVAILABLE pool for the key without mutating
// anything, or nil when supply is exhausted.
func (s *PoolService) GetAvailablePool(ctx context.Context, gameID string, bundleSize int) (*domain.Pool, error) {
	if !domain.ValidBundleSize(bundleSize) {
		return nil, domain.ErrInvalidBundleSize
	}
	return s.repo.GetAvailablePool(ctx, gameID, bundleSize)
}

func (s *PoolService) CountAvailable(ctx context.Context, gameID string, bundleSize int) (int, error) {
	if !domain.ValidBundleSize(bundleSize) {
		return 0, domain.ErrInvalidBundleSize
	}
	return s.repo.CountAvailablePools(ctx, gameID, bundleSize)
}

// MarkStale invalidates every AVAILABLE pool for the game. Admin inventory
// edits call this so no pool built on stale assumptions can be claimed.
func (s *PoolService) MarkStale(ctx context.Context, gameID string) (int64, error) {
	stale, err := s.repo.MarkStaleByGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if s.previews != nil {
		s.previews.Purge()
	}
	s.logger.Info("pools marked stale", "game_id", gameID, "count", stale)
	return stale, nil
}

// PreviewPrice prices a hypothetical bundle for display without generating a
// pool. marginPct <= 0 falls back to the game's configured margin.
func (s *PoolService) PreviewPrice(ctx context.Context, gameID string, bundleSize int, marginPct float64) (decimal.Decimal, error) {
	if !domain.ValidBundleSize(bundleSize) {
		return decimal.Zero, domain.ErrInvalidBundleSize
	}

	key := PreviewKey{GameID: gameID, BundleSize: bundleSize, MarginPct: marginPct}
	if s.previews != nil {
		if price, ok := s.previews.Get(key); ok {
			return price, nil
		}
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return decimal.Zero, err
	}
	units, err := s.repo.ListEligibleUnits(ctx, gameID)
	if err != nil {
		return decimal.Zero, err
	}
	tickets, memorabilia := splitByKind(units)

	margin := marginPct
	if margin <= 0 {
		margin = s.marginFor(game)
	}

	price, err := s.pricing.Price(tickets, memorabilia, bundleSize, margin)
	if err != nil {
		return decimal.Zero, err
	}
	if s.previews != nil {
		s.previews.Set(key, price)
	}
	return price, nil
}

// VIPSlots groups the game's sellable VIP units into their promotion chains:
// one slot per tier, the priority-1 unit live and the rest queued as backups.
// A tier whose units are all exhausted does not appear.
func (s *PoolService) VIPSlots(ctx context.Context, gameID string) ([]domain.VIPSlot, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	units, err := s.repo.ListVIPUnits(ctx, gameID)
	if err != nil {
		return nil, err
	}

	var slots []domain.VIPSlot
	index := make(map[string]int)
	for _, u := range units {
		if !u.Sellable() || u.TierPriority < 1 {
			continue
		}
		i, ok := index[u.VIPTier]
		if !ok {
			i = len(slots)
			index[u.VIPTier] = i
			slots = append(slots, domain.VIPSlot{GameID: gameID, Tier: u.VIPTier})
		}
		if u.TierPriority == 1 {
			live := u
			slots[i].Live = &live
		} else {
			slots[i].Backups = append(slots[i].Backups, u)
		}
	}
	return slots, nil
}

func (s *PoolService) marginFor(game domain.Game) float64 {
	if game.MarginPct > 0 {
		return game.MarginPct
	}
	return s.defaultMargin
}

func splitByKind(units []domain.InventoryUnit) (tickets, memorabilia []domain.InventoryUnit) {
	for _, u := range units {
		if u.Kind.IsTicket() {
			tickets = append(tickets, u)
		} else {
			memorabilia = append(memorabilia, u)
		}
	}
	return tickets, memorabilia
}
