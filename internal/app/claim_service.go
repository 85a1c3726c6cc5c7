package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/julianparmann/seatjumper-sub002/internal/clock"
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
	"github.com/julianparmann/seatjumper-sub002/internal/events"
	"github.com/julianparmann/seatjumper-sub002/internal/rng"
)

type ClaimRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetGame(ctx context.Context, gameID string) (domain.Game, error)
	GetPoolForUpdate(ctx context.Context, poolID string) (domain.Pool, error)
	ClaimPool(ctx context.Context, poolID, userID string, at time.Time) error
	DecrementUnit(ctx context.Context, unitID string) (domain.InventoryUnit, error)
	ClearTierPriority(ctx context.Context, unitID string) error
	PromoteNextBackup(ctx context.Context, gameID, tier string) (*domain.InventoryUnit, error)
	ListLiveVIPUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error)
	MarkPoolStale(ctx context.Context, poolID string) error
}

// Replenisher accepts non-blocking backfill requests. The claim path must
// never wait on it.
type Replenisher interface {
	Request(gameID string, bundleSize int)
}

// ClaimPublisher emits the post-commit claim event. Failures are logged, not
// propagated: a committed claim cannot be failed by messaging.
type ClaimPublisher interface {
	PublishPoolClaimed(ctx context.Context, ev events.PoolClaimed) error
}

// ClaimResult reports a committed claim: the pool now held by the user and
// any VIP units won by the bonus rolls.
type ClaimResult struct {
	Pool    domain.Pool
	VIPWins []domain.InventoryUnit
}

// ClaimService is the purchase-time orchestrator. One transaction flips the
// pool to CLAIMED, decrements every underlying unit, and keeps each VIP slot's
// promotion chain intact; replenishment and event publishing happen after
// commit, off the purchase path.
type ClaimService struct {
	repo   ClaimRepository
	clock  clock.Clock
	rng    rng.Source
	logger *slog.Logger

	replenisher Replenisher
	publisher   ClaimPublisher
	vipOdds     float64
}

const defaultVIPWinProbability = 0.0002 // 1 in 5000

func NewClaimService(repo ClaimRepository, clk clock.Clock, src rng.Source, logger *slog.Logger, opts ...ClaimServiceOption) *ClaimService {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &ClaimService{
		repo:    repo,
		clock:   clk,
		rng:     src,
		logger:  logger,
		vipOdds: defaultVIPWinProbability,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ClaimServiceOption func(*ClaimService)

// WithReplenisher wires the post-claim backfill queue.
func WithReplenisher(r Replenisher) ClaimServiceOption {
	return func(s *ClaimService) {
		s.replenisher = r
	}
}

// WithClaimPublisher wires the post-commit event publisher.
func WithClaimPublisher(p ClaimPublisher) ClaimServiceOption {
	return func(s *ClaimService) {
		s.publisher = p
	}
}

// WithVIPWinProbability overrides the default bonus-roll probability used
// when a game carries none.
func WithVIPWinProbability(p float64) ClaimServiceOption {
	return func(s *ClaimService) {
		if p >= 0 && p <= 1 {
			s.vipOdds = p
		}
	}
}

// Claim converts an AVAILABLE pool into a committed sale for userID. The pool
// status flip runs first and is the mutual-exclusion guarantee: losing that
// compare-and-swap aborts before any inventory is touched, so a lost race
// never partially decrements. Callers that receive ErrPoolAlreadyClaimed
// should request a different pool, not retry this one.
func (s *ClaimService) Claim(ctx context.Context, poolID, userID string) (ClaimResult, error) {
	if userID == "" {
		return ClaimResult{}, domain.ErrUserIDRequired
	}

	now := s.clock.Now()
	var result ClaimResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		pool, err := s.repo.GetPoolForUpdate(txCtx, poolID)
		if err != nil {
			return err
		}
		switch pool.Status {
		case domain.PoolStatusClaimed:
			return domain.ErrPoolAlreadyClaimed
		case domain.PoolStatusStale:
			return domain.ErrPoolStale
		}

		if err := s.repo.ClaimPool(txCtx, poolID, userID, now); err != nil {
			return err
		}

		for _, b := range pool.Bundles {
			for _, unitID := range []string{b.TicketUnitID, b.MemorabiliaUnitID} {
				if _, err := s.winUnit(txCtx, pool.GameID, unitID); err != nil {
					return err
				}
			}
		}

		wins, err := s.rollVIP(txCtx, pool.GameID)
		if err != nil {
			return err
		}

		pool.Status = domain.PoolStatusClaimed
		pool.ClaimedBy = userID
		pool.ClaimedAt = &now
		result = ClaimResult{Pool: pool, VIPWins: wins}
		return nil
	})
	if err != nil {
		if err == domain.ErrInventoryMismatch {
			// Integrity failure: a referenced unit vanished or ran dry under an
			// offer. The claim rolled back; retire the pool so the broken offer
			// is never served again.
			s.logger.Error("inventory mismatch on claim, marking pool stale",
				"pool_id", poolID, "user_id", userID)
			if staleErr := s.repo.MarkPoolStale(ctx, poolID); staleErr != nil {
				s.logger.Error("failed to mark mismatched pool stale",
					"pool_id", poolID, "error", staleErr)
			}
		}
		return ClaimResult{}, err
	}

	s.logger.Info("pool claimed",
		"pool_id", poolID, "user_id", userID,
		"game_id", result.Pool.GameID, "bundle_size", result.Pool.BundleSize,
		"vip_wins", len(result.VIPWins))

	if s.replenisher != nil {
		s.replenisher.Request(result.Pool.GameID, result.Pool.BundleSize)
	}
	s.publishClaim(ctx, result)

	return result, nil
}

// winUnit commits the sale of one unit and, when it exhausts a live VIP unit,
// promotes the slot's next backup inside the same transaction.
func (s *ClaimService) winUnit(ctx context.Context, gameID, unitID string) (domain.InventoryUnit, error) {
	unit, err := s.repo.DecrementUnit(ctx, unitID)
	if err != nil {
		return domain.InventoryUnit{}, err
	}
	if unit.IsLiveVIP() && unit.Quantity == 0 {
		if err := s.repo.ClearTierPriority(ctx, unit.ID); err != nil {
			return domain.InventoryUnit{}, err
		}
		promoted, err := s.repo.PromoteNextBackup(ctx, gameID, unit.VIPTier)
		if err != nil {
			return domain.InventoryUnit{}, err
		}
		if promoted == nil {
			s.logger.Info("vip slot exhausted with no backup",
				"game_id", gameID, "tier", unit.VIPTier)
		} else {
			s.logger.Info("vip backup promoted",
				"game_id", gameID, "tier", unit.VIPTier, "unit_id", promoted.ID)
		}
	}
	return unit, nil
}

// rollVIP runs the two bonus trials for a claim: one for the ticket side, one
// for the memorabilia side. They are independent Bernoulli trials, so the
// effective per-claim win rate is higher than a single roll would give.
func (s *ClaimService) rollVIP(ctx context.Context, gameID string) ([]domain.InventoryUnit, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	odds := s.vipOdds
	if game.VIPWinProbability > 0 {
		odds = game.VIPWinProbability
	}
	if odds <= 0 {
		return nil, nil
	}

	live, err := s.repo.ListLiveVIPUnits(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var ticketVIP, memorabiliaVIP *domain.InventoryUnit
	for i := range live {
		u := live[i]
		if u.Kind.IsTicket() && ticketVIP == nil {
			ticketVIP = &u
		}
		if !u.Kind.IsTicket() && memorabiliaVIP == nil {
			memorabiliaVIP = &u
		}
	}

	var wins []domain.InventoryUnit
	for _, candidate := range []*domain.InventoryUnit{ticketVIP, memorabiliaVIP} {
		if candidate == nil {
			continue
		}
		if s.rng.Float64() >= odds {
			continue
		}
		won, err := s.winUnit(ctx, gameID, candidate.ID)
		if err != nil {
			return nil, err
		}
		wins = append(wins, won)
	}
	return wins, nil
}

func (s *ClaimService) publishClaim(ctx context.Context, result ClaimResult) {
	if s.publisher == nil {
		return
	}

	vipIDs := make([]string, 0, len(result.VIPWins))
	for _, u := range result.VIPWins {
		vipIDs = append(vipIDs, u.ID)
	}
	ev := events.PoolClaimed{
		PoolID:     result.Pool.ID,
		GameID:     result.Pool.GameID,
		UserID:     result.Pool.ClaimedBy,
		BundleSize: result.Pool.BundleSize,
		Price:      result.Pool.Price.StringFixed(2),
		VIPUnitIDs: vipIDs,
		ClaimedAt:  *result.Pool.ClaimedAt,
	}
	if err := s.publisher.PublishPoolClaimed(ctx, ev); err != nil {
		s.logger.Error("failed to publish claim event",
			"pool_id", result.Pool.ID, "error", err)
	}
}
