package postgres

import (
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const unitColumns = `id, game_id, kind, unit_value, quantity, status, vip_tier, tier_priority`

func scanUnit(row rowScanner) (domain.InventoryUnit, error) {
	var (
		u        domain.InventoryUnit
		kind     string
		status   string
		tier     *string
		priority *int
	)
	if err := row.Scan(&u.ID, &u.GameID, &kind, &u.UnitValue, &u.Quantity, &status, &tier, &priority); err != nil {
		return domain.InventoryUnit{}, err
	}
	u.Kind = domain.UnitKind(kind)
	u.Status = domain.UnitStatus(status)
	if tier != nil {
		u.VIPTier = *tier
	}
	if priority != nil {
		u.TierPriority = *priority
	}
	return u, nil
}

const poolColumns = `id, game_id, bundle_size, total_value, price, status, claimed_by, claimed_at, created_at`

func scanPool(row rowScanner) (domain.Pool, error) {
	var (
		p         domain.Pool
		status    string
		claimedBy *string
	)
	if err := row.Scan(&p.ID, &p.GameID, &p.BundleSize, &p.TotalValue, &p.Price, &status, &claimedBy, &p.ClaimedAt, &p.CreatedAt); err != nil {
		return domain.Pool{}, err
	}
	p.Status = domain.PoolStatus(status)
	if claimedBy != nil {
		p.ClaimedBy = *claimedBy
	}
	return p, nil
}

func scanGame(row rowScanner) (domain.Game, error) {
	var g domain.Game
	if err := row.Scan(&g.ID, &g.Name, &g.MarginPct, &g.VIPWinProbability, &g.CreatedAt); err != nil {
		return domain.Game{}, err
	}
	return g, nil
}
