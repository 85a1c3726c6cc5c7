package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// ClaimRepository backs the purchase-time claim transaction: the pool status
// flip, inventory decrements, and VIP backup promotion.
type ClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func (r *ClaimRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ClaimRepository) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	const query = `SELECT id, name, margin_pct, vip_win_probability, created_at FROM games WHERE id = $1`

	g, err := scanGame(r.queryRow(ctx, query, gameID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Game{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Game{}, domain.ErrGameNotFound
		}
		return domain.Game{}, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

func (r *ClaimRepository) GetPoolForUpdate(ctx context.Context, poolID string) (domain.Pool, error) {
	const query = `
SELECT ` + poolColumns + `
FROM pools
WHERE id = $1
FOR UPDATE`

	p, err := scanPool(r.queryRow(ctx, query, poolID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Pool{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Pool{}, domain.ErrPoolNotFound
		}
		return domain.Pool{}, fmt.Errorf("get pool: %w", err)
	}

	const bundleQuery = `
SELECT ticket_unit_id, memorabilia_unit_id, ticket_value, memorabilia_value
FROM pool_bundles
WHERE pool_id = $1
ORDER BY position ASC`

	rows, err := r.query(ctx, bundleQuery, poolID)
	if err != nil {
		return domain.Pool{}, fmt.Errorf("load bundles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.Bundle
		if err := rows.Scan(&b.TicketUnitID, &b.MemorabiliaUnitID, &b.TicketValue, &b.MemorabiliaValue); err != nil {
			return domain.Pool{}, fmt.Errorf("scan bundle: %w", err)
		}
		p.Bundles = append(p.Bundles, b)
	}
	if err := rows.Err(); err != nil {
		return domain.Pool{}, fmt.Errorf("load bundles: %w", err)
	}
	return p, nil
}

// ClaimPool flips AVAILABLE to CLAIMED. The status predicate is the
// compare-and-swap: zero rows affected means another transaction won the pool.
func (r *ClaimRepository) ClaimPool(ctx context.Context, poolID, userID string, at time.Time) error {
	const stmt = `
UPDATE pools
SET status = 'claimed', claimed_by = $2, claimed_at = $3
WHERE id = $1 AND status = 'available'`

	tag, err := r.exec(ctx, stmt, poolID, userID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("claim pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPoolAlreadyClaimed
	}
	return nil
}

// DecrementUnit takes one from the unit's quantity, marking it SOLD on hitting
// zero. The quantity/status predicate makes oversell impossible: a vanished or
// exhausted unit yields ErrInventoryMismatch and the caller aborts.
func (r *ClaimRepository) DecrementUnit(ctx context.Context, unitID string) (domain.InventoryUnit, error) {
	const stmt = `
UPDATE inventory_units
SET quantity = quantity - 1,
    status = CASE WHEN quantity - 1 = 0 THEN 'sold' ELSE status END
WHERE id = $1 AND status = 'available' AND quantity > 0
RETURNING ` + unitColumns

	u, err := scanUnit(r.queryRow(ctx, stmt, unitID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.InventoryUnit{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.InventoryUnit{}, domain.ErrInventoryMismatch
		}
		return domain.InventoryUnit{}, fmt.Errorf("decrement unit: %w", err)
	}
	return u, nil
}

// ClearTierPriority detaches an exhausted unit from its VIP slot so the
// partial unique index admits the promoted backup.
func (r *ClaimRepository) ClearTierPriority(ctx context.Context, unitID string) error {
	const stmt = `UPDATE inventory_units SET tier_priority = NULL WHERE id = $1`

	if _, err := r.exec(ctx, stmt, unitID); err != nil {
		return fmt.Errorf("clear tier priority: %w", err)
	}
	return nil
}

// PromoteNextBackup makes the lowest-priority sellable backup the live unit of
// the slot. Returns nil when the slot has no backup left (the slot goes
// EMPTY and generation simply stops offering the tier).
func (r *ClaimRepository) PromoteNextBackup(ctx context.Context, gameID, tier string) (*domain.InventoryUnit, error) {
	const stmt = `
UPDATE inventory_units
SET tier_priority = 1
WHERE id = (
	SELECT id
	FROM inventory_units
	WHERE game_id = $1
	  AND vip_tier = $2
	  AND tier_priority > 1
	  AND status = 'available'
	  AND quantity > 0
	ORDER BY tier_priority ASC
	LIMIT 1
	FOR UPDATE
)
RETURNING ` + unitColumns

	u, err := scanUnit(r.queryRow(ctx, stmt, gameID, tier))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("promote backup: live unit still present for %s/%s: %w", gameID, tier, err)
		}
		return nil, fmt.Errorf("promote backup: %w", err)
	}
	return &u, nil
}

// ListLiveVIPUnits returns the live unit of every non-empty VIP slot for the
// game, row-locked so concurrent claims serialize their bonus rolls.
func (r *ClaimRepository) ListLiveVIPUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error) {
	const query = `
SELECT ` + unitColumns + `
FROM inventory_units
WHERE game_id = $1
  AND tier_priority = 1
  AND status = 'available'
  AND quantity > 0
ORDER BY vip_tier ASC
FOR UPDATE`

	rows, err := r.query(ctx, query, gameID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list live vip units: %w", err)
	}
	defer rows.Close()

	var units []domain.InventoryUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list live vip units: %w", err)
	}
	return units, nil
}

// MarkPoolStale invalidates a single pool after an integrity failure so the
// broken offer is never served again. Claimed pools stay claimed.
func (r *ClaimRepository) MarkPoolStale(ctx context.Context, poolID string) error {
	const stmt = `UPDATE pools SET status = 'stale' WHERE id = $1 AND status <> 'claimed'`

	if _, err := r.exec(ctx, stmt, poolID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark pool stale: %w", err)
	}
	return nil
}

func (r *ClaimRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ClaimRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ClaimRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
