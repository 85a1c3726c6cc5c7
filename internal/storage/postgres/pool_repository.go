package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// PoolRepository backs pool generation, supply checks, and pricing previews.
type PoolRepository struct {
	pool *pgxpool.Pool
}

func NewPoolRepository(pool *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{pool: pool}
}

func (r *PoolRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *PoolRepository) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
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

// ListEligibleUnits returns every unit a draw may include: available, in
// stock, and either non-VIP or the live head of its VIP slot. Backups never
// appear here, which is what keeps a slot's chain intact until promotion.
func (r *PoolRepository) ListEligibleUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error) {
	const query = `
SELECT ` + unitColumns + `
FROM inventory_units
WHERE game_id = $1
  AND status = 'available'
  AND quantity > 0
  AND (vip_tier IS NULL OR tier_priority = 1)
ORDER BY unit_value ASC, id ASC`

	rows, err := r.query(ctx, query, gameID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list eligible units: %w", err)
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
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list eligible units: %w", err)
	}
	return units, nil
}

// ListVIPUnits returns every VIP unit of the game, live heads and detached
// backups alike, ordered so callers can regroup them into slots.
func (r *PoolRepository) ListVIPUnits(ctx context.Context, gameID string) ([]domain.InventoryUnit, error) {
	const query = `
SELECT ` + unitColumns + `
FROM inventory_units
WHERE game_id = $1 AND vip_tier IS NOT NULL
ORDER BY vip_tier ASC, tier_priority ASC NULLS LAST, id ASC`

	rows, err := r.query(ctx, query, gameID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list vip units: %w", err)
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
		return nil, fmt.Errorf("list vip units: %w", err)
	}
	return units, nil
}

// CreatePool inserts the pool row and its bundles. Callers wrap this in WithTx
// so a partial insert cannot survive.
func (r *PoolRepository) CreatePool(ctx context.Context, pool domain.Pool) error {
	const poolStmt = `
INSERT INTO pools (id, game_id, bundle_size, total_value, price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.exec(ctx, poolStmt,
		pool.ID,
		pool.GameID,
		pool.BundleSize,
		pool.TotalValue,
		pool.Price,
		pool.Status,
		pool.CreatedAt,
	); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create pool: %w", err)
	}

	const bundleStmt = `
INSERT INTO pool_bundles (pool_id, position, ticket_unit_id, memorabilia_unit_id, ticket_value, memorabilia_value)
VALUES ($1, $2, $3, $4, $5, $6)`

	for i, b := range pool.Bundles {
		if _, err := r.exec(ctx, bundleStmt,
			pool.ID,
			i,
			b.TicketUnitID,
			b.MemorabiliaUnitID,
			b.TicketValue,
			b.MemorabiliaValue,
		); err != nil {
			return fmt.Errorf("create pool bundle %d: %w", i, err)
		}
	}
	return nil
}

// GetAvailablePool returns the oldest AVAILABLE pool for the key, or nil when
// none exists. Non-mutating; claiming is a separate step.
func (r *PoolRepository) GetAvailablePool(ctx context.Context, gameID string, bundleSize int) (*domain.Pool, error) {
	const query = `
SELECT ` + poolColumns + `
FROM pools
WHERE game_id = $1 AND bundle_size = $2 AND status = 'available'
ORDER BY created_at ASC
LIMIT 1`

	p, err := scanPool(r.queryRow(ctx, query, gameID, bundleSize))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get available pool: %w", err)
	}

	bundles, err := r.loadBundles(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Bundles = bundles
	return &p, nil
}

func (r *PoolRepository) CountAvailablePools(ctx context.Context, gameID string, bundleSize int) (int, error) {
	const query = `
SELECT COUNT(*)
FROM pools
WHERE game_id = $1 AND bundle_size = $2 AND status = 'available'`

	var count int
	if err := r.queryRow(ctx, query, gameID, bundleSize).Scan(&count); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count available pools: %w", err)
	}
	return count, nil
}

// MarkStaleByGame invalidates every AVAILABLE pool for the game. Claimed pools
// are untouched: they represent completed sales.
func (r *PoolRepository) MarkStaleByGame(ctx context.Context, gameID string) (int64, error) {
	const stmt = `UPDATE pools SET status = 'stale' WHERE game_id = $1 AND status = 'available'`

	tag, err := r.exec(ctx, stmt, gameID)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("mark stale by game: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PoolRepository) loadBundles(ctx context.Context, poolID string) ([]domain.Bundle, error) {
	const query = `
SELECT ticket_unit_id, memorabilia_unit_id, ticket_value, memorabilia_value
FROM pool_bundles
WHERE pool_id = $1
ORDER BY position ASC`

	rows, err := r.query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	defer rows.Close()

	var bundles []domain.Bundle
	for rows.Next() {
		var b domain.Bundle
		if err := rows.Scan(&b.TicketUnitID, &b.MemorabiliaUnitID, &b.TicketValue, &b.MemorabiliaValue); err != nil {
			return nil, fmt.Errorf("scan bundle: %w", err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	return bundles, nil
}

func (r *PoolRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PoolRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PoolRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
