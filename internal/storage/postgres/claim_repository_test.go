package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
	"github.com/julianparmann/seatjumper-sub002/internal/testutil"
)

func TestClaimRepository_ClaimPool(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimRepository(pool)
	gameID := testutil.InsertGame(t, ctx, pool, "Sharks vs Jets", 0.30, 0)
	ticketID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindTicketGroup, decimal.NewFromInt(100), 5, "", 0)
	memoID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindMemorabilia, decimal.NewFromInt(50), 5, "", 0)
	poolID := testutil.InsertPool(t, ctx, pool, gameID, []domain.Bundle{{
		TicketUnitID:      ticketID,
		MemorabiliaUnitID: memoID,
		TicketValue:       decimal.NewFromInt(100),
		MemorabiliaValue:  decimal.NewFromInt(50),
	}}, decimal.NewFromInt(100))

	at := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	t.Run("first claim wins", func(t *testing.T) {
		if err := repo.ClaimPool(ctx, poolID, "user-7", at); err != nil {
			t.Fatalf("ClaimPool: %v", err)
		}

		got, err := repo.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			t.Fatalf("GetPoolForUpdate: %v", err)
		}
		if got.Status != domain.PoolStatusClaimed || got.ClaimedBy != "user-7" {
			t.Fatalf("unexpected pool: %+v", got)
		}
		if got.ClaimedAt == nil || !got.ClaimedAt.Equal(at) {
			t.Fatalf("claimed_at = %v, want %v", got.ClaimedAt, at)
		}
		if len(got.Bundles) != 1 {
			t.Fatalf("bundles not loaded: %+v", got.Bundles)
		}
	})

	t.Run("second claim loses the compare-and-swap", func(t *testing.T) {
		err := repo.ClaimPool(ctx, poolID, "user-8", at.Add(time.Second))
		if !errors.Is(err, domain.ErrPoolAlreadyClaimed) {
			t.Fatalf("err = %v, want ErrPoolAlreadyClaimed", err)
		}

		got, err := repo.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			t.Fatalf("GetPoolForUpdate: %v", err)
		}
		if got.ClaimedBy != "user-7" {
			t.Fatalf("winner overwritten: %+v", got)
		}
	})

	t.Run("unknown pool", func(t *testing.T) {
		_, err := repo.GetPoolForUpdate(ctx, uuid.NewString())
		if !errors.Is(err, domain.ErrPoolNotFound) {
			t.Fatalf("err = %v, want ErrPoolNotFound", err)
		}
	})
}

func TestClaimRepository_DecrementUnit(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimRepository(pool)
	gameID := testutil.InsertGame(t, ctx, pool, "Sharks vs Jets", 0.30, 0)
	unitID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindTicketGroup, decimal.NewFromInt(100), 2, "", 0)

	u, err := repo.DecrementUnit(ctx, unitID)
	if err != nil {
		t.Fatalf("DecrementUnit: %v", err)
	}
	if u.Quantity != 1 || u.Status != domain.UnitStatusAvailable {
		t.Fatalf("after first decrement: %+v", u)
	}

	u, err = repo.DecrementUnit(ctx, unitID)
	if err != nil {
		t.Fatalf("DecrementUnit: %v", err)
	}
	if u.Quantity != 0 || u.Status != domain.UnitStatusSold {
		t.Fatalf("exhaustion must flip status to sold: %+v", u)
	}

	if _, err := repo.DecrementUnit(ctx, unitID); !errors.Is(err, domain.ErrInventoryMismatch) {
		t.Fatalf("err = %v, want ErrInventoryMismatch on an exhausted unit", err)
	}
}

func TestClaimRepository_VIPChain(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimRepository(pool)
	gameID := testutil.InsertGame(t, ctx, pool, "Sharks vs Jets", 0.30, 0.0002)

	liveID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindMemorabilia, decimal.NewFromInt(2500), 1, "jersey", 1)
	backupID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindMemorabilia, decimal.NewFromInt(2400), 1, "jersey", 2)
	deepID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindMemorabilia, decimal.NewFromInt(2300), 1, "jersey", 3)
	courtsideID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindTicketGroup, decimal.NewFromInt(3000), 1, "courtside", 1)

	t.Run("live units per slot", func(t *testing.T) {
		live, err := repo.ListLiveVIPUnits(ctx, gameID)
		if err != nil {
			t.Fatalf("ListLiveVIPUnits: %v", err)
		}
		if len(live) != 2 {
			t.Fatalf("got %d live units, want 2: %+v", len(live), live)
		}
		// Ordered by tier name.
		if live[0].ID != courtsideID || live[1].ID != liveID {
			t.Fatalf("unexpected live units: %+v", live)
		}
	})

	t.Run("promotion picks the lowest backup priority", func(t *testing.T) {
		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := repo.DecrementUnit(txCtx, liveID); err != nil {
				return err
			}
			if err := repo.ClearTierPriority(txCtx, liveID); err != nil {
				return err
			}
			promoted, err := repo.PromoteNextBackup(txCtx, gameID, "jersey")
			if err != nil {
				return err
			}
			if promoted == nil || promoted.ID != backupID {
				t.Fatalf("promoted %+v, want %s", promoted, backupID)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}

		live, err := repo.ListLiveVIPUnits(ctx, gameID)
		if err != nil {
			t.Fatalf("ListLiveVIPUnits: %v", err)
		}
		if len(live) != 2 || live[1].ID != backupID {
			t.Fatalf("backup did not take the slot: %+v", live)
		}
	})

	t.Run("chain drains to empty", func(t *testing.T) {
		for _, id := range []string{backupID, deepID} {
			err := repo.WithTx(ctx, func(txCtx context.Context) error {
				if _, err := repo.DecrementUnit(txCtx, id); err != nil {
					return err
				}
				if err := repo.ClearTierPriority(txCtx, id); err != nil {
					return err
				}
				_, err := repo.PromoteNextBackup(txCtx, gameID, "jersey")
				return err
			})
			if err != nil {
				t.Fatalf("drain %s: %v", id, err)
			}
		}

		promoted, err := repo.PromoteNextBackup(ctx, gameID, "jersey")
		if err != nil {
			t.Fatalf("PromoteNextBackup: %v", err)
		}
		if promoted != nil {
			t.Fatalf("promoted %+v from an empty chain", promoted)
		}

		live, err := repo.ListLiveVIPUnits(ctx, gameID)
		if err != nil {
			t.Fatalf("ListLiveVIPUnits: %v", err)
		}
		if len(live) != 1 || live[0].ID != courtsideID {
			t.Fatalf("only the untouched slot should remain: %+v", live)
		}
	})
}

func TestClaimRepository_MarkPoolStale(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimRepository(pool)
	gameID := testutil.InsertGame(t, ctx, pool, "Sharks vs Jets", 0.30, 0)
	ticketID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindTicketGroup, decimal.NewFromInt(100), 5, "", 0)
	memoID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindMemorabilia, decimal.NewFromInt(50), 5, "", 0)
	bundle := []domain.Bundle{{
		TicketUnitID:      ticketID,
		MemorabiliaUnitID: memoID,
		TicketValue:       decimal.NewFromInt(100),
		MemorabiliaValue:  decimal.NewFromInt(50),
	}}

	t.Run("available pool is retired", func(t *testing.T) {
		poolID := testutil.InsertPool(t, ctx, pool, gameID, bundle, decimal.NewFromInt(100))

		if err := repo.MarkPoolStale(ctx, poolID); err != nil {
			t.Fatalf("MarkPoolStale: %v", err)
		}
		got, err := repo.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			t.Fatalf("GetPoolForUpdate: %v", err)
		}
		if got.Status != domain.PoolStatusStale {
			t.Fatalf("status = %s, want stale", got.Status)
		}
	})

	t.Run("claimed pool stays claimed", func(t *testing.T) {
		poolID := testutil.InsertPool(t, ctx, pool, gameID, bundle, decimal.NewFromInt(100))
		if err := repo.ClaimPool(ctx, poolID, "user-7", time.Now().UTC()); err != nil {
			t.Fatalf("ClaimPool: %v", err)
		}

		if err := repo.MarkPoolStale(ctx, poolID); err != nil {
			t.Fatalf("MarkPoolStale: %v", err)
		}
		got, err := repo.GetPoolForUpdate(ctx, poolID)
		if err != nil {
			t.Fatalf("GetPoolForUpdate: %v", err)
		}
		if got.Status != domain.PoolStatusClaimed {
			t.Fatalf("status = %s, want claimed", got.Status)
		}
	})
}

func TestClaimRepository_WithTxRollsBack(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimRepository(pool)
	gameID := testutil.InsertGame(t, ctx, pool, "Sharks vs Jets", 0.30, 0)
	unitID := testutil.InsertUnit(t, ctx, pool, gameID, domain.UnitKindTicketGroup, decimal.NewFromInt(100), 3, "", 0)

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.DecrementUnit(txCtx, unitID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var quantity int
	if err := pool.QueryRow(ctx, `SELECT quantity FROM inventory_units WHERE id = $1`, unitID).Scan(&quantity); err != nil {
		t.Fatalf("read quantity: %v", err)
	}
	if quantity != 3 {
		t.Fatalf("quantity = %d, want 3 after rollback", quantity)
	}
}
