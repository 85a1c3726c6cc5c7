package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PoolStatus string

const (
	PoolStatusAvailable PoolStatus = "available"
	PoolStatusClaimed   PoolStatus = "claimed"
	PoolStatusStale     PoolStatus = "stale"
)

// Bundle pairs one ticket unit with one memorabilia unit inside a pool. The
// values are denormalized at generation time and immutable thereafter.
type Bundle struct {
	TicketUnitID      string
	MemorabiliaUnitID string
	TicketValue       decimal.Decimal
	MemorabiliaValue  decimal.Decimal
}

func (b Bundle) Value() decimal.Decimal {
	return b.TicketValue.Add(b.MemorabiliaValue)
}

// Pool is a pre-generated, prospectively-sellable set of bundles with a fixed
// buyer-facing price. Pools are speculative offers: generation reserves no
// inventory, only a claim mutates it. A claimed pool is immutable; a stale
// pool is never served or claimed again.
type Pool struct {
	ID         string
	GameID     string
	BundleSize int
	Bundles    []Bundle
	TotalValue decimal.Decimal
	Price      decimal.Decimal
	Status     PoolStatus
	ClaimedBy  string
	ClaimedAt  *time.Time
	CreatedAt  time.Time
}

const (
	MinBundleSize = 1
	MaxBundleSize = 4
)

// ValidBundleSize reports whether n is an allowed bundle size.
func ValidBundleSize(n int) bool {
	return n >= MinBundleSize && n <= MaxBundleSize
}
