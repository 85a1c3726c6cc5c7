package events

import "time"

// Routing keys on the topic exchange.
const (
	KeyPoolClaimed = "pool.claimed"
)

// PoolClaimed is published after a claim transaction commits. Downstream
// consumers (receipt email, fulfillment) act on it; the engine itself sends
// no notifications.
type PoolClaimed struct {
	PoolID     string    `json:"pool_id"`
	GameID     string    `json:"game_id"`
	UserID     string    `json:"user_id"`
	BundleSize int       `json:"bundle_size"`
	Price      string    `json:"price"`
	VIPUnitIDs []string  `json:"vip_unit_ids,omitempty"`
	ClaimedAt  time.Time `json:"claimed_at"`
}
