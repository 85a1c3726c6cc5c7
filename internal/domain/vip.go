package domain

// VIPSlot is a read view of one (game, tier) promotion chain: the live unit at
// tier-priority 1 plus its ordered backups. At most one unit per slot holds
// priority 1 at any time; the storage layer enforces this with a partial
// unique index inside the same transaction that promotes a backup.
type VIPSlot struct {
	GameID  string
	Tier    string
	Live    *InventoryUnit
	Backups []InventoryUnit
}

// Empty reports whether the slot has no live unit left to draw or win.
func (s VIPSlot) Empty() bool {
	return s.Live == nil
}
