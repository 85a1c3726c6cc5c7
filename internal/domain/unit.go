package domain

import "github.com/shopspring/decimal"

type UnitKind string

const (
	UnitKindTicketGroup UnitKind = "ticket_group"
	UnitKindTicketLevel UnitKind = "ticket_level"
	UnitKindMemorabilia UnitKind = "memorabilia"
)

// IsTicket reports whether the kind counts toward the ticket half of a bundle.
func (k UnitKind) IsTicket() bool {
	return k == UnitKindTicketGroup || k == UnitKindTicketLevel
}

type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusSold      UnitStatus = "sold"
)

// InventoryUnit represents one sellable item: a ticket group, a ticket price
// level, or a memorabilia item. VIP units carry a tier name and a priority;
// priority 1 is the live unit of its slot, higher priorities are backups.
type InventoryUnit struct {
	ID           string
	GameID       string
	Kind         UnitKind
	UnitValue    decimal.Decimal
	Quantity     int
	Status       UnitStatus
	VIPTier      string // empty for non-VIP units
	TierPriority int    // 0 for non-VIP units; 1 = live
}

func (u InventoryUnit) IsVIP() bool {
	return u.VIPTier != ""
}

// IsLiveVIP reports whether the unit currently heads its VIP slot.
func (u InventoryUnit) IsLiveVIP() bool {
	return u.VIPTier != "" && u.TierPriority == 1
}

// Sellable reports whether the unit may appear in a draw.
func (u InventoryUnit) Sellable() bool {
	return u.Status == UnitStatusAvailable && u.Quantity > 0
}
