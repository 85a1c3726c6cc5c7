package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// VIPSlotLister is the minimal interface needed to serve the VIP chain view.
type VIPSlotLister interface {
	VIPSlots(ctx context.Context, gameID string) ([]domain.VIPSlot, error)
}

// HandleListVIPSlots serves the promotion chains of a game: each tier's live
// unit and its queued backups. Admin tooling uses this to watch slots drain.
func HandleListVIPSlots(svc VIPSlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		slots, err := svc.VIPSlots(r.Context(), gameID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := vipSlotsResponse{Slots: make([]vipSlotResponse, 0, len(slots))}
		for _, s := range slots {
			slot := vipSlotResponse{Tier: s.Tier, Backups: make([]vipUnitResponse, 0, len(s.Backups))}
			if s.Live != nil {
				live := vipUnitFromDomain(*s.Live)
				slot.Live = &live
			}
			for _, b := range s.Backups {
				slot.Backups = append(slot.Backups, vipUnitFromDomain(b))
			}
			resp.Slots = append(resp.Slots, slot)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type vipUnitResponse struct {
	UnitID   string          `json:"unit_id"`
	Kind     string          `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	Quantity int             `json:"quantity"`
	Priority int             `json:"priority"`
}

type vipSlotResponse struct {
	Tier    string            `json:"tier"`
	Live    *vipUnitResponse  `json:"live,omitempty"`
	Backups []vipUnitResponse `json:"backups"`
}

type vipSlotsResponse struct {
	Slots []vipSlotResponse `json:"slots"`
}

func vipUnitFromDomain(u domain.InventoryUnit) vipUnitResponse {
	return vipUnitResponse{
		UnitID:   u.ID,
		Kind:     string(u.Kind),
		Value:    u.UnitValue,
		Quantity: u.Quantity,
		Priority: u.TierPriority,
	}
}
