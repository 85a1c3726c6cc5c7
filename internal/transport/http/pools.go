package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/julianparmann/seatjumper-sub002/internal/app"
	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// PoolReader is the minimal interface needed to serve pool lookups.
type PoolReader interface {
	GetAvailablePool(ctx context.Context, gameID string, bundleSize int) (*domain.Pool, error)
}

// PoolClaimer is the minimal interface needed to claim a pool.
type PoolClaimer interface {
	Claim(ctx context.Context, poolID, userID string) (app.ClaimResult, error)
}

// StaleMarker is the minimal interface needed to invalidate a game's pools.
type StaleMarker interface {
	MarkStale(ctx context.Context, gameID string) (int64, error)
}

// HandleGetAvailablePool serves one AVAILABLE pool for (game, bundle size)
// without mutating it. No pool is a 404 the buyer should retry shortly, never
// a fabricated offer.
func HandleGetAvailablePool(svc PoolReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		bundleSize, ok := parseBundleSize(r.URL.Query().Get("bundle_size"))
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidBundleSize, "invalid bundle size")
			return
		}

		pool, err := svc.GetAvailablePool(r.Context(), gameID, bundleSize)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if pool == nil {
			writeError(w, http.StatusNotFound, codeNoAvailablePool, "no pool available, retry shortly")
			return
		}
		writeJSON(w, http.StatusOK, poolFromDomain(*pool))
	}
}

// HandleClaimPool converts a pool into a committed sale. Callers invoke it
// only after payment is confirmed; this service does not gate on payment.
func HandleClaimPool(svc PoolClaimer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolID := chi.URLParam(r, "poolID")

		var req claimRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.UserID == "" {
			writeError(w, http.StatusBadRequest, codeUserIDRequired, domain.ErrUserIDRequired.Error())
			return
		}

		result, err := svc.Claim(r.Context(), poolID, req.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := claimResponse{
			Pool:    poolFromDomain(result.Pool),
			VIPWins: make([]vipWinResponse, 0, len(result.VIPWins)),
		}
		for _, u := range result.VIPWins {
			resp.VIPWins = append(resp.VIPWins, vipWinResponse{
				UnitID: u.ID,
				Kind:   string(u.Kind),
				Tier:   u.VIPTier,
				Value:  u.UnitValue,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleMarkStale invalidates every AVAILABLE pool for a game. Admin inventory
// tooling calls this after edits that change underlying assumptions.
func HandleMarkStale(svc StaleMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		stale, err := svc.MarkStale(r.Context(), gameID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, markStaleResponse{Stale: stale})
	}
}

func parseBundleSize(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || !domain.ValidBundleSize(n) {
		return 0, false
	}
	return n, true
}

type claimRequest struct {
	UserID string `json:"user_id"`
}

type bundleResponse struct {
	TicketUnitID      string          `json:"ticket_unit_id"`
	MemorabiliaUnitID string          `json:"memorabilia_unit_id"`
	TicketValue       decimal.Decimal `json:"ticket_value"`
	MemorabiliaValue  decimal.Decimal `json:"memorabilia_value"`
}

type poolResponse struct {
	ID         string           `json:"id"`
	GameID     string           `json:"game_id"`
	BundleSize int              `json:"bundle_size"`
	Bundles    []bundleResponse `json:"bundles"`
	TotalValue decimal.Decimal  `json:"total_value"`
	Price      decimal.Decimal  `json:"price"`
	Status     string           `json:"status"`
	ClaimedBy  string           `json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time       `json:"claimed_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

type vipWinResponse struct {
	UnitID string          `json:"unit_id"`
	Kind   string          `json:"kind"`
	Tier   string          `json:"tier"`
	Value  decimal.Decimal `json:"value"`
}

type claimResponse struct {
	Pool    poolResponse     `json:"pool"`
	VIPWins []vipWinResponse `json:"vip_wins"`
}

type markStaleResponse struct {
	Stale int64 `json:"stale"`
}

func poolFromDomain(p domain.Pool) poolResponse {
	bundles := make([]bundleResponse, 0, len(p.Bundles))
	for _, b := range p.Bundles {
		bundles = append(bundles, bundleResponse{
			TicketUnitID:      b.TicketUnitID,
			MemorabiliaUnitID: b.MemorabiliaUnitID,
			TicketValue:       b.TicketValue,
			MemorabiliaValue:  b.MemorabiliaValue,
		})
	}
	return poolResponse{
		ID:         p.ID,
		GameID:     p.GameID,
		BundleSize: p.BundleSize,
		Bundles:    bundles,
		TotalValue: p.TotalValue,
		Price:      p.Price,
		Status:     string(p.Status),
		ClaimedBy:  p.ClaimedBy,
		ClaimedAt:  p.ClaimedAt,
		CreatedAt:  p.CreatedAt,
	}
}
