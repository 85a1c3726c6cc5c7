package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// SupplyEnsurer is the minimal interface needed to check and top up supply.
type SupplyEnsurer interface {
	EnsureSupply(ctx context.Context, gameID string, bundleSize, floor int) (int, error)
}

// PoolRegenerator is the minimal interface needed for explicit backfill.
type PoolRegenerator interface {
	Generate(ctx context.Context, gameID string, bundleSize, count int) ([]domain.Pool, error)
}

// HandleEnsureSupply synchronously tops pool supply up to the floor so a
// purchase request issued right after can rely on stock existing.
func HandleEnsureSupply(svc SupplyEnsurer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req ensureSupplyRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if !domain.ValidBundleSize(req.BundleSize) {
			writeError(w, http.StatusBadRequest, codeInvalidBundleSize, domain.ErrInvalidBundleSize.Error())
			return
		}
		if req.Floor < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidCount, "floor must not be negative")
			return
		}

		available, err := svc.EnsureSupply(r.Context(), gameID, req.BundleSize, req.Floor)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ensureSupplyResponse{Available: available})
	}
}

// HandleRegenerate is the explicit backfill hook used by scheduled
// maintenance; the post-claim path uses the same generation through the
// worker queue instead.
func HandleRegenerate(svc PoolRegenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req regenerateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if !domain.ValidBundleSize(req.BundleSize) {
			writeError(w, http.StatusBadRequest, codeInvalidBundleSize, domain.ErrInvalidBundleSize.Error())
			return
		}
		if req.Count <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidCount, domain.ErrInvalidCount.Error())
			return
		}

		pools, err := svc.Generate(r.Context(), gameID, req.BundleSize, req.Count)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, regenerateResponse{Generated: len(pools)})
	}
}

type ensureSupplyRequest struct {
	BundleSize int `json:"bundle_size"`
	Floor      int `json:"floor"`
}

type ensureSupplyResponse struct {
	Available int `json:"available"`
}

type regenerateRequest struct {
	BundleSize int `json:"bundle_size"`
	Count      int `json:"count"`
}

type regenerateResponse struct {
	Generated int `json:"generated"`
}
