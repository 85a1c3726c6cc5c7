package http

import (
	"encoding/json"
	"net/http"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidBundleSize     = "invalid_bundle_size"
	codeInvalidCount          = "invalid_count"
	codeInvalidMargin         = "invalid_margin"
	codeInvalidID             = "invalid_id"
	codeUserIDRequired        = "user_id_required"
	codeGameNotFound          = "game_not_found"
	codePoolNotFound          = "pool_not_found"
	codeNoAvailablePool       = "no_available_pool"
	codePoolAlreadyClaimed    = "pool_already_claimed"
	codePoolStale             = "pool_stale"
	codeInsufficientInventory = "insufficient_inventory"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the engine's error taxonomy onto HTTP. An inventory
// mismatch is deliberately opaque to the caller: it is logged server-side and
// surfaced as a generic failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidBundleSize:
		writeError(w, http.StatusBadRequest, codeInvalidBundleSize, err.Error())
	case domain.ErrInvalidCount:
		writeError(w, http.StatusBadRequest, codeInvalidCount, err.Error())
	case domain.ErrInvalidMargin:
		writeError(w, http.StatusBadRequest, codeInvalidMargin, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrUserIDRequired:
		writeError(w, http.StatusBadRequest, codeUserIDRequired, err.Error())
	case domain.ErrGameNotFound:
		writeError(w, http.StatusNotFound, codeGameNotFound, err.Error())
	case domain.ErrPoolNotFound:
		writeError(w, http.StatusNotFound, codePoolNotFound, err.Error())
	case domain.ErrPoolAlreadyClaimed:
		writeError(w, http.StatusConflict, codePoolAlreadyClaimed, err.Error())
	case domain.ErrPoolStale:
		writeError(w, http.StatusConflict, codePoolStale, err.Error())
	case domain.ErrInsufficientInventory, domain.ErrEmptySelectionPool:
		writeError(w, http.StatusServiceUnavailable, codeInsufficientInventory, "no inventory")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
