package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// PricePreviewer is the minimal interface needed to preview a bundle price.
type PricePreviewer interface {
	PreviewPrice(ctx context.Context, gameID string, bundleSize int, marginPct float64) (decimal.Decimal, error)
}

// HandlePreviewPrice prices a hypothetical bundle for display. Read-only: no
// pool is generated and no inventory is touched.
func HandlePreviewPrice(svc PricePreviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		bundleSize, ok := parseBundleSize(r.URL.Query().Get("bundle_size"))
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidBundleSize, "invalid bundle size")
			return
		}

		marginPct := 0.0
		if raw := r.URL.Query().Get("margin_pct"); raw != "" {
			var err error
			marginPct, err = strconv.ParseFloat(raw, 64)
			if err != nil || marginPct < 0 {
				writeError(w, http.StatusBadRequest, codeInvalidMargin, "invalid margin")
				return
			}
		}

		price, err := svc.PreviewPrice(r.Context(), gameID, bundleSize, marginPct)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previewPriceResponse{
			GameID:     gameID,
			BundleSize: bundleSize,
			Price:      price,
		})
	}
}

type previewPriceResponse struct {
	GameID     string          `json:"game_id"`
	BundleSize int             `json:"bundle_size"`
	Price      decimal.Decimal `json:"price"`
}
