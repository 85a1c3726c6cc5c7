package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services collects everything the router exposes.
type Services struct {
	Pools   PoolReader
	Claims  PoolClaimer
	Supply  SupplyEnsurer
	Regen   PoolRegenerator
	Stale   StaleMarker
	Pricing PricePreviewer
	VIP     VIPSlotLister
}

// NewRouter assembles the HTTP surface of the engine.
func NewRouter(svcs Services, corsOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", HealthHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/games/{gameID}/pools/available", HandleGetAvailablePool(svcs.Pools))
		r.Get("/games/{gameID}/pricing/preview", HandlePreviewPrice(svcs.Pricing))
		r.Get("/games/{gameID}/vip/slots", HandleListVIPSlots(svcs.VIP))
		r.Post("/games/{gameID}/supply/ensure", HandleEnsureSupply(svcs.Supply))
		r.Post("/games/{gameID}/pools/regenerate", HandleRegenerate(svcs.Regen))
		r.Post("/games/{gameID}/pools/stale", HandleMarkStale(svcs.Stale))
		r.Post("/pools/{poolID}/claim", HandleClaimPool(svcs.Claims))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return RequestLogger(CORS(corsOrigins, r), logger)
}

// HealthHandler reports basic liveness for the service.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
