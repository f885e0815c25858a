package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/clock"
)

// RouterDeps carries everything the HTTP surface needs; the notifier is an
// injected dependency, never a process-wide singleton.
type RouterDeps struct {
	Reservations *app.ReservationService
	Purchases    *app.PurchaseService
	Stock        *app.StockService
	Admin        *app.AdminService
	Notifier     app.Notifier
	Clock        clock.Clock

	AdminAPIKey string
	CORSOrigins []string
	Logger      zerolog.Logger
}

// NewRouter assembles the API surface. All engine outcomes are relayed
// verbatim; the router adds only transport concerns.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeValidationError, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandler)
		r.Get("/drops", HandleListDrops(deps.Stock))
		r.With(func(next http.Handler) http.Handler {
			return RequireAPIKey(deps.AdminAPIKey, next)
		}).Post("/drops", HandleCreateDrop(deps.Admin))
		r.Post("/reservations", HandleReserve(deps.Reservations, deps.Stock, deps.Notifier))
		r.Get("/reservations/{id}", HandleGetReservation(deps.Reservations, deps.Clock))
		r.Post("/purchases", HandlePurchase(deps.Purchases, deps.Stock, deps.Stock, deps.Notifier))
	})

	return RequestLogger(CORS(deps.CORSOrigins, r), deps.Logger)
}
