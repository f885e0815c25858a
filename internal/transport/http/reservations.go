package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

// Reserver is the minimal interface needed to place a hold.
type Reserver interface {
	Reserve(ctx context.Context, dropID, username string) (app.ReserveResult, error)
}

// ReservationReader looks up a reservation for status probes.
type ReservationReader interface {
	Get(ctx context.Context, reservationID string) (domain.Reservation, error)
}

// StockReader re-derives availability after a successful state change.
type StockReader interface {
	AvailableStock(ctx context.Context, dropID string) (int, error)
}

type reserveRequest struct {
	DropID   string `json:"dropId"`
	Username string `json:"username"`
}

type reservationPayload struct {
	ID        string    `json:"id"`
	DropID    string    `json:"dropId"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type reserveResponse struct {
	Success     bool               `json:"success"`
	Reservation reservationPayload `json:"reservation"`
	Extended    bool               `json:"extended"`
}

// HandleReserve places a hold and, on success, reads fresh stock and pushes
// it to the notifier. The notifier push is outside the engine transaction:
// broadcast failure never rolls back a committed hold.
func HandleReserve(svc Reserver, stock StockReader, notifier app.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reserveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
			return
		}
		if req.DropID == "" || req.Username == "" {
			writeError(w, http.StatusBadRequest, codeValidationError, "dropId and username are required")
			return
		}

		res, err := svc.Reserve(r.Context(), req.DropID, req.Username)
		if err != nil {
			writeReserveError(w, err)
			return
		}

		if available, err := stock.AvailableStock(r.Context(), res.Reservation.DropID); err == nil {
			notifier.StockChanged(r.Context(), res.Reservation.DropID, available)
		}

		writeJSON(w, http.StatusCreated, reserveResponse{
			Success: true,
			Reservation: reservationPayload{
				ID:        res.Reservation.ID,
				DropID:    res.Reservation.DropID,
				Status:    string(res.Reservation.Status),
				ExpiresAt: res.Reservation.ExpiresAt,
			},
			Extended: res.Extended,
		})
	}
}

// HandleGetReservation reports whether a hold is still live. Dead holds are
// 410 so polling clients can stop immediately.
func HandleGetReservation(svc ReservationReader, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservationID := chi.URLParam(r, "id")

		res, err := svc.Get(r.Context(), reservationID)
		if err != nil {
			if errors.Is(err, domain.ErrReservationNotFound) {
				writeError(w, http.StatusNotFound, codeNotFound, "reservation not found")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to fetch reservation")
			return
		}
		if res.Status != domain.ReservationStatusActive || clk.Now().After(res.ExpiresAt) {
			writeError(w, http.StatusGone, codeExpired, "reservation has expired")
			return
		}

		writeJSON(w, http.StatusOK, reservationPayload{
			ID:        res.ID,
			DropID:    res.DropID,
			Status:    string(res.Status),
			ExpiresAt: res.ExpiresAt,
		})
	}
}
