package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/domain"
)

// DropLister serves the public listing of active drops.
type DropLister interface {
	ListActiveDrops(ctx context.Context, username string) ([]app.DropListing, error)
}

// DropCreator is the administrative interface for creating drops.
type DropCreator interface {
	CreateDrop(ctx context.Context, in app.CreateDropInput) (domain.Drop, error)
}

type dropPayload struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Price          float64             `json:"price"`
	TotalStock     int                 `json:"totalStock"`
	AvailableStock int                 `json:"availableStock"`
	StartsAt       time.Time           `json:"startsAt"`
	EndsAt         *time.Time          `json:"endsAt,omitempty"`
	TopPurchasers  []topPurchaserJSON  `json:"topPurchasers"`
	Reservation    *reservationPayload `json:"userReservation,omitempty"`
}

type topPurchaserJSON struct {
	Username    string    `json:"username"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

func HandleListDrops(svc DropLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")

		listings, err := svc.ListActiveDrops(r.Context(), username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to fetch drops")
			return
		}

		payload := make([]dropPayload, 0, len(listings))
		for _, l := range listings {
			top := make([]topPurchaserJSON, 0, len(l.TopPurchasers))
			for _, p := range l.TopPurchasers {
				top = append(top, topPurchaserJSON{Username: p.Username, PurchasedAt: p.PurchasedAt})
			}
			d := dropPayload{
				ID:             l.Drop.ID,
				Name:           l.Drop.Name,
				Price:          domain.CentsToDollars(l.Drop.PriceCents),
				TotalStock:     l.Drop.TotalStock,
				AvailableStock: l.AvailableStock,
				StartsAt:       l.Drop.StartsAt,
				EndsAt:         l.Drop.EndsAt,
				TopPurchasers:  top,
			}
			if l.UserReservation != nil {
				d.Reservation = &reservationPayload{
					ID:        l.UserReservation.ID,
					DropID:    l.UserReservation.DropID,
					Status:    string(l.UserReservation.Status),
					ExpiresAt: l.UserReservation.ExpiresAt,
				}
			}
			payload = append(payload, d)
		}

		writeJSON(w, http.StatusOK, map[string]any{"drops": payload})
	}
}

type createDropRequest struct {
	Name       string     `json:"name"`
	Price      *float64   `json:"price"`
	TotalStock *int       `json:"totalStock"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
}

func HandleCreateDrop(svc DropCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDropRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
			return
		}
		if req.Name == "" || req.Price == nil || req.TotalStock == nil {
			writeError(w, http.StatusBadRequest, codeValidationError, "name, price, and totalStock are required")
			return
		}

		priceCents, err := domain.DollarsToCents(*req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
			return
		}

		drop, err := svc.CreateDrop(r.Context(), app.CreateDropInput{
			Name:       req.Name,
			PriceCents: priceCents,
			TotalStock: *req.TotalStock,
			StartsAt:   req.StartsAt,
			EndsAt:     req.EndsAt,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrDropNameRequired),
				errors.Is(err, domain.ErrInvalidPrice),
				errors.Is(err, domain.ErrInvalidStock):
				writeError(w, http.StatusBadRequest, codeValidationError, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "failed to create drop")
			}
			return
		}

		writeJSON(w, http.StatusCreated, dropPayload{
			ID:             drop.ID,
			Name:           drop.Name,
			Price:          domain.CentsToDollars(drop.PriceCents),
			TotalStock:     drop.TotalStock,
			AvailableStock: drop.TotalStock,
			StartsAt:       drop.StartsAt,
			EndsAt:         drop.EndsAt,
			TopPurchasers:  []topPurchaserJSON{},
		})
	}
}
