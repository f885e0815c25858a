package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/domain"
)

// Purchaser is the minimal interface needed to finalize a hold.
type Purchaser interface {
	Purchase(ctx context.Context, reservationID, username string) (app.PurchaseResult, error)
}

// PurchaserLister fetches the newest purchasers for the completed-purchase
// notification.
type PurchaserLister interface {
	RecentPurchasers(ctx context.Context, dropID string) ([]domain.RecentPurchaser, error)
}

type purchaseRequest struct {
	ReservationID string `json:"reservationId"`
	Username      string `json:"username"`
}

type purchasePayload struct {
	ID          string    `json:"id"`
	DropID      string    `json:"dropId"`
	AmountPaid  float64   `json:"amountPaid"`
	Purchaser   string    `json:"purchaser"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type purchaseResponse struct {
	Success  bool            `json:"success"`
	Purchase purchasePayload `json:"purchase"`
}

// HandlePurchase finalizes a hold and, on success, pushes both the new stock
// level and the purchase announcement to the notifier.
func HandlePurchase(svc Purchaser, stock StockReader, recent PurchaserLister, notifier app.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
			return
		}
		if req.ReservationID == "" || req.Username == "" {
			writeError(w, http.StatusBadRequest, codeValidationError, "reservationId and username are required")
			return
		}

		res, err := svc.Purchase(r.Context(), req.ReservationID, req.Username)
		if err != nil {
			writePurchaseError(w, err)
			return
		}

		dropID := res.Purchase.DropID
		if available, err := stock.AvailableStock(r.Context(), dropID); err == nil {
			notifier.StockChanged(r.Context(), dropID, available)
		}
		if top, err := recent.RecentPurchasers(r.Context(), dropID); err == nil {
			notifier.PurchaseCompleted(r.Context(), dropID, res.Purchaser, top)
		}

		writeJSON(w, http.StatusCreated, purchaseResponse{
			Success: true,
			Purchase: purchasePayload{
				ID:          res.Purchase.ID,
				DropID:      dropID,
				AmountPaid:  domain.CentsToDollars(res.Purchase.AmountCents),
				Purchaser:   res.Purchaser,
				PurchasedAt: res.Purchase.CreatedAt,
			},
		})
	}
}
