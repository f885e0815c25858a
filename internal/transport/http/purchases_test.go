package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/domain"
)

type stubPurchaser struct {
	result app.PurchaseResult
	err    error
	gotID  string
	gotU   string
}

func (s *stubPurchaser) Purchase(_ context.Context, reservationID, username string) (app.PurchaseResult, error) {
	s.gotID = reservationID
	s.gotU = username
	return s.result, s.err
}

type stubRecent struct {
	recent []domain.RecentPurchaser
	err    error
}

func (s stubRecent) RecentPurchasers(context.Context, string) ([]domain.RecentPurchaser, error) {
	return s.recent, s.err
}

func TestHandlePurchase(t *testing.T) {
	purchasedAt := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	okResult := app.PurchaseResult{
		Purchase: domain.Purchase{
			ID:            "pur-1",
			DropID:        "drop-1",
			ReservationID: "res-1",
			AmountCents:   24999,
			CreatedAt:     purchasedAt,
		},
		Purchaser: "paying_fan",
	}
	recent := []domain.RecentPurchaser{{Username: "paying_fan", PurchasedAt: purchasedAt}}

	post := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	t.Run("finalizes a hold and broadcasts", func(t *testing.T) {
		svc := &stubPurchaser{result: okResult}
		notifier := &captureNotifier{}
		handler := HandlePurchase(svc, stubStock{available: 2}, stubRecent{recent: recent}, notifier)

		rec := post(handler, `{"reservationId":"res-1","username":"paying_fan"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotID != "res-1" || svc.gotU != "paying_fan" {
			t.Fatalf("unexpected service args: %q %q", svc.gotID, svc.gotU)
		}

		var body struct {
			Success  bool `json:"success"`
			Purchase struct {
				ID          string    `json:"id"`
				DropID      string    `json:"dropId"`
				AmountPaid  float64   `json:"amountPaid"`
				Purchaser   string    `json:"purchaser"`
				PurchasedAt time.Time `json:"purchasedAt"`
			} `json:"purchase"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !body.Success || body.Purchase.ID != "pur-1" {
			t.Fatalf("unexpected body: %+v", body)
		}
		if body.Purchase.AmountPaid != 249.99 {
			t.Fatalf("expected amountPaid 249.99, got %v", body.Purchase.AmountPaid)
		}
		if notifier.stockDropID != "drop-1" || notifier.stockAvailable != 2 {
			t.Fatalf("expected stock notification, got %+v", notifier)
		}
		if notifier.purchaseDropID != "drop-1" || notifier.purchaser != "paying_fan" || len(notifier.recent) != 1 {
			t.Fatalf("expected purchase notification, got %+v", notifier)
		}
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			name     string
			err      error
			wantCode int
			wantErr  string
		}{
			{"expired hold", domain.ErrReservationExpired, http.StatusGone, "RESERVATION_EXPIRED"},
			{"unknown hold", domain.ErrReservationNotFound, http.StatusGone, "RESERVATION_NOT_FOUND"},
			{"wrong owner", domain.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
			{"lock contention", domain.ErrConcurrentUpdate, http.StatusConflict, "CONCURRENT_UPDATE"},
			{"bad username", domain.ErrInvalidUsername, http.StatusBadRequest, "INVALID_USERNAME"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				notifier := &captureNotifier{}
				handler := HandlePurchase(&stubPurchaser{err: tc.err}, stubStock{}, stubRecent{}, notifier)

				rec := post(handler, `{"reservationId":"res-1","username":"paying_fan"}`)
				if rec.Code != tc.wantCode {
					t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
				}
				var body errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if body.Success || body.Error != tc.wantErr {
					t.Fatalf("unexpected error body: %+v", body)
				}
				if notifier.stockCalls != 0 {
					t.Fatalf("expected no notification on failure")
				}
			})
		}
	})

	t.Run("rejects malformed and incomplete bodies", func(t *testing.T) {
		handler := HandlePurchase(&stubPurchaser{result: okResult}, stubStock{}, stubRecent{}, &captureNotifier{})
		for _, body := range []string{``, `{`, `{"reservationId":"res-1"}`, `{"username":"fan"}`} {
			rec := post(handler, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
			}
		}
	})
}
