package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flashdrop/drop-api/internal/app"
	"github.com/flashdrop/drop-api/internal/domain"
)

type stubDropLister struct {
	listings    []app.DropListing
	err         error
	gotUsername string
}

func (s *stubDropLister) ListActiveDrops(_ context.Context, username string) ([]app.DropListing, error) {
	s.gotUsername = username
	return s.listings, s.err
}

func TestHandleListDrops(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("renders listings with derived stock", func(t *testing.T) {
		svc := &stubDropLister{listings: []app.DropListing{{
			Drop: domain.Drop{
				ID:         "drop-1",
				Name:       "Air Max 95",
				PriceCents: 19999,
				TotalStock: 10,
				StartsAt:   now.Add(-time.Hour),
			},
			AvailableStock: 7,
			TopPurchasers:  []domain.RecentPurchaser{{Username: "first_buyer", PurchasedAt: now}},
			UserReservation: &domain.Reservation{
				ID:        "res-1",
				DropID:    "drop-1",
				Status:    domain.ReservationStatusActive,
				ExpiresAt: now.Add(time.Minute),
			},
		}}}

		req := httptest.NewRequest(http.MethodGet, "/api/drops?username=list_viewer", nil)
		rec := httptest.NewRecorder()
		HandleListDrops(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotUsername != "list_viewer" {
			t.Fatalf("expected username forwarded, got %q", svc.gotUsername)
		}

		var body struct {
			Drops []struct {
				ID             string  `json:"id"`
				Price          float64 `json:"price"`
				TotalStock     int     `json:"totalStock"`
				AvailableStock int     `json:"availableStock"`
				TopPurchasers  []struct {
					Username string `json:"username"`
				} `json:"topPurchasers"`
				UserReservation *struct {
					ID string `json:"id"`
				} `json:"userReservation"`
			} `json:"drops"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(body.Drops) != 1 {
			t.Fatalf("expected 1 drop, got %d", len(body.Drops))
		}
		d := body.Drops[0]
		if d.Price != 199.99 || d.AvailableStock != 7 {
			t.Fatalf("unexpected drop payload: %+v", d)
		}
		if len(d.TopPurchasers) != 1 || d.TopPurchasers[0].Username != "first_buyer" {
			t.Fatalf("unexpected top purchasers: %+v", d.TopPurchasers)
		}
		if d.UserReservation == nil || d.UserReservation.ID != "res-1" {
			t.Fatalf("expected user reservation in payload")
		}
	})

	t.Run("empty listing is an empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleListDrops(&stubDropLister{})(rec, httptest.NewRequest(http.MethodGet, "/api/drops", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"drops":[]}` {
			t.Fatalf("expected empty drops array, got %s", got)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleListDrops(&stubDropLister{err: errors.New("boom")})(rec, httptest.NewRequest(http.MethodGet, "/api/drops", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

type stubDropCreator struct {
	drop domain.Drop
	err  error
	got  app.CreateDropInput
}

func (s *stubDropCreator) CreateDrop(_ context.Context, in app.CreateDropInput) (domain.Drop, error) {
	s.got = in
	if s.err != nil {
		return domain.Drop{}, s.err
	}
	return s.drop, nil
}

func TestHandleCreateDrop(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	post := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/drops", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	t.Run("creates a drop from dollars", func(t *testing.T) {
		svc := &stubDropCreator{drop: domain.Drop{
			ID:         "drop-1",
			Name:       "Air Max 95",
			PriceCents: 19999,
			TotalStock: 100,
			StartsAt:   now,
		}}
		rec := post(HandleCreateDrop(svc), `{"name":"Air Max 95","price":199.99,"totalStock":100}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.got.PriceCents != 19999 || svc.got.TotalStock != 100 {
			t.Fatalf("unexpected input forwarded: %+v", svc.got)
		}

		var body struct {
			ID             string  `json:"id"`
			Price          float64 `json:"price"`
			AvailableStock int     `json:"availableStock"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.ID != "drop-1" || body.Price != 199.99 || body.AvailableStock != 100 {
			t.Fatalf("unexpected body: %+v", body)
		}
	})

	t.Run("rejects sub-cent prices", func(t *testing.T) {
		rec := post(HandleCreateDrop(&stubDropCreator{}), `{"name":"Fancy","price":9.999,"totalStock":1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects incomplete bodies", func(t *testing.T) {
		handler := HandleCreateDrop(&stubDropCreator{})
		for _, body := range []string{``, `{}`, `{"name":"x"}`, `{"name":"x","price":1}`, `{"price":1,"totalStock":1}`} {
			rec := post(handler, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
			}
		}
	})

	t.Run("maps validation errors from the service", func(t *testing.T) {
		rec := post(HandleCreateDrop(&stubDropCreator{err: domain.ErrInvalidStock}), `{"name":"x","price":1,"totalStock":5}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
