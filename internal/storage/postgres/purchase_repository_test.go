package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flashdrop/drop-api/internal/domain"
	"github.com/flashdrop/drop-api/internal/testutil"
)

func TestPurchaseRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)

	repo := NewPurchaseRepository(pool)

	newPurchase := func(dropID, userID, reservationID string, amountCents int64) domain.Purchase {
		return domain.Purchase{
			ID:            uuid.NewString(),
			DropID:        dropID,
			UserID:        userID,
			ReservationID: reservationID,
			AmountCents:   amountCents,
			CreatedAt:     time.Now().UTC(),
		}
	}

	t.Run("locks the reservation with the drop price", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		dropID := testutil.InsertDrop(t, ctx, pool, "Air Max 95", 19999, 10)
		userID := testutil.InsertUser(t, ctx, pool, "locked_buyer")
		resID := testutil.InsertReservation(t, ctx, pool, dropID, userID, domain.ReservationStatusActive, time.Now().UTC().Add(time.Minute))

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			res, priceCents, err := repo.GetReservationForUpdate(txCtx, resID)
			if err != nil {
				return err
			}
			if res.UserID != userID || res.Status != domain.ReservationStatusActive {
				t.Fatalf("unexpected reservation: %+v", res)
			}
			if priceCents != 19999 {
				t.Fatalf("expected price 19999, got %d", priceCents)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	})

	t.Run("purchase flow commits atomically", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		dropID := testutil.InsertDrop(t, ctx, pool, "Jordan 1", 24999, 10)
		userID := testutil.InsertUser(t, ctx, pool, "atomic_buyer")
		resID := testutil.InsertReservation(t, ctx, pool, dropID, userID, domain.ReservationStatusActive, time.Now().UTC().Add(time.Minute))

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.CreatePurchase(txCtx, newPurchase(dropID, userID, resID, 24999)); err != nil {
				return err
			}
			return repo.UpdateReservationStatus(txCtx, resID, domain.ReservationStatusCompleted)
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}

		var status string
		if err := pool.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, resID).Scan(&status); err != nil {
			t.Fatalf("query status: %v", err)
		}
		if status != "completed" {
			t.Fatalf("expected completed, got %s", status)
		}
		var n int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE reservation_id = $1`, resID).Scan(&n); err != nil {
			t.Fatalf("count purchases: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 purchase, got %d", n)
		}
	})

	t.Run("one purchase per reservation", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)
		dropID := testutil.InsertDrop(t, ctx, pool, "AF1", 12000, 10)
		userID := testutil.InsertUser(t, ctx, pool, "double_buyer")
		resID := testutil.InsertReservation(t, ctx, pool, dropID, userID, domain.ReservationStatusActive, time.Now().UTC().Add(time.Minute))

		if err := repo.CreatePurchase(ctx, newPurchase(dropID, userID, resID, 12000)); err != nil {
			t.Fatalf("first purchase: %v", err)
		}
		err := repo.CreatePurchase(ctx, newPurchase(dropID, userID, resID, 12000))
		if !errors.Is(err, domain.ErrReservationExpired) {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		testutil.TruncateAll(t, ctx, pool)

		if _, _, err := repo.GetReservationForUpdate(ctx, uuid.NewString()); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if _, _, err := repo.GetReservationForUpdate(ctx, "garbage"); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound for malformed id, got %v", err)
		}
		if err := repo.UpdateReservationStatus(ctx, uuid.NewString(), domain.ReservationStatusExpired); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound on update, got %v", err)
		}
	})
}
