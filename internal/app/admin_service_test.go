package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

func TestAdminService_CreateDrop(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates a drop opening immediately by default", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAdminService(store, clock.NewFixed(now))

		drop, err := svc.CreateDrop(context.Background(), CreateDropInput{
			Name:       "Yeezy Boost",
			PriceCents: 22000,
			TotalStock: 50,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if drop.ID == "" {
			t.Fatalf("expected generated ID")
		}
		if !drop.StartsAt.Equal(now) {
			t.Fatalf("expected startsAt defaulted to now, got %v", drop.StartsAt)
		}
		if !drop.ActiveAt(now) {
			t.Fatalf("expected drop active immediately")
		}
		if _, ok := store.drops[drop.ID]; !ok {
			t.Fatalf("expected drop persisted")
		}
	})

	t.Run("honors an explicit sale window", func(t *testing.T) {
		store := newFakeStore()
		svc := NewAdminService(store, clock.NewFixed(now))

		starts := now.Add(time.Hour)
		ends := now.Add(2 * time.Hour)
		drop, err := svc.CreateDrop(context.Background(), CreateDropInput{
			Name:       "Scheduled Drop",
			PriceCents: 10000,
			TotalStock: 10,
			StartsAt:   &starts,
			EndsAt:     &ends,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if drop.ActiveAt(now) {
			t.Fatalf("expected drop inactive before its window")
		}
		if !drop.ActiveAt(now.Add(90 * time.Minute)) {
			t.Fatalf("expected drop active inside its window")
		}
		if drop.ActiveAt(now.Add(3 * time.Hour)) {
			t.Fatalf("expected drop inactive after its window")
		}
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewAdminService(newFakeStore(), clock.NewFixed(now))

		cases := []struct {
			name string
			in   CreateDropInput
			want error
		}{
			{"missing name", CreateDropInput{PriceCents: 100, TotalStock: 1}, domain.ErrDropNameRequired},
			{"negative price", CreateDropInput{Name: "x drop", PriceCents: -1, TotalStock: 1}, domain.ErrInvalidPrice},
			{"negative stock", CreateDropInput{Name: "x drop", PriceCents: 100, TotalStock: -1}, domain.ErrInvalidStock},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := svc.CreateDrop(context.Background(), tc.in); !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}
