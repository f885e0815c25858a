package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

// UserDirectory upserts actors by username. The upsert happens before the
// reservation transaction opens so user creation never holds the drop lock.
type UserDirectory interface {
	GetOrCreateUser(ctx context.Context, username string) (domain.User, error)
}

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetDropForUpdate(ctx context.Context, dropID string) (domain.Drop, error)
	FindActiveReservation(ctx context.Context, dropID, userID string) (*domain.Reservation, error)
	ExtendReservation(ctx context.Context, reservationID string, expiresAt time.Time) error
	CountActiveReservations(ctx context.Context, dropID string) (int, error)
	CountPurchases(ctx context.Context, dropID string) (int, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error)
}

const (
	defaultHoldTTL   = 60 * time.Second
	defaultTxTimeout = 15 * time.Second
)

// ReservationService implements the reserve half of the stock engine. All
// stock decisions happen inside one transaction holding an exclusive lock on
// the drop row, so committed reservations against a drop are totally ordered.
type ReservationService struct {
	repo      ReservationRepository
	users     UserDirectory
	clock     clock.Clock
	holdTTL   time.Duration
	txTimeout time.Duration
}

func NewReservationService(repo ReservationRepository, users UserDirectory, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		users:     users,
		clock:     clk,
		holdTTL:   defaultHoldTTL,
		txTimeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithHoldTTL overrides the default lifetime of new and extended holds.
func WithHoldTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithReserveTxTimeout bounds how long a reserve transaction may wait on the
// drop lock before it aborts as a concurrent-update outcome.
func WithReserveTxTimeout(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

type ReserveResult struct {
	Reservation domain.Reservation
	// Extended is true when the actor already held this drop and the existing
	// hold's expiry was pushed forward instead of consuming another unit.
	Extended bool
}

func (s *ReservationService) Reserve(ctx context.Context, dropID, username string) (ReserveResult, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return ReserveResult{}, err
	}

	user, err := s.users.GetOrCreateUser(ctx, username)
	if err != nil {
		return ReserveResult{}, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var result ReserveResult

	err = s.repo.WithTx(txCtx, func(txCtx context.Context) error {
		drop, err := s.repo.GetDropForUpdate(txCtx, dropID)
		if err != nil {
			return err
		}

		// The clock is read after the drop lock is acquired so a reserve that
		// waited on contention still gets the full hold TTL.
		now := s.clock.Now()
		if !drop.ActiveAt(now) {
			return domain.ErrDropNotActive
		}

		// A repeat reserve by the same actor extends the existing hold so a
		// user cannot burn stock against themselves.
		existing, err := s.repo.FindActiveReservation(txCtx, drop.ID, user.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			expiresAt := now.Add(s.holdTTL)
			if err := s.repo.ExtendReservation(txCtx, existing.ID, expiresAt); err != nil {
				return err
			}
			extended := *existing
			extended.ExpiresAt = expiresAt
			result = ReserveResult{Reservation: extended, Extended: true}
			return nil
		}

		reserved, err := s.repo.CountActiveReservations(txCtx, drop.ID)
		if err != nil {
			return err
		}
		purchased, err := s.repo.CountPurchases(txCtx, drop.ID)
		if err != nil {
			return err
		}
		if drop.TotalStock-reserved-purchased < 1 {
			return domain.ErrOutOfStock
		}

		res := domain.Reservation{
			ID:        uuid.NewString(),
			DropID:    drop.ID,
			UserID:    user.ID,
			Status:    domain.ReservationStatusActive,
			ExpiresAt: now.Add(s.holdTTL),
			CreatedAt: now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}
		result = ReserveResult{Reservation: res}
		return nil
	})
	if err != nil {
		return ReserveResult{}, err
	}
	return result, nil
}

// Get returns a reservation by ID for status probes; no lock is taken.
func (s *ReservationService) Get(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return s.repo.GetReservation(ctx, reservationID)
}
