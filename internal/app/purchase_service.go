package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

type PurchaseRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetReservationForUpdate locks the reservation row and returns it with
	// the owning drop's current price in cents.
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, int64, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error
	CreatePurchase(ctx context.Context, purchase domain.Purchase) error
}

// PurchaseService converts a still-valid reservation into a purchase. The
// reservation row is the mutual-exclusion unit: a purchase and a sweep racing
// for the same hold serialize on its lock, and whichever commits first wins.
type PurchaseService struct {
	repo      PurchaseRepository
	users     UserDirectory
	clock     clock.Clock
	txTimeout time.Duration
}

func NewPurchaseService(repo PurchaseRepository, users UserDirectory, clk clock.Clock, opts ...PurchaseServiceOption) *PurchaseService {
	svc := &PurchaseService{
		repo:      repo,
		users:     users,
		clock:     clk,
		txTimeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PurchaseServiceOption func(*PurchaseService)

// WithPurchaseTxTimeout bounds how long a purchase transaction may wait on
// the reservation lock before it aborts as a concurrent-update outcome.
func WithPurchaseTxTimeout(d time.Duration) PurchaseServiceOption {
	return func(s *PurchaseService) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

type PurchaseResult struct {
	Purchase  domain.Purchase
	Purchaser string
}

func (s *PurchaseService) Purchase(ctx context.Context, reservationID, username string) (PurchaseResult, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return PurchaseResult{}, err
	}

	user, err := s.users.GetOrCreateUser(ctx, username)
	if err != nil {
		return PurchaseResult{}, err
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var result PurchaseResult
	var expiredLazily bool

	err = s.repo.WithTx(txCtx, func(txCtx context.Context) error {
		res, priceCents, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if res.UserID != user.ID {
			return domain.ErrUnauthorized
		}
		if res.Status != domain.ReservationStatusActive {
			// Covers completed holds too: a second purchase of the same
			// reservation is a terminal expired outcome, not a duplicate sale.
			return domain.ErrReservationExpired
		}
		now := s.clock.Now()
		if now.After(res.ExpiresAt) {
			// Lazy expiry: a purchase attempt on a stale hold reclaims it
			// without waiting for the sweeper. The flip must commit, so the
			// rejection is signalled outside the closure.
			if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusExpired); err != nil {
				return err
			}
			expiredLazily = true
			return nil
		}

		purchase := domain.Purchase{
			ID:            uuid.NewString(),
			DropID:        res.DropID,
			UserID:        user.ID,
			ReservationID: res.ID,
			AmountCents:   priceCents,
			CreatedAt:     now,
		}
		if err := s.repo.CreatePurchase(txCtx, purchase); err != nil {
			return err
		}
		if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusCompleted); err != nil {
			return err
		}
		result = PurchaseResult{Purchase: purchase, Purchaser: user.Username}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	if expiredLazily {
		return PurchaseResult{}, domain.ErrReservationExpired
	}
	return result, nil
}
