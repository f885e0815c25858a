package app

import (
	"context"

	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

type StockRepository interface {
	GetDrop(ctx context.Context, dropID string) (domain.Drop, error)
	ListDrops(ctx context.Context) ([]domain.Drop, error)
	CountActiveReservations(ctx context.Context, dropID string) (int, error)
	CountPurchases(ctx context.Context, dropID string) (int, error)
	RecentPurchasers(ctx context.Context, dropID string, limit int) ([]domain.RecentPurchaser, error)
	FindLiveReservationByUsername(ctx context.Context, dropID, username string) (*domain.Reservation, error)
}

// recentPurchaserLimit is how many purchasers the purchase-completed
// notification and the drops listing expose, newest first.
const recentPurchaserLimit = 3

// StockService is the read side: availability is always derived by counting
// active reservations and purchases, never read from a stored running total.
// When called inside an open transaction the counts see that transaction's
// view; standalone calls are plain eventually-consistent reads.
type StockService struct {
	repo  StockRepository
	clock clock.Clock
}

func NewStockService(repo StockRepository, clk clock.Clock) *StockService {
	return &StockService{repo: repo, clock: clk}
}

func (s *StockService) AvailableStock(ctx context.Context, dropID string) (int, error) {
	drop, err := s.repo.GetDrop(ctx, dropID)
	if err != nil {
		return 0, err
	}
	return s.available(ctx, drop)
}

func (s *StockService) available(ctx context.Context, drop domain.Drop) (int, error) {
	reserved, err := s.repo.CountActiveReservations(ctx, drop.ID)
	if err != nil {
		return 0, err
	}
	purchased, err := s.repo.CountPurchases(ctx, drop.ID)
	if err != nil {
		return 0, err
	}
	available := drop.TotalStock - reserved - purchased
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (s *StockService) RecentPurchasers(ctx context.Context, dropID string) ([]domain.RecentPurchaser, error) {
	return s.repo.RecentPurchasers(ctx, dropID, recentPurchaserLimit)
}

// DropListing is the display projection for one active drop.
type DropListing struct {
	Drop            domain.Drop
	AvailableStock  int
	TopPurchasers   []domain.RecentPurchaser
	UserReservation *domain.Reservation
}

// ListActiveDrops returns currently active drops with derived stock and top
// purchasers. When username is non-empty, each listing also carries that
// user's live reservation on the drop, if any.
func (s *StockService) ListActiveDrops(ctx context.Context, username string) ([]DropListing, error) {
	drops, err := s.repo.ListDrops(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	listings := make([]DropListing, 0, len(drops))
	for _, drop := range drops {
		if !drop.ActiveAt(now) {
			continue
		}

		available, err := s.available(ctx, drop)
		if err != nil {
			return nil, err
		}
		top, err := s.repo.RecentPurchasers(ctx, drop.ID, recentPurchaserLimit)
		if err != nil {
			return nil, err
		}

		listing := DropListing{
			Drop:           drop,
			AvailableStock: available,
			TopPurchasers:  top,
		}
		if username != "" {
			res, err := s.repo.FindLiveReservationByUsername(ctx, drop.ID, username)
			if err != nil {
				return nil, err
			}
			if res != nil && res.ExpiresAt.After(now) {
				listing.UserReservation = res
			}
		}
		listings = append(listings, listing)
	}
	return listings, nil
}
