package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/flashdrop/drop-api/internal/clock"
)

type SweeperRepository interface {
	// ExpireDueReservations flips every active reservation whose expiry has
	// passed to expired and returns the distinct affected drop IDs. Only
	// active rows match, so re-running it is a no-op.
	ExpireDueReservations(ctx context.Context, now time.Time) ([]string, error)
}

const defaultSweepInterval = 5 * time.Second

// Sweeper reclaims expired holds on a fixed interval and reports the freed
// stock. A failed tick is logged and dropped; the next tick starts clean. No
// lock is held between ticks.
type Sweeper struct {
	repo     SweeperRepository
	stock    *StockService
	notifier Notifier
	clock    clock.Clock
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(repo SweeperRepository, stock *StockService, notifier Notifier, clk clock.Clock, logger zerolog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:     repo,
		stock:    stock,
		notifier: notifier,
		clock:    clk,
		interval: defaultSweepInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*Sweeper)

// WithSweepInterval overrides the default tick interval.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Start launches the sweep loop in a goroutine. It stops when ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Tick(ctx); err != nil {
					s.logger.Error().Err(err).Msg("expiry sweep failed")
				}
			}
		}
	}()
}

// Tick runs one sweep: expire due holds, then re-derive and broadcast stock
// for every affected drop.
func (s *Sweeper) Tick(ctx context.Context) error {
	dropIDs, err := s.repo.ExpireDueReservations(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	for _, dropID := range dropIDs {
		available, err := s.stock.AvailableStock(ctx, dropID)
		if err != nil {
			s.logger.Error().Err(err).Str("drop_id", dropID).Msg("stock recompute after sweep failed")
			continue
		}
		s.notifier.StockChanged(ctx, dropID, available)
	}
	if len(dropIDs) > 0 {
		s.logger.Debug().Int("drops", len(dropIDs)).Msg("expired holds reclaimed")
	}
	return nil
}
