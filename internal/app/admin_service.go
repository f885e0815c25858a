package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flashdrop/drop-api/internal/clock"
	"github.com/flashdrop/drop-api/internal/domain"
)

type DropWriter interface {
	CreateDrop(ctx context.Context, drop domain.Drop) error
}

// AdminService creates drops. Drops are immutable after creation; stock is
// never decremented directly.
type AdminService struct {
	repo  DropWriter
	clock clock.Clock
}

func NewAdminService(repo DropWriter, clk clock.Clock) *AdminService {
	return &AdminService{repo: repo, clock: clk}
}

type CreateDropInput struct {
	Name       string
	PriceCents int64
	TotalStock int
	StartsAt   *time.Time
	EndsAt     *time.Time
}

func (s *AdminService) CreateDrop(ctx context.Context, in CreateDropInput) (domain.Drop, error) {
	if in.Name == "" {
		return domain.Drop{}, domain.ErrDropNameRequired
	}
	if in.PriceCents < 0 {
		return domain.Drop{}, domain.ErrInvalidPrice
	}
	if in.TotalStock < 0 {
		return domain.Drop{}, domain.ErrInvalidStock
	}

	now := s.clock.Now()
	startsAt := now
	if in.StartsAt != nil {
		startsAt = *in.StartsAt
	}

	drop := domain.Drop{
		ID:         uuid.NewString(),
		Name:       in.Name,
		PriceCents: in.PriceCents,
		TotalStock: in.TotalStock,
		StartsAt:   startsAt,
		EndsAt:     in.EndsAt,
		CreatedAt:  now,
	}
	if err := s.repo.CreateDrop(ctx, drop); err != nil {
		return domain.Drop{}, err
	}
	return drop, nil
}
