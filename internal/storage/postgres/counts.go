package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flashdrop/drop-api/internal/domain"
)

type rowQuerier interface {
	queryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Count queries shared by the reserve transaction and the standalone stock
// read. Counting is by status only: a timed-out hold keeps burning stock
// until the sweeper or lazy expiry flips it.

func countActiveReservations(ctx context.Context, q rowQuerier, dropID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reservations WHERE drop_id = $1 AND status = 'active'`
	var total int
	if err := q.queryRow(ctx, query, dropID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return total, nil
}

func countPurchases(ctx context.Context, q rowQuerier, dropID string) (int, error) {
	const query = `SELECT COUNT(*) FROM purchases WHERE drop_id = $1`
	var total int
	if err := q.queryRow(ctx, query, dropID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return total, nil
}
