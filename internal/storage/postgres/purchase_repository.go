package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdrop/drop-api/internal/domain"
)

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func (r *PurchaseRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetReservationForUpdate locks only the reservation row; the drop is joined
// for its price, so concurrent reserves on the same drop are not blocked.
func (r *PurchaseRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, int64, error) {
	const query = `
SELECT r.id, r.drop_id, r.user_id, r.status, r.expires_at, r.created_at, d.price_cents
FROM reservations r
JOIN drops d ON d.id = r.drop_id
WHERE r.id = $1
FOR UPDATE OF r`

	var res domain.Reservation
	var priceCents int64
	err := r.queryRow(ctx, query, reservationID).
		Scan(&res.ID, &res.DropID, &res.UserID, &res.Status, &res.ExpiresAt, &res.CreatedAt, &priceCents)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, 0, domain.ErrReservationNotFound
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, 0, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, 0, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, priceCents, nil
}

func (r *PurchaseRepository) UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error {
	const stmt = `UPDATE reservations SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, reservationID, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *PurchaseRepository) CreatePurchase(ctx context.Context, purchase domain.Purchase) error {
	const stmt = `
INSERT INTO purchases (id, drop_id, user_id, reservation_id, amount_cents, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt,
		purchase.ID,
		purchase.DropID,
		purchase.UserID,
		purchase.ReservationID,
		purchase.AmountCents,
		purchase.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// reservation_id is unique: a concurrent purchase of the same hold
			// already committed.
			return domain.ErrReservationExpired
		}
		if isForeignKeyViolation(err) {
			return domain.ErrReservationNotFound
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (r *PurchaseRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PurchaseRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
