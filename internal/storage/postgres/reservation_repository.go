package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdrop/drop-api/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetDropForUpdate(ctx context.Context, dropID string) (domain.Drop, error) {
	const query = `
SELECT id, name, price_cents, total_stock, starts_at, ends_at, created_at
FROM drops
WHERE id = $1
FOR UPDATE`

	var d domain.Drop
	err := r.queryRow(ctx, query, dropID).
		Scan(&d.ID, &d.Name, &d.PriceCents, &d.TotalStock, &d.StartsAt, &d.EndsAt, &d.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Drop{}, domain.ErrDropNotFound
		}
		if err == pgx.ErrNoRows {
			return domain.Drop{}, domain.ErrDropNotFound
		}
		return domain.Drop{}, fmt.Errorf("get drop for update: %w", err)
	}
	return d, nil
}

func (r *ReservationRepository) FindActiveReservation(ctx context.Context, dropID, userID string) (*domain.Reservation, error) {
	const query = `
SELECT id, drop_id, user_id, status, expires_at, created_at
FROM reservations
WHERE drop_id = $1 AND user_id = $2 AND status = 'active'`

	var res domain.Reservation
	err := r.queryRow(ctx, query, dropID, userID).
		Scan(&res.ID, &res.DropID, &res.UserID, &res.Status, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active reservation: %w", err)
	}
	return &res, nil
}

func (r *ReservationRepository) ExtendReservation(ctx context.Context, reservationID string, expiresAt time.Time) error {
	const stmt = `UPDATE reservations SET expires_at = $2 WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, reservationID, expiresAt)
	if err != nil {
		return fmt.Errorf("extend reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) CountActiveReservations(ctx context.Context, dropID string) (int, error) {
	return countActiveReservations(ctx, r, dropID)
}

func (r *ReservationRepository) CountPurchases(ctx context.Context, dropID string) (int, error) {
	return countPurchases(ctx, r, dropID)
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, drop_id, user_id, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, res.ID, res.DropID, res.UserID, res.Status, res.ExpiresAt, res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// The partial unique index on (drop_id, user_id) WHERE active is a
			// backstop; the service extends instead of inserting in this case.
			return domain.ErrConcurrentUpdate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrDropNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// ExpireDueReservations transitions every overdue active reservation to
// expired in one statement and returns the distinct drops affected.
func (r *ReservationRepository) ExpireDueReservations(ctx context.Context, now time.Time) ([]string, error) {
	const stmt = `
UPDATE reservations
SET status = 'expired'
WHERE status = 'active' AND expires_at < $1
RETURNING drop_id`

	rows, err := r.query(ctx, stmt, now)
	if err != nil {
		return nil, fmt.Errorf("expire due reservations: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var dropIDs []string
	for rows.Next() {
		var dropID string
		if err := rows.Scan(&dropID); err != nil {
			return nil, fmt.Errorf("scan expired drop id: %w", err)
		}
		if _, ok := seen[dropID]; ok {
			continue
		}
		seen[dropID] = struct{}{}
		dropIDs = append(dropIDs, dropID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", rows.Err())
	}
	return dropIDs, nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, drop_id, user_id, status, expires_at, created_at
FROM reservations
WHERE id = $1`

	var res domain.Reservation
	err := r.queryRow(ctx, query, reservationID).
		Scan(&res.ID, &res.DropID, &res.UserID, &res.Status, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
