package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdrop/drop-api/internal/domain"
)

type DropRepository struct {
	pool *pgxpool.Pool
}

func NewDropRepository(pool *pgxpool.Pool) *DropRepository {
	return &DropRepository{pool: pool}
}

func (r *DropRepository) CreateDrop(ctx context.Context, drop domain.Drop) error {
	const stmt = `
INSERT INTO drops (id, name, price_cents, total_stock, starts_at, ends_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, stmt,
		drop.ID,
		drop.Name,
		drop.PriceCents,
		drop.TotalStock,
		drop.StartsAt,
		drop.EndsAt,
		drop.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create drop: %w", err)
	}
	return nil
}

func (r *DropRepository) GetDrop(ctx context.Context, dropID string) (domain.Drop, error) {
	const query = `
SELECT id, name, price_cents, total_stock, starts_at, ends_at, created_at
FROM drops
WHERE id = $1`

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
		return domain.Drop{}, fmt.Errorf("get drop: %w", err)
	}
	return d, nil
}

func (r *DropRepository) ListDrops(ctx context.Context) ([]domain.Drop, error) {
	const query = `
SELECT id, name, price_cents, total_stock, starts_at, ends_at, created_at
FROM drops
ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drops: %w", err)
	}
	defer rows.Close()

	var drops []domain.Drop
	for rows.Next() {
		var d domain.Drop
		if err := rows.Scan(&d.ID, &d.Name, &d.PriceCents, &d.TotalStock, &d.StartsAt, &d.EndsAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drop: %w", err)
		}
		drops = append(drops, d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate drops: %w", rows.Err())
	}
	return drops, nil
}

func (r *DropRepository) CountActiveReservations(ctx context.Context, dropID string) (int, error) {
	return countActiveReservations(ctx, r, dropID)
}

func (r *DropRepository) CountPurchases(ctx context.Context, dropID string) (int, error) {
	return countPurchases(ctx, r, dropID)
}

func (r *DropRepository) RecentPurchasers(ctx context.Context, dropID string, limit int) ([]domain.RecentPurchaser, error) {
	const query = `
SELECT u.username, p.created_at
FROM purchases p
JOIN users u ON u.id = p.user_id
WHERE p.drop_id = $1
ORDER BY p.created_at DESC
LIMIT $2`

	rows, err := r.query(ctx, query, dropID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent purchasers: %w", err)
	}
	defer rows.Close()

	var recent []domain.RecentPurchaser
	for rows.Next() {
		var p domain.RecentPurchaser
		if err := rows.Scan(&p.Username, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan recent purchaser: %w", err)
		}
		recent = append(recent, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate recent purchasers: %w", rows.Err())
	}
	return recent, nil
}

func (r *DropRepository) FindLiveReservationByUsername(ctx context.Context, dropID, username string) (*domain.Reservation, error) {
	const query = `
SELECT r.id, r.drop_id, r.user_id, r.status, r.expires_at, r.created_at
FROM reservations r
JOIN users u ON u.id = r.user_id
WHERE r.drop_id = $1 AND u.username = $2 AND r.status = 'active'`

	var res domain.Reservation
	err := r.queryRow(ctx, query, dropID, username).
		Scan(&res.ID, &res.DropID, &res.UserID, &res.Status, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find live reservation: %w", err)
	}
	return &res, nil
}

func (r *DropRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *DropRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
