package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashdrop/drop-api/internal/domain"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetOrCreateUser upserts an actor by username. The no-op DO UPDATE makes the
// RETURNING clause yield the existing row on conflict.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, username string) (domain.User, error) {
	const stmt = `
INSERT INTO users (id, username)
VALUES ($1, $2)
ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
RETURNING id, username, created_at`

	var u domain.User
	err := r.queryRow(ctx, stmt, uuid.NewString(), username).
		Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("get or create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
