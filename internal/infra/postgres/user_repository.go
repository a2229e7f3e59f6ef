package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserRepository persists registered players.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, username, email, hashedPassword string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (username, email, hashed_password) VALUES ($1, $2, $3)`,
		username, email, hashedPassword)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// Find looks a user up by username or email, matching the login contract.
func (r *UserRepository) Find(ctx context.Context, usernameOrEmail string) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, hashed_password FROM users WHERE username=$1 OR email=$1`,
		usernameOrEmail).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
