package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepo)(nil)

// UserRepo persists users in the users table. Works on a pool or a tx.
type UserRepo struct {
	q Querier
}

func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return domain.Persistence("insert user", err)
	}
	return nil
}

func (r *UserRepo) Find(ctx context.Context, lookup domain.UserLookup) (*domain.User, error) {
	const columns = `SELECT id, name, email, password_hash, role, created_at, updated_at FROM users`

	var row pgx.Row
	if id, ok := lookup.ID(); ok {
		row = r.q.QueryRow(ctx, columns+` WHERE id = $1`, id)
	} else if email, ok := lookup.Email(); ok {
		row = r.q.QueryRow(ctx, columns+` WHERE email = $1`, email)
	} else {
		return nil, domain.ErrUserNotFound
	}

	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Persistence("find user "+lookup.String(), err)
	}
	return &u, nil
}
