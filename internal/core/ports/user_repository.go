package ports

import (
	"context"

	"github.com/storefront/store-api/internal/core/domain"
)

// UserRepository persists accounts. Create returns domain.ErrUserExists on a
// duplicate email; Find returns domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Find(ctx context.Context, lookup domain.UserLookup) (*domain.User, error)
}
