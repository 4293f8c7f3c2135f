package ports

import (
	"context"

	"github.com/storefront/store-api/internal/core/domain"
)

// RegisterInput carries a new account. An empty Role defaults to admin.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
