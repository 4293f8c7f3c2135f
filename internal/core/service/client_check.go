package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// ClientChecker confirms that a caller may purchase on behalf of a client.
// It only reads.
type ClientChecker struct {
	users ports.UserRepository
}

func NewClientChecker(users ports.UserRepository) *ClientChecker {
	return &ClientChecker{users: users}
}

// Check returns the resolved client. A caller acting for someone else gets
// domain.ErrIdentityMismatch before any lookup; an unknown user or a
// non-client role gets domain.ErrNotEligible.
func (c *ClientChecker) Check(ctx context.Context, caller ports.Caller, clientID uuid.UUID) (*domain.User, error) {
	if caller.UserID != clientID {
		return nil, domain.ErrIdentityMismatch
	}
	if caller.Role != domain.RoleClient {
		return nil, domain.ErrNotEligible
	}

	user, err := c.users.Find(ctx, domain.ByID(clientID))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotEligible
		}
		return nil, err
	}
	if !user.IsClient() {
		return nil, domain.ErrNotEligible
	}
	return user, nil
}
