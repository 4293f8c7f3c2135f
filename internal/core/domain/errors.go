package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrIdentityMismatch  = errors.New("client id does not match the authenticated user")
	ErrNotEligible       = errors.New("user is not eligible to purchase")
	ErrProductNotFound   = errors.New("product not found")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrEmptyResult       = errors.New("no results found")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidTransition = errors.New("invalid purchase state transition")
	ErrPurchaseInFlight  = errors.New("a purchase with this idempotency key is still in progress")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrProductInUse       = errors.New("product is referenced by purchases")
)

// ProductNotFoundError names the product a lookup failed for.
// It matches ErrProductNotFound with errors.Is.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

func ProductNotFound(id uuid.UUID) error {
	return &ProductNotFoundError{ProductID: id}
}

// InvalidRequest wraps ErrInvalidRequest with a caller-facing reason.
func InvalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}

// Persistence wraps a store failure so it matches ErrPersistence while keeping
// the driver error reachable through errors.As.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
