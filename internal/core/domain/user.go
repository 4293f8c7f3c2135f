package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User models an authenticated actor in the system.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClientProfile is the public projection of a user attached to purchase views.
type ClientProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Profile() ClientProfile {
	return ClientProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// IsClient reports whether the user may place purchases.
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}

type lookupKind uint8

const (
	lookupByID lookupKind = iota + 1
	lookupByEmail
)

// UserLookup selects a single user either by identifier or by email.
// The zero value selects nothing; build one with ByID or ByEmail.
type UserLookup struct {
	kind  lookupKind
	id    uuid.UUID
	email string
}

func ByID(id uuid.UUID) UserLookup {
	return UserLookup{kind: lookupByID, id: id}
}

// ByEmail normalises the address to lower case, matching how emails are stored.
func ByEmail(email string) UserLookup {
	return UserLookup{kind: lookupByEmail, email: strings.ToLower(strings.TrimSpace(email))}
}

func (l UserLookup) ID() (uuid.UUID, bool) {
	return l.id, l.kind == lookupByID
}

func (l UserLookup) Email() (string, bool) {
	return l.email, l.kind == lookupByEmail
}

func (l UserLookup) String() string {
	switch l.kind {
	case lookupByID:
		return "id=" + l.id.String()
	case lookupByEmail:
		return "email=" + l.email
	default:
		return "empty"
	}
}
