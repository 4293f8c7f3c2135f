package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleAdmin
	}
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, domain.InvalidRequest("name is required")
	case len(in.Password) < minPasswordLength:
		return nil, domain.InvalidRequest("password must be at least 6 characters")
	case !domain.ValidRole(role):
		return nil, domain.InvalidRequest("role must be one of: admin client")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, domain.InvalidRequest("email must be a valid email")
	}

	lookup := domain.ByEmail(in.Email)
	if _, err := s.repo.Find(ctx, lookup); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	email, _ := lookup.Email()
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", role).Msg("user registered")
	return user, nil
}

// Login verifies the credentials and issues a signed token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.Find(ctx, domain.ByEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
