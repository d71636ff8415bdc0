package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Claims is the session token payload. Approved is omitted from tokens that
// predate the approval flow, and absent means "not explicitly unapproved".
type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Approved *bool  `json:"approved,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request identity.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{
		UserID:   c.UserID,
		Email:    c.Email,
		Role:     domain.Role(c.Role),
		Approved: c.Approved,
	}
}

// ParseToken verifies an HS256 session token.
func ParseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// AuthService implements registration, login and sign-out.
type AuthService struct {
	users     ports.UserRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(users ports.UserRepository, revoker ports.TokenRevoker, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// Register creates an account. The very first account becomes an approved
// Administrator; every later one starts unapproved with the default role.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if len(name) < minNameLen {
		return nil, domain.NewValidationError("name must be at least 2 characters")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, domain.NewValidationError("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.DefaultRole,
		IsActive:     true,
		IsApproved:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if count == 0 {
		user.Role = domain.RoleAdmin
		user.IsApproved = true
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user", created.ID).
		Str("role", string(created.Role)).
		Bool("approved", created.IsApproved).
		Msg("user registered")

	return &ports.RegisterResult{User: created, NeedsApproval: !created.IsApproved}, nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}

	return s.issue(user)
}

// SignOut revokes the token id until the token would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	if !expiresAt.After(s.now()) {
		return nil
	}
	if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) issue(user *domain.User) (*ports.Session, error) {
	now := s.now()
	expires := now.Add(s.tokenTTL)
	approved := user.IsApproved

	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     string(user.Role),
		Approved: &approved,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	return &ports.Session{Token: signed, TokenID: claims.ID, ExpiresAt: expires, User: user}, nil
}
