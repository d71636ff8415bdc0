package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
	"github.com/billytalbutt/traka-launchpad/internal/core/service"
)

// SessionCookie carries the session token for browser navigation.
const SessionCookie = "launchpad_session"

// UserLookup resolves the stored account behind a session.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type sessionOptions struct {
	users UserLookup
}

// Option tunes session verification.
type Option func(*sessionOptions)

// WithApprovalRefresh re-reads the account of a session issued while it was
// still pending, so an approval takes effect without signing in again.
func WithApprovalRefresh(users UserLookup) Option {
	return func(o *sessionOptions) { o.users = users }
}

func buildOptions(opts []Option) sessionOptions {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Auth validates the session token (bearer header or cookie), rejects revoked
// sessions and injects the principal into the context.
func Auth(jwtSecret string, revoker ports.TokenRevoker, opts ...Option) echo.MiddlewareFunc {
	o := buildOptions(opts)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFromRequest(c.Request())
			if err != nil {
				return err
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}

			claims, err := verify(c.Request().Context(), jwtSecret, revoker, token)
			if err != nil {
				return err
			}

			WithPrincipal(c, o.principal(c.Request().Context(), claims))
			c.Set(tokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(tokenExpiresKey, claims.ExpiresAt.Time)
			}
			return next(c)
		}
	}
}

// tokenFromRequest prefers the Authorization header and falls back to the session cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if ck, err := r.Cookie(SessionCookie); err == nil {
		return ck.Value, nil
	}
	return "", nil
}

func verify(ctx context.Context, jwtSecret string, revoker ports.TokenRevoker, token string) (*service.Claims, error) {
	claims, err := service.ParseToken(jwtSecret, token)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	if claims.ID != "" && revoker != nil {
		revoked, err := revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "session has been signed out")
		}
	}
	return claims, nil
}

// principal builds the request principal. A pending claim is checked against
// the stored account; lookup failures keep the claim as issued.
func (o sessionOptions) principal(ctx context.Context, claims *service.Claims) domain.Principal {
	p := claims.Principal()
	if o.users == nil || !p.ExplicitlyUnapproved() {
		return p
	}
	user, err := o.users.FindByID(ctx, p.UserID)
	if err != nil || !user.IsApproved {
		return p
	}
	approved := true
	p.Approved = &approved
	return p
}
