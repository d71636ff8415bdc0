package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

const (
	principalKey    = "principal"
	tokenIDKey      = "token_id"
	tokenExpiresKey = "token_expires"
)

// PrincipalFrom returns the identity set by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.UserID != ""
}

// TokenFrom returns the session id and expiry of the current request's token.
func TokenFrom(c echo.Context) (string, time.Time) {
	id, _ := c.Get(tokenIDKey).(string)
	exp, _ := c.Get(tokenExpiresKey).(time.Time)
	return id, exp
}

// WithPrincipal attaches p to the request, the same way Auth does.
func WithPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}
