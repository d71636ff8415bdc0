package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// PageGate redirects page navigation according to policy.IsRouteAllowed.
// A missing, invalid or revoked session counts as anonymous. API paths are
// left to their own middleware.
func PageGate(jwtSecret string, revoker ports.TokenRevoker, opts ...Option) echo.MiddlewareFunc {
	o := buildOptions(opts)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if IsAPIPath(path) {
				return next(c)
			}

			var p *domain.Principal
			if token, err := tokenFromRequest(c.Request()); err == nil && token != "" {
				if claims, err := verify(c.Request().Context(), jwtSecret, revoker, token); err == nil {
					principal := o.principal(c.Request().Context(), claims)
					p = &principal
				}
			}

			d := policy.IsRouteAllowed(p, path)
			if !d.Allow {
				return c.Redirect(http.StatusFound, d.RedirectTo)
			}
			if p != nil {
				WithPrincipal(c, *p)
			}
			return next(c)
		}
	}
}

// IsAPIPath reports whether path belongs to a machine endpoint rather than a page.
func IsAPIPath(path string) bool {
	for _, pre := range []string{"/api/", "/health", "/metrics", "/swagger/"} {
		if strings.HasPrefix(path, pre) || path == strings.TrimSuffix(pre, "/") {
			return true
		}
	}
	return false
}
