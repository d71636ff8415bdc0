package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/api/middleware"
	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// principal returns the caller identity. Its absence means the route was
// mounted without the Auth middleware, which is treated as unauthenticated.
func principal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}
