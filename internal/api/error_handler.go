package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// errorResponse is the error envelope of every API failure.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler maps domain errors to status codes and logs anything it
// does not recognise without leaking it to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: ve.Msg}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthenticated.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: domain.ErrInvalidCredentials.Error()}
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrPendingApproval),
		errors.Is(err, domain.ErrInactiveUser):
		return http.StatusForbidden, errorResponse{Error: rootMessage(err)}
	case errors.Is(err, domain.ErrToolNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAnnouncementNotFound),
		errors.Is(err, domain.ErrServiceNotFound):
		return http.StatusNotFound, errorResponse{Error: rootMessage(err)}
	case errors.Is(err, domain.ErrSelfDemotion), errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrToolExists):
		return http.StatusConflict, errorResponse{Error: rootMessage(err)}
	case errors.Is(err, domain.ErrServiceAccessDenied):
		return http.StatusInternalServerError, errorResponse{Error: domain.ErrServiceAccessDenied.Error(), Code: "access_denied"}
	case errors.Is(err, domain.ErrExternalAction), errors.Is(err, domain.ErrVaultUnavailable):
		log.Warn().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("external action failed")
		return http.StatusInternalServerError, errorResponse{Error: err.Error()}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

var knownErrors = []error{
	domain.ErrForbidden,
	domain.ErrPendingApproval,
	domain.ErrInactiveUser,
	domain.ErrToolNotFound,
	domain.ErrUserNotFound,
	domain.ErrAnnouncementNotFound,
	domain.ErrServiceNotFound,
	domain.ErrUserExists,
	domain.ErrToolExists,
}

// rootMessage returns the sentinel's text so wrapped ids and causes stay server-side.
func rootMessage(err error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
