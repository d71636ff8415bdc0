package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access forbidden")
	ErrPendingApproval = errors.New("account pending approval")
	ErrInactiveUser    = errors.New("account is disabled")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already registered")
	ErrSelfDemotion       = errors.New("cannot change your own role")
	ErrInvalidRole        = errors.New("invalid role")

	ErrToolNotFound = errors.New("tool not found")
	ErrToolExists   = errors.New("tool already exists")

	ErrAnnouncementNotFound = errors.New("announcement not found")

	ErrServiceNotFound     = errors.New("service not configured")
	ErrServiceAccessDenied = errors.New("access denied: the launchpad must run as Administrator to control services")
	ErrExternalAction      = errors.New("external action failed")

	ErrDecryption       = errors.New("credential decryption failed")
	ErrVaultUnavailable = errors.New("credential vault is not configured")
)

// ValidationError reports the first violated input constraint.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}
