package domain

import "time"

// User models an account of the launchpad.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Image          string    `json:"image,omitempty"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"isActive"`
	IsApproved     bool      `json:"isApproved"`
	TrakaWebURL    string    `json:"trakaWebUrl,omitempty"`
	RDPHost        string    `json:"rdpHost,omitempty"`
	RDPUsername    string    `json:"rdpUsername,omitempty"`
	RDPPasswordEnc string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the Administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRDPProfile reports whether host, username and the stored password are all set.
func (u *User) HasRDPProfile() bool {
	return u.RDPHost != "" && u.RDPUsername != "" && u.RDPPasswordEnc != ""
}

// Principal is the authenticated identity attached to a request.
// Approved is nil for sessions issued before approval existed.
type Principal struct {
	UserID   string
	Email    string
	Role     Role
	Approved *bool
}

// IsAdmin reports whether the principal holds the Administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ExplicitlyUnapproved is true only when the approval flag is present and false.
func (p Principal) ExplicitlyUnapproved() bool {
	return p.Approved != nil && !*p.Approved
}
