package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// UserService manages accounts for administrators and launch profiles for everyone.
type UserService struct {
	users    ports.UserRepository
	launches ports.LaunchRepository
	vault    ports.CredentialVault
	log      zerolog.Logger
}

func NewUserService(users ports.UserRepository, launches ports.LaunchRepository, vault ports.CredentialVault, log zerolog.Logger) *UserService {
	return &UserService{users: users, launches: launches, vault: vault, log: log}
}

// List returns every account with its launch count.
func (s *UserService) List(ctx context.Context, p domain.Principal) ([]ports.UserView, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.launches.CountByUser(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ports.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, userView(u, counts[u.ID]))
	}
	return out, nil
}

// Update applies an administrator's changes to another (or their own) account.
// An administrator can never demote themselves.
func (s *UserService) Update(ctx context.Context, p domain.Principal, id string, in ports.UserAdminInput) (*ports.UserView, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}

	patch, err := s.profilePatch(in.ProfileInput)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		role, err := domain.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		if id == p.UserID && role != domain.RoleAdmin {
			return nil, domain.ErrSelfDemotion
		}
		patch.Role = &role
	}
	patch.IsActive = in.IsActive
	patch.IsApproved = in.IsApproved

	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user", id).Str("admin", p.UserID).Msg("user updated")

	view := userView(updated, 0)
	return &view, nil
}

// Profile returns the caller's launch settings.
func (s *UserService) Profile(ctx context.Context, p domain.Principal) (*ports.Profile, error) {
	user, err := s.self(ctx, p)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// UpdateProfile changes the caller's own launch settings.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, in ports.ProfileInput) (*ports.Profile, error) {
	if _, err := s.self(ctx, p); err != nil {
		return nil, err
	}
	patch, err := s.profilePatch(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.Update(ctx, p.UserID, patch)
	if err != nil {
		return nil, err
	}
	return profileOf(updated), nil
}

func (s *UserService) self(ctx context.Context, p domain.Principal) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return user, nil
}

// profilePatch trims the text fields and encrypts a new password. An empty
// password clears the stored one.
func (s *UserService) profilePatch(in ports.ProfileInput) (ports.UserPatch, error) {
	var patch ports.UserPatch
	patch.TrakaWebURL = trimmed(in.TrakaWebURL)
	patch.RDPHost = trimmed(in.RDPHost)
	patch.RDPUsername = trimmed(in.RDPUsername)

	if in.RDPPassword != nil {
		enc := ""
		if *in.RDPPassword != "" {
			var err error
			enc, err = s.vault.Encrypt(*in.RDPPassword)
			if err != nil {
				return patch, err
			}
		}
		patch.RDPPasswordEnc = &enc
	}
	return patch, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func profileOf(u *domain.User) *ports.Profile {
	return &ports.Profile{
		TrakaWebURL:    u.TrakaWebURL,
		RDPHost:        u.RDPHost,
		RDPUsername:    u.RDPUsername,
		RDPPasswordSet: u.RDPPasswordEnc != "",
	}
}

func userView(u *domain.User, launches int64) ports.UserView {
	return ports.UserView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Image:          u.Image,
		Role:           u.Role,
		IsActive:       u.IsActive,
		IsApproved:     u.IsApproved,
		TrakaWebURL:    u.TrakaWebURL,
		RDPHost:        u.RDPHost,
		RDPUsername:    u.RDPUsername,
		RDPPasswordSet: u.RDPPasswordEnc != "",
		LaunchCount:    launches,
		CreatedAt:      u.CreatedAt,
	}
}
