package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// AnnouncementService manages dashboard banners.
type AnnouncementService struct {
	repo  ports.AnnouncementRepository
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewAnnouncementService(repo ports.AnnouncementRepository, users ports.UserRepository, log zerolog.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, users: users, log: log, now: time.Now}
}

// Active returns the banners end users currently see, newest first.
func (s *AnnouncementService) Active(ctx context.Context) ([]*domain.Announcement, error) {
	now := s.now().UTC()
	list, err := s.repo.List(ctx, &now)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, list), nil
}

// All returns every announcement including inactive and expired ones.
func (s *AnnouncementService) All(ctx context.Context, p domain.Principal) ([]*domain.Announcement, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	list, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, list), nil
}

func (s *AnnouncementService) Create(ctx context.Context, p domain.Principal, in ports.AnnouncementInput) (*domain.Announcement, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return nil, domain.NewValidationError("content is required")
	}

	a := &domain.Announcement{
		ID:        uuid.NewString(),
		Type:      domain.AnnouncementInfo,
		IsActive:  true,
		CreatedBy: p.UserID,
		CreatedAt: s.now().UTC(),
	}
	if err := applyAnnouncement(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("announcement", a.ID).Str("admin", p.UserID).Msg("announcement created")
	return a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, p domain.Principal, id string, in ports.AnnouncementInput) (*domain.Announcement, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, domain.NewValidationError("title must not be empty")
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return nil, domain.NewValidationError("content must not be empty")
	}

	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyAnnouncement(a, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info().Str("announcement", id).Str("admin", p.UserID).Msg("announcement updated")
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if !policy.RequireAdmin(p) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("announcement", id).Str("admin", p.UserID).Msg("announcement deleted")
	return nil
}

func applyAnnouncement(a *domain.Announcement, in ports.AnnouncementInput) error {
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Type != nil {
		t := domain.AnnouncementType(strings.ToUpper(strings.TrimSpace(*in.Type)))
		if !t.Valid() {
			return domain.NewValidationError(fmt.Sprintf("type must be one of INFO, WARNING, UPDATE, NEW (got %q)", *in.Type))
		}
		a.Type = t
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	switch {
	case in.ClearExpiry:
		a.ExpiresAt = nil
	case in.ExpiresAt != nil:
		exp := in.ExpiresAt.UTC()
		a.ExpiresAt = &exp
	}
	return nil
}

// withAuthors joins the author's display name; missing authors are left blank.
func (s *AnnouncementService) withAuthors(ctx context.Context, list []*domain.Announcement) []*domain.Announcement {
	names := make(map[string]string)
	for _, a := range list {
		if a.CreatedBy == "" {
			continue
		}
		name, ok := names[a.CreatedBy]
		if !ok {
			if u, err := s.users.FindByID(ctx, a.CreatedBy); err == nil {
				name = u.Name
			}
			names[a.CreatedBy] = name
		}
		a.AuthorName = name
	}
	return list
}
