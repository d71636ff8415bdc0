package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const (
	defaultIcon     = "wrench"
	defaultCategory = "General"
)

// ToolService serves the role-filtered catalogue, favorites and tool administration.
type ToolService struct {
	tools     ports.ToolRepository
	favorites ports.FavoriteRepository
	launches  ports.LaunchRepository
	log       zerolog.Logger
	now       func() time.Time
}

func NewToolService(tools ports.ToolRepository, favorites ports.FavoriteRepository, launches ports.LaunchRepository, log zerolog.Logger) *ToolService {
	return &ToolService{tools: tools, favorites: favorites, launches: launches, log: log, now: time.Now}
}

// ListForUser returns active tools visible to the caller with favorite and launch counts joined in.
func (s *ToolService) ListForUser(ctx context.Context, p domain.Principal) ([]ports.ToolView, error) {
	tools, err := s.tools.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, p, policy.FilterVisible(p.Role, tools), false)
}

// Favorites returns only the visible tools the caller pinned.
func (s *ToolService) Favorites(ctx context.Context, p domain.Principal) ([]ports.ToolView, error) {
	tools, err := s.tools.List(ctx, true)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, p, policy.FilterVisible(p.Role, tools), true)
}

func (s *ToolService) views(ctx context.Context, p domain.Principal, tools []*domain.Tool, favoritesOnly bool) ([]ports.ToolView, error) {
	favs, err := s.favorites.ToolIDs(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	counts, err := s.launches.CountByTool(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ports.ToolView, 0, len(tools))
	for _, t := range tools {
		if favoritesOnly && !favs[t.ID] {
			continue
		}
		out = append(out, ports.ToolView{Tool: t, IsFavorite: favs[t.ID], LaunchCount: counts[t.ID]})
	}
	return out, nil
}

// Get returns one visible tool with parsed help sections. Tools the caller
// cannot see are reported as not found.
func (s *ToolService) Get(ctx context.Context, p domain.Principal, id string) (*ports.ToolDetail, error) {
	tool, err := s.tools.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && (!tool.IsActive || !policy.CanViewTool(p.Role, tool)) {
		return nil, domain.ErrToolNotFound
	}

	views, err := s.views(ctx, p, []*domain.Tool{tool}, false)
	if err != nil {
		return nil, err
	}
	return &ports.ToolDetail{ToolView: views[0], HelpSections: domain.ParseHelpText(tool.HelpText)}, nil
}

// ToggleFavorite flips the caller's pin on a visible tool.
func (s *ToolService) ToggleFavorite(ctx context.Context, p domain.Principal, toolID string) (bool, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return false, err
	}
	if !policy.CanViewTool(p.Role, tool) {
		return false, domain.ErrToolNotFound
	}
	return s.favorites.Toggle(ctx, p.UserID, tool.ID)
}

// ListAll returns every tool including inactive ones.
func (s *ToolService) ListAll(ctx context.Context, p domain.Principal) ([]*domain.Tool, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	return s.tools.List(ctx, false)
}

// Create adds a tool whose id is derived from its name.
func (s *ToolService) Create(ctx context.Context, p domain.Principal, in ports.ToolInput) (*domain.Tool, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name is required")
	}
	patch, err := toolPatch(in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tool := &domain.Tool{
		ID:         domain.ToolIDFromName(*in.Name),
		IconName:   defaultIcon,
		LaunchType: domain.LaunchWeb,
		Category:   defaultCategory,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyToolPatch(tool, patch)
	if tool.Description == "" {
		return nil, domain.NewValidationError("description is required")
	}

	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, err
	}
	s.log.Info().Str("tool", tool.ID).Str("admin", p.UserID).Msg("tool created")
	return tool, nil
}

// Update patches a tool. The id never changes, even on rename.
func (s *ToolService) Update(ctx context.Context, p domain.Principal, id string, in ports.ToolInput) (*domain.Tool, error) {
	if !policy.RequireAdmin(p) {
		return nil, domain.ErrForbidden
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.NewValidationError("name must not be empty")
	}
	patch, err := toolPatch(in)
	if err != nil {
		return nil, err
	}
	tool, err := s.tools.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("tool", id).Str("admin", p.UserID).Msg("tool updated")
	return tool, nil
}

func (s *ToolService) Delete(ctx context.Context, p domain.Principal, id string) error {
	if !policy.RequireAdmin(p) {
		return domain.ErrForbidden
	}
	if err := s.tools.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("tool", id).Str("admin", p.UserID).Msg("tool deleted")
	return nil
}

func toolPatch(in ports.ToolInput) (ports.ToolPatch, error) {
	patch := ports.ToolPatch{
		Description: in.Description,
		IconName:    in.IconName,
		Color:       in.Color,
		LaunchURL:   in.LaunchURL,
		Category:    in.Category,
		Version:     in.Version,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
		HelpText:    in.HelpText,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		patch.Name = &name
	}
	if in.LaunchType != nil {
		lt := domain.LaunchType(strings.ToUpper(strings.TrimSpace(*in.LaunchType)))
		if !lt.Valid() {
			return patch, domain.NewValidationError(fmt.Sprintf("launchType must be one of WEB, DESKTOP, PROTOCOL (got %q)", *in.LaunchType))
		}
		patch.LaunchType = &lt
	}
	if in.AllowedRoles != nil {
		roles, err := domain.ParseRoleSet(*in.AllowedRoles)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidRole) {
				return patch, domain.NewValidationError("allowedRoles: " + err.Error())
			}
			return patch, err
		}
		patch.AllowedRoles = &roles
	}
	return patch, nil
}

func applyToolPatch(t *domain.Tool, p ports.ToolPatch) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IconName != nil {
		t.IconName = *p.IconName
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.LaunchType != nil {
		t.LaunchType = *p.LaunchType
	}
	if p.LaunchURL != nil {
		t.LaunchURL = *p.LaunchURL
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Version != nil {
		t.Version = *p.Version
	}
	if p.SortOrder != nil {
		t.SortOrder = *p.SortOrder
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if p.AllowedRoles != nil {
		t.AllowedRoles = *p.AllowedRoles
	}
	if p.HelpText != nil {
		t.HelpText = *p.HelpText
	}
}
