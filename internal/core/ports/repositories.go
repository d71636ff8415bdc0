package ports

import (
	"context"
	"time"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
}

// UserPatch carries optional field updates; nil fields are left untouched.
// RDPPasswordEnc is already encrypted by the caller.
type UserPatch struct {
	Role           *domain.Role
	IsActive       *bool
	IsApproved     *bool
	TrakaWebURL    *string
	RDPHost        *string
	RDPUsername    *string
	RDPPasswordEnc *string
}

// ToolRepository persists dashboard tools.
type ToolRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Tool, error)
	// List returns tools ordered by sort order; activeOnly hides disabled tools.
	List(ctx context.Context, activeOnly bool) ([]*domain.Tool, error)
	Create(ctx context.Context, tool *domain.Tool) error
	Update(ctx context.Context, id string, patch ToolPatch) (*domain.Tool, error)
	Delete(ctx context.Context, id string) error
}

// ToolPatch carries optional tool field updates. The id is never patched.
type ToolPatch struct {
	Name         *string
	Description  *string
	IconName     *string
	Color        *string
	LaunchType   *domain.LaunchType
	LaunchURL    *string
	Category     *string
	Version      *string
	SortOrder    *int
	IsActive     *bool
	AllowedRoles *domain.RoleSet
	HelpText     *string
}

// FavoriteRepository persists (user, tool) pins; uniqueness is enforced by the store.
type FavoriteRepository interface {
	// Toggle flips the pin and reports the new state.
	Toggle(ctx context.Context, userID, toolID string) (bool, error)
	ToolIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// ToolLaunchCount pairs a tool with its launch total.
type ToolLaunchCount struct {
	ToolID   string
	Launches int64
}

// DailyLaunchCount is one point of the launches time series.
type DailyLaunchCount struct {
	Date     string
	Launches int64
}

// LaunchRepository is the append-only launch ledger.
type LaunchRepository interface {
	Record(ctx context.Context, launch *domain.ToolLaunch) error
	CountByTool(ctx context.Context) (map[string]int64, error)
	CountByUser(ctx context.Context) (map[string]int64, error)
	Count(ctx context.Context, since time.Time) (int64, error)
	DistinctUsers(ctx context.Context, since time.Time) (int64, error)
	TopTools(ctx context.Context, limit int) ([]ToolLaunchCount, error)
	Daily(ctx context.Context, since time.Time) ([]DailyLaunchCount, error)
	Recent(ctx context.Context, limit int) ([]*domain.ToolLaunch, error)
}

// AnnouncementRepository persists banner announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	FindByID(ctx context.Context, id string) (*domain.Announcement, error)
	// List returns announcements newest first; visibleAt filters to active, unexpired ones when non-nil.
	List(ctx context.Context, visibleAt *time.Time) ([]*domain.Announcement, error)
	Update(ctx context.Context, a *domain.Announcement) error
	Delete(ctx context.Context, id string) error
}

// TokenRevoker stores signed-out session ids until their natural expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
