package ports

import (
	"context"
	"time"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// RegisterInput carries a self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult reports the created account and whether it awaits approval.
type RegisterResult struct {
	User          *domain.User
	NeedsApproval bool
}

// Session is an issued login token.
type Session struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService issues and revokes sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// ToolView is a tool as seen by one user.
type ToolView struct {
	*domain.Tool
	IsFavorite  bool  `json:"isFavorite"`
	LaunchCount int64 `json:"launchCount"`
}

// ToolDetail adds the parsed help sections.
type ToolDetail struct {
	ToolView
	HelpSections []domain.HelpSection `json:"helpSections"`
}

// ToolInput is the admin create/update payload; nil fields are left untouched on update.
type ToolInput struct {
	Name         *string
	Description  *string
	IconName     *string
	Color        *string
	LaunchType   *string
	LaunchURL    *string
	Category     *string
	Version      *string
	SortOrder    *int
	IsActive     *bool
	AllowedRoles *[]string
	HelpText     *string
}

// ToolService exposes the dashboard catalogue and its administration.
type ToolService interface {
	ListForUser(ctx context.Context, p domain.Principal) ([]ToolView, error)
	Favorites(ctx context.Context, p domain.Principal) ([]ToolView, error)
	Get(ctx context.Context, p domain.Principal, id string) (*ToolDetail, error)
	ToggleFavorite(ctx context.Context, p domain.Principal, toolID string) (bool, error)

	ListAll(ctx context.Context, p domain.Principal) ([]*domain.Tool, error)
	Create(ctx context.Context, p domain.Principal, in ToolInput) (*domain.Tool, error)
	Update(ctx context.Context, p domain.Principal, id string, in ToolInput) (*domain.Tool, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
}

// LaunchService is the Tool Launch Orchestrator.
type LaunchService interface {
	Launch(ctx context.Context, p domain.Principal, toolID string) (*domain.LaunchResult, error)
}

// Profile is the self-service view of a user's launch settings. The password is never echoed.
type Profile struct {
	TrakaWebURL    string `json:"trakaWebUrl"`
	RDPHost        string `json:"rdpHost"`
	RDPUsername    string `json:"rdpUsername"`
	RDPPasswordSet bool   `json:"rdpPasswordSet"`
}

// ProfileInput updates launch settings. A nil field is unchanged, an empty string clears it.
type ProfileInput struct {
	TrakaWebURL *string
	RDPHost     *string
	RDPUsername *string
	RDPPassword *string
}

// UserAdminInput is the administrator's user update.
type UserAdminInput struct {
	ProfileInput
	Role       *string
	IsActive   *bool
	IsApproved *bool
}

// UserView is a user row on the admin screen.
type UserView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Image          string      `json:"image,omitempty"`
	Role           domain.Role `json:"role"`
	IsActive       bool        `json:"isActive"`
	IsApproved     bool        `json:"isApproved"`
	TrakaWebURL    string      `json:"trakaWebUrl"`
	RDPHost        string      `json:"rdpHost"`
	RDPUsername    string      `json:"rdpUsername"`
	RDPPasswordSet bool        `json:"rdpPasswordSet"`
	LaunchCount    int64       `json:"launchCount"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// UserService manages accounts and launch profiles.
type UserService interface {
	List(ctx context.Context, p domain.Principal) ([]UserView, error)
	Update(ctx context.Context, p domain.Principal, id string, in UserAdminInput) (*UserView, error)
	Profile(ctx context.Context, p domain.Principal) (*Profile, error)
	UpdateProfile(ctx context.Context, p domain.Principal, in ProfileInput) (*Profile, error)
}

// AnnouncementInput is the admin create/update payload.
type AnnouncementInput struct {
	Title     *string
	Content   *string
	Type      *string
	IsActive  *bool
	ExpiresAt *time.Time
	// ClearExpiry removes an existing expiry on update.
	ClearExpiry bool
}

// AnnouncementService manages dashboard banners.
type AnnouncementService interface {
	Active(ctx context.Context) ([]*domain.Announcement, error)
	All(ctx context.Context, p domain.Principal) ([]*domain.Announcement, error)
	Create(ctx context.Context, p domain.Principal, in AnnouncementInput) (*domain.Announcement, error)
	Update(ctx context.Context, p domain.Principal, id string, in AnnouncementInput) (*domain.Announcement, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
}

// PopularTool is one leaderboard row.
type PopularTool struct {
	ToolID   string `json:"toolId"`
	Name     string `json:"name"`
	Launches int64  `json:"launches"`
	Color    string `json:"color"`
}

// ChartPoint is one day of the launches time series.
type ChartPoint struct {
	Date     string `json:"date"`
	Launches int64  `json:"launches"`
}

// ActivityItem is one recent launch with names joined in.
type ActivityItem struct {
	UserName   string    `json:"userName"`
	UserEmail  string    `json:"userEmail"`
	ToolID     string    `json:"toolId"`
	ToolName   string    `json:"toolName"`
	ToolColor  string    `json:"toolColor"`
	LaunchedAt time.Time `json:"launchedAt"`
}

// AnalyticsSummary is the admin analytics payload.
type AnalyticsSummary struct {
	TotalLaunches  int64          `json:"totalLaunches"`
	RecentLaunches int64          `json:"recentLaunches"`
	TotalUsers     int64          `json:"totalUsers"`
	ActiveUsers    int64          `json:"activeUsers"`
	PopularTools   []PopularTool  `json:"popularTools"`
	ChartData      []ChartPoint   `json:"chartData"`
	RecentActivity []ActivityItem `json:"recentActivity"`
}

// AnalyticsService aggregates the launch ledger.
type AnalyticsService interface {
	Summary(ctx context.Context, p domain.Principal) (*AnalyticsSummary, error)
}

// ServiceView is a catalog entry merged with its live state.
type ServiceView struct {
	domain.ServiceConfig
	Status    domain.ServiceStatus `json:"status"`
	StartType string               `json:"startType"`
	Exists    bool                 `json:"exists"`
	Error     string               `json:"error,omitempty"`
}

// ServiceDetail adds recent event-log entries when requested.
type ServiceDetail struct {
	ServiceView
	Logs []domain.LogEntry `json:"logs,omitempty"`
}

// ServiceAdminService is the administrator's view of the service control plane.
type ServiceAdminService interface {
	List(ctx context.Context, p domain.Principal) ([]ServiceView, error)
	Get(ctx context.Context, p domain.Principal, name string, withLogs bool) (*ServiceDetail, error)
	Perform(ctx context.Context, p domain.Principal, name, action string) (*ServiceView, error)
}
