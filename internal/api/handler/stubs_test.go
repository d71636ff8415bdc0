package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/api/middleware"
	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

var (
	adminPrincipal  = &domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
	memberPrincipal = &domain.Principal{UserID: "user-2", Role: domain.RoleAppSupport}
)

// newTestContext builds a request context with the validator installed and,
// when p is set, the principal the Auth middleware would have attached.
func newTestContext(method, target, body string, p *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.WithPrincipal(c, *p)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.Session, error)
	signOutFn  func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return s.signOutFn(ctx, tokenID, expiresAt)
}

type stubToolService struct {
	ports.ToolService
	listFn   func(ctx context.Context, p domain.Principal) ([]ports.ToolView, error)
	getFn    func(ctx context.Context, p domain.Principal, id string) (*ports.ToolDetail, error)
	toggleFn func(ctx context.Context, p domain.Principal, id string) (bool, error)
	createFn func(ctx context.Context, p domain.Principal, in ports.ToolInput) (*domain.Tool, error)
	deleteFn func(ctx context.Context, p domain.Principal, id string) error
}

func (s *stubToolService) ListForUser(ctx context.Context, p domain.Principal) ([]ports.ToolView, error) {
	return s.listFn(ctx, p)
}

func (s *stubToolService) Get(ctx context.Context, p domain.Principal, id string) (*ports.ToolDetail, error) {
	return s.getFn(ctx, p, id)
}

func (s *stubToolService) ToggleFavorite(ctx context.Context, p domain.Principal, id string) (bool, error) {
	return s.toggleFn(ctx, p, id)
}

func (s *stubToolService) Create(ctx context.Context, p domain.Principal, in ports.ToolInput) (*domain.Tool, error) {
	return s.createFn(ctx, p, in)
}

func (s *stubToolService) Delete(ctx context.Context, p domain.Principal, id string) error {
	return s.deleteFn(ctx, p, id)
}

type stubLaunchService struct {
	launchFn func(ctx context.Context, p domain.Principal, toolID string) (*domain.LaunchResult, error)
}

func (s *stubLaunchService) Launch(ctx context.Context, p domain.Principal, toolID string) (*domain.LaunchResult, error) {
	return s.launchFn(ctx, p, toolID)
}

type stubUserService struct {
	ports.UserService
	updateProfileFn func(ctx context.Context, p domain.Principal, in ports.ProfileInput) (*ports.Profile, error)
	updateFn        func(ctx context.Context, p domain.Principal, id string, in ports.UserAdminInput) (*ports.UserView, error)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, p domain.Principal, in ports.ProfileInput) (*ports.Profile, error) {
	return s.updateProfileFn(ctx, p, in)
}

func (s *stubUserService) Update(ctx context.Context, p domain.Principal, id string, in ports.UserAdminInput) (*ports.UserView, error) {
	return s.updateFn(ctx, p, id, in)
}

type stubAnnouncementService struct {
	ports.AnnouncementService
	activeFn func(ctx context.Context) ([]*domain.Announcement, error)
	createFn func(ctx context.Context, p domain.Principal, in ports.AnnouncementInput) (*domain.Announcement, error)
}

func (s *stubAnnouncementService) Active(ctx context.Context) ([]*domain.Announcement, error) {
	return s.activeFn(ctx)
}

func (s *stubAnnouncementService) Create(ctx context.Context, p domain.Principal, in ports.AnnouncementInput) (*domain.Announcement, error) {
	return s.createFn(ctx, p, in)
}

type stubServiceAdmin struct {
	getFn     func(ctx context.Context, p domain.Principal, name string, withLogs bool) (*ports.ServiceDetail, error)
	performFn func(ctx context.Context, p domain.Principal, name, action string) (*ports.ServiceView, error)
}

func (s *stubServiceAdmin) List(ctx context.Context, p domain.Principal) ([]ports.ServiceView, error) {
	return nil, nil
}

func (s *stubServiceAdmin) Get(ctx context.Context, p domain.Principal, name string, withLogs bool) (*ports.ServiceDetail, error) {
	return s.getFn(ctx, p, name, withLogs)
}

func (s *stubServiceAdmin) Perform(ctx context.Context, p domain.Principal, name, action string) (*ports.ServiceView, error) {
	return s.performFn(ctx, p, name, action)
}

type stubAnalytics struct {
	summary *ports.AnalyticsSummary
	err     error
}

func (s *stubAnalytics) Summary(ctx context.Context, p domain.Principal) (*ports.AnalyticsSummary, error) {
	return s.summary, s.err
}
