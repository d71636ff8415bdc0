package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/billytalbutt/traka-launchpad/internal/api/handler"
	"github.com/billytalbutt/traka-launchpad/internal/api/middleware"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/http/handlers"

	_ "github.com/billytalbutt/traka-launchpad/docs"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	JWTSecret    string
	SecureCookie bool
	// WebRoot holds the built UI. Empty disables static serving.
	WebRoot string

	Revoker       ports.TokenRevoker
	Auth          ports.AuthService
	Tools         ports.ToolService
	Launcher      ports.LaunchService
	Users         ports.UserService
	Announcements ports.AnnouncementService
	Analytics     ports.AnalyticsService
	Services      ports.ServiceAdminService
	Health        *handlers.HealthHandler

	// UserLookup, when set, lets a pending session pick up a later approval.
	UserLookup middleware.UserLookup

	Log zerolog.Logger
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("launchpad"))

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.Health != nil {
		e.GET("/health", d.Health.Liveness)
		e.GET("/health/ready", d.Health.Readiness)
	}

	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookie)
	toolHandler := handler.NewToolHandler(d.Tools, d.Launcher)
	userHandler := handler.NewUserHandler(d.Users)
	announcementHandler := handler.NewAnnouncementHandler(d.Announcements)
	adminHandler := handler.NewAdminHandler(d.Analytics, d.Services)

	var sessionOpts []middleware.Option
	if d.UserLookup != nil {
		sessionOpts = append(sessionOpts, middleware.WithApprovalRefresh(d.UserLookup))
	}
	authn := middleware.Auth(d.JWTSecret, d.Revoker, sessionOpts...)

	// --- Sessions ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/signout", authHandler.SignOut, authn)

	// --- Authenticated, approved users ---
	api := e.Group("/api", authn, middleware.RequireApproved())
	api.GET("/tools", toolHandler.List)
	api.GET("/tools/:id", toolHandler.Get)
	api.POST("/tools/:id/favorite", toolHandler.ToggleFavorite)
	api.POST("/tools/:id/launch", toolHandler.Launch)
	api.GET("/favorites", toolHandler.Favorites)
	api.GET("/announcements", announcementHandler.Active)
	api.GET("/profile", userHandler.Profile)
	api.PUT("/profile", userHandler.UpdateProfile)

	// --- Administration ---
	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/tools", toolHandler.AdminList)
	admin.POST("/tools", toolHandler.Create)
	admin.PUT("/tools/:id", toolHandler.Update)
	admin.DELETE("/tools/:id", toolHandler.Delete)
	admin.GET("/users", userHandler.List)
	admin.PUT("/users/:id", userHandler.Update)
	admin.GET("/announcements", announcementHandler.All)
	admin.POST("/announcements", announcementHandler.Create)
	admin.PUT("/announcements/:id", announcementHandler.Update)
	admin.DELETE("/announcements/:id", announcementHandler.Delete)
	admin.GET("/analytics", adminHandler.Analytics)
	admin.GET("/services", adminHandler.Services)
	admin.GET("/services/:name", adminHandler.Service)
	admin.POST("/services/:name/action", adminHandler.ServiceAction)

	// --- UI pages ---
	if d.WebRoot != "" {
		e.Group("",
			middleware.PageGate(d.JWTSecret, d.Revoker, sessionOpts...),
			echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
				Root:    d.WebRoot,
				HTML5:   true,
				Skipper: func(c echo.Context) bool { return middleware.IsAPIPath(c.Request().URL.Path) },
			}),
		)
	}

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
