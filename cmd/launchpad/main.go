package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/api"
	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/service"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/config"
	mongostore "github.com/billytalbutt/traka-launchpad/internal/infrastructure/db/mongo"
	redisstore "github.com/billytalbutt/traka-launchpad/internal/infrastructure/db/redis"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/desktop"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/http/handlers"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/job"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/vault"
	"github.com/billytalbutt/traka-launchpad/internal/infrastructure/winsvc"
	"github.com/billytalbutt/traka-launchpad/pkg/logger"
	"github.com/billytalbutt/traka-launchpad/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// @title                       Traka Launchpad API
// @version                     1.0
// @description                 Internal tool launchpad: catalogue, launches, administration and Windows service control.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "launchpad",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("launchpad stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	v, err := vault.New(cfg.RDPEncryptionKey)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	catalog, err := loadCatalog(cfg.Services.CatalogPath, log)
	if err != nil {
		return err
	}

	// --- Adapters ---
	users := mongostore.NewUserRepository(db)
	tools := mongostore.NewToolRepository(db)
	favorites := mongostore.NewFavoriteRepository(db)
	launches := mongostore.NewLaunchRepository(db)
	announcements := mongostore.NewAnnouncementRepository(db)
	revocations := redisstore.NewRevocations(rdb)
	host := desktop.NewHost(logger.Component("desktop"))
	controller := winsvc.NewController(catalog, winsvc.NewPowerShell(cfg.Services.ShellPath), winsvc.Options{
		StatusTimeout: cfg.Services.StatusTimeout,
		ActionTimeout: cfg.Services.ActionTimeout,
	}, logger.Component("winsvc"))

	// --- Use cases ---
	authService := service.NewAuthService(users, revocations, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	toolService := service.NewToolService(tools, favorites, launches, logger.Component("tools"))
	launchService := service.NewLaunchService(tools, users, launches, v, host, launchConfig(cfg), logger.Component("launch"))
	userService := service.NewUserService(users, launches, v, logger.Component("users"))
	announcementService := service.NewAnnouncementService(announcements, users, logger.Component("announcements"))
	analyticsService := service.NewAnalyticsService(launches, users, tools, logger.Component("analytics"))
	serviceAdmin := service.NewServiceAdmin(controller, logger.Component("services"))

	// --- Scheduler ---
	var statusJob *job.ServiceStatusJob
	if len(catalog) > 0 {
		statusJob = job.NewServiceStatusJob(controller, metrics.ServiceUp, logger.Component("job"))
	}
	scheduler, err := job.NewScheduler(cfg.Services.PollSchedule, statusJob, logger.Component("cron"))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	e := api.NewRouter(api.Deps{
		JWTSecret:     cfg.JWTSecret,
		SecureCookie:  !cfg.IsDevelopment(),
		WebRoot:       cfg.WebRoot,
		Revoker:       revocations,
		UserLookup:    users,
		Auth:          authService,
		Tools:         toolService,
		Launcher:      launchService,
		Users:         userService,
		Announcements: announcementService,
		Analytics:     analyticsService,
		Services:      serviceAdmin,
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		}),
		Log: logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Int("services", len(catalog)).Msg("launchpad listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

// loadCatalog tolerates a missing catalog file so the launchpad still runs on
// hosts without managed services.
func loadCatalog(path string, log zerolog.Logger) ([]domain.ServiceConfig, error) {
	catalog, err := winsvc.LoadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("service catalog not found, service control disabled")
		return nil, nil
	}
	return catalog, err
}

func launchConfig(cfg *config.Config) service.LaunchConfig {
	bundle := service.DefaultBundleConfig()
	bundle.BackendEntry = cfg.Bundle.BackendEntry
	bundle.BackendCmd = cfg.Bundle.BackendCmd
	bundle.FrontendDir = cfg.Bundle.FrontendDir
	bundle.BackendAddr = cfg.Bundle.BackendAddr
	bundle.FrontendAddr = cfg.Bundle.FrontendAddr
	bundle.FrontendURL = cfg.Bundle.FrontendURL
	bundle.ReadyTimeout = cfg.Bundle.ReadyTimeout

	return service.LaunchConfig{
		ConsoleToolID:  cfg.Launch.ConsoleToolID,
		RDPToolID:      cfg.Launch.RDPToolID,
		ExecutableExts: cfg.Launch.ExecutableExts,
		Bundle:         bundle,
	}
}
