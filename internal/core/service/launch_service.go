package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/policy"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
	"github.com/billytalbutt/traka-launchpad/pkg/metrics"
)

const rdpNotConfiguredMsg = "Remote desktop is not configured. Set your RDP host, username and password in your profile."

// LaunchConfig names the special-cased tools and how desktop paths are classified.
type LaunchConfig struct {
	// ConsoleToolID is the tool whose URL a user may override in their profile.
	ConsoleToolID string
	// RDPToolID is launched as a remote-desktop session.
	RDPToolID      string
	ExecutableExts []string
	Bundle         BundleConfig
}

// LaunchService is the tool launch orchestrator.
type LaunchService struct {
	tools    ports.ToolRepository
	users    ports.UserRepository
	launches ports.LaunchRepository
	vault    ports.CredentialVault
	host     ports.DesktopHost
	bringUp  *BringUp
	cfg      LaunchConfig
	log      zerolog.Logger
	now      func() time.Time
	// async hands the bundle bring-up off the request goroutine.
	async func(func())
}

func NewLaunchService(
	tools ports.ToolRepository,
	users ports.UserRepository,
	launches ports.LaunchRepository,
	vault ports.CredentialVault,
	host ports.DesktopHost,
	cfg LaunchConfig,
	log zerolog.Logger,
) *LaunchService {
	if len(cfg.ExecutableExts) == 0 {
		cfg.ExecutableExts = []string{".exe", ".bat", ".cmd"}
	}
	return &LaunchService{
		tools:    tools,
		users:    users,
		launches: launches,
		vault:    vault,
		host:     host,
		bringUp:  NewBringUp(host, cfg.Bundle, log),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		async:    func(f func()) { go f() },
	}
}

// Launch records the launch and performs the tool's launch action. Launch
// failures are reported in the result; only an unknown tool, an unusable
// account or a ledger failure return an error.
func (s *LaunchService) Launch(ctx context.Context, p domain.Principal, toolID string) (*domain.LaunchResult, error) {
	tool, err := s.tools.FindByID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTool(p.Role, tool) {
		return nil, domain.ErrToolNotFound
	}

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

	res := &domain.LaunchResult{
		Message:    "Launch recorded",
		LaunchURL:  s.effectiveURL(tool, user),
		LaunchType: tool.LaunchType,
		Strategy:   domain.StrategyURL,
	}

	if tool.ID == s.cfg.RDPToolID {
		err = s.launchRemoteDesktop(ctx, user, tool, res)
	} else {
		err = s.launchTool(ctx, user, tool, res)
	}
	if err != nil {
		return nil, err
	}

	status := string(res.DesktopStatus)
	if status == "" {
		status = "url"
	}
	metrics.ToolLaunchesTotal.WithLabelValues(tool.ID, string(res.Strategy), status).Inc()

	ev := s.log.Info()
	if res.Error != "" {
		ev = s.log.Warn().Str("error", res.Error)
	}
	ev.Str("tool", tool.ID).
		Str("user", user.ID).
		Str("strategy", string(res.Strategy)).
		Str("status", status).
		Bool("recorded", res.Recorded).
		Msg("tool launch")

	return res, nil
}

func (s *LaunchService) effectiveURL(tool *domain.Tool, user *domain.User) string {
	if tool.ID == s.cfg.ConsoleToolID && user.TrakaWebURL != "" {
		return user.TrakaWebURL
	}
	return tool.LaunchURL
}

func (s *LaunchService) record(ctx context.Context, userID, toolID string, res *domain.LaunchResult) error {
	err := s.launches.Record(ctx, &domain.ToolLaunch{UserID: userID, ToolID: toolID, LaunchedAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("record launch: %w", err)
	}
	res.Recorded = true
	return nil
}

func (s *LaunchService) launchRemoteDesktop(ctx context.Context, user *domain.User, tool *domain.Tool, res *domain.LaunchResult) error {
	res.Strategy = domain.StrategyRemoteDesktop

	if !user.HasRDPProfile() {
		res.Message = "Remote desktop not configured"
		res.DesktopStatus = domain.DesktopNotConfigured
		res.Error = rdpNotConfiguredMsg
		return nil
	}
	if err := s.record(ctx, user.ID, tool.ID, res); err != nil {
		return err
	}

	password, err := s.vault.Decrypt(user.RDPPasswordEnc)
	if err != nil {
		launchFailed(res, err)
		return nil
	}
	if err := s.host.StoreCredential(ctx, user.RDPHost, user.RDPUsername, password); err != nil {
		launchFailed(res, err)
		return nil
	}
	if err := s.host.StartRemoteDesktop(user.RDPHost); err != nil {
		launchFailed(res, err)
		return nil
	}

	res.Message = fmt.Sprintf("Connecting to %s", user.RDPHost)
	res.DesktopStatus = domain.DesktopLaunched
	return nil
}

func (s *LaunchService) launchTool(ctx context.Context, user *domain.User, tool *domain.Tool, res *domain.LaunchResult) error {
	if err := s.record(ctx, user.ID, tool.ID, res); err != nil {
		return err
	}
	if tool.LaunchType != domain.LaunchDesktop || res.LaunchURL == "" {
		return nil
	}

	path := res.LaunchURL
	info := s.host.Stat(path)
	if !info.Exists {
		res.Message = "Launch path not found"
		res.DesktopStatus = domain.DesktopNotFound
		res.Error = fmt.Sprintf("path not found: %s", path)
		return nil
	}

	var err error
	switch {
	case info.IsDir && s.isBundle(path):
		res.Strategy = domain.StrategyBundle
		err = s.startBundle(path)
	case s.isExecutable(path):
		res.Strategy = domain.StrategyExecutable
		_, err = s.host.Spawn(ports.ProcessSpec{Name: path, Dir: filepath.Dir(path)})
	default:
		res.Strategy = domain.StrategyProject
		dir := path
		if !info.IsDir {
			dir = filepath.Dir(path)
		}
		_, err = s.host.Spawn(ports.ProcessSpec{Name: "npm", Args: []string{"start"}, Dir: dir})
	}
	if err != nil {
		launchFailed(res, err)
		return nil
	}

	res.Message = fmt.Sprintf("%s launched", tool.Name)
	res.DesktopStatus = domain.DesktopLaunched
	return nil
}

func (s *LaunchService) isBundle(dir string) bool {
	b := s.cfg.Bundle
	if b.BackendEntry == "" || b.FrontendDir == "" {
		return false
	}
	entry := s.host.Stat(filepath.Join(dir, b.BackendEntry))
	frontend := s.host.Stat(filepath.Join(dir, b.FrontendDir))
	return entry.Exists && !entry.IsDir && frontend.IsDir
}

func (s *LaunchService) isExecutable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.cfg.ExecutableExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// startBundle spawns the backend synchronously so spawn errors reach the
// caller; the readiness-gated remainder runs detached.
func (s *LaunchService) startBundle(dir string) error {
	pid, err := s.bringUp.StartBackend(dir)
	if err != nil {
		return err
	}
	s.async(func() {
		s.bringUp.Continue(context.Background(), dir, pid)
	})
	return nil
}

func launchFailed(res *domain.LaunchResult, err error) {
	res.Message = "Launch failed"
	res.DesktopStatus = domain.DesktopError
	res.Error = err.Error()
}
