package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
	"github.com/billytalbutt/traka-launchpad/pkg/metrics"
)

// BringUpState is a step of the dev-tool bundle startup sequence.
type BringUpState string

const (
	StateIdle             BringUpState = "idle"
	StateBackendStarting  BringUpState = "backend_starting"
	StateBackendReady     BringUpState = "backend_ready"
	StateFrontendStarting BringUpState = "frontend_starting"
	StateFrontendReady    BringUpState = "frontend_ready"
	StateBrowserOpened    BringUpState = "browser_opened"
	StateFailed           BringUpState = "failed"
)

var bringUpTransitions = map[BringUpState][]BringUpState{
	StateIdle:             {StateBackendStarting, StateFailed},
	StateBackendStarting:  {StateBackendReady, StateFailed},
	StateBackendReady:     {StateFrontendStarting, StateFailed},
	StateFrontendStarting: {StateFrontendReady, StateFailed},
	StateFrontendReady:    {StateBrowserOpened, StateFailed},
}

// BundleConfig describes how a multi-process dev-tool bundle is recognised and started.
type BundleConfig struct {
	BackendEntry string
	BackendCmd   string
	FrontendDir  string
	FrontendCmd  string
	FrontendArgs []string
	BackendAddr  string
	FrontendAddr string
	FrontendURL  string
	ReadyTimeout time.Duration
}

// DefaultBundleConfig matches the Python backend + Vite frontend layout.
func DefaultBundleConfig() BundleConfig {
	return BundleConfig{
		BackendEntry: "server.py",
		BackendCmd:   "python",
		FrontendDir:  "frontend",
		FrontendCmd:  "npm",
		FrontendArgs: []string{"run", "dev"},
		BackendAddr:  "127.0.0.1:8000",
		FrontendAddr: "127.0.0.1:5173",
		FrontendURL:  "http://localhost:5173",
		ReadyTimeout: 60 * time.Second,
	}
}

// BringUpResult is the terminal outcome of a bring-up with every state visited.
type BringUpResult struct {
	State   BringUpState
	History []BringUpState
	Err     error
}

type bringUpRun struct {
	state   BringUpState
	history []BringUpState
}

func (r *bringUpRun) advance(to BringUpState) error {
	for _, allowed := range bringUpTransitions[r.state] {
		if allowed == to {
			r.state = to
			r.history = append(r.history, to)
			return nil
		}
	}
	return fmt.Errorf("invalid bring-up transition %s -> %s", r.state, to)
}

// BringUp drives a bundle from a spawned backend to an open browser tab,
// waiting for each port to accept connections before the dependent step.
type BringUp struct {
	host         ports.DesktopHost
	cfg          BundleConfig
	log          zerolog.Logger
	pollInterval time.Duration
}

func NewBringUp(host ports.DesktopHost, cfg BundleConfig, log zerolog.Logger) *BringUp {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultBundleConfig().ReadyTimeout
	}
	return &BringUp{host: host, cfg: cfg, log: log, pollInterval: 500 * time.Millisecond}
}

// StartBackend spawns the backend entry point of the bundle in dir.
func (b *BringUp) StartBackend(dir string) (int, error) {
	return b.host.Spawn(ports.ProcessSpec{
		Name: b.cfg.BackendCmd,
		Args: []string{b.cfg.BackendEntry},
		Dir:  dir,
	})
}

// Continue runs the rest of the sequence once the backend process exists.
func (b *BringUp) Continue(ctx context.Context, dir string, backendPID int) BringUpResult {
	run := &bringUpRun{state: StateIdle, history: []BringUpState{StateIdle}}
	log := b.log.With().Str("bundle", dir).Logger()

	fail := func(err error) BringUpResult {
		from := run.state
		_ = run.advance(StateFailed)
		metrics.BundleBringUpsTotal.WithLabelValues(string(StateFailed)).Inc()
		log.Warn().Err(err).Str("from", string(from)).Msg("bundle bring-up failed")
		return BringUpResult{State: run.state, History: run.history, Err: err}
	}

	_ = run.advance(StateBackendStarting)
	if err := b.await(ctx, b.cfg.BackendAddr, backendPID); err != nil {
		return fail(fmt.Errorf("backend: %w", err))
	}
	_ = run.advance(StateBackendReady)

	frontendPID, err := b.host.Spawn(ports.ProcessSpec{
		Name: b.cfg.FrontendCmd,
		Args: b.cfg.FrontendArgs,
		Dir:  filepath.Join(dir, b.cfg.FrontendDir),
	})
	if err != nil {
		return fail(fmt.Errorf("frontend: %w", err))
	}
	_ = run.advance(StateFrontendStarting)

	if err := b.await(ctx, b.cfg.FrontendAddr, frontendPID); err != nil {
		return fail(fmt.Errorf("frontend: %w", err))
	}
	_ = run.advance(StateFrontendReady)

	if err := b.host.OpenURL(b.cfg.FrontendURL); err != nil {
		return fail(fmt.Errorf("browser: %w", err))
	}
	_ = run.advance(StateBrowserOpened)

	metrics.BundleBringUpsTotal.WithLabelValues(string(StateBrowserOpened)).Inc()
	log.Info().Str("url", b.cfg.FrontendURL).Msg("bundle ready")
	return BringUpResult{State: run.state, History: run.history}
}

// await waits for addr within the step timeout and gives up early if the
// owning process disappears.
func (b *BringUp) await(ctx context.Context, addr string, pid int) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.ReadyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.host.WaitReady(ctx, addr) }()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			if pid > 0 && !b.host.Alive(pid) {
				return fmt.Errorf("process %d exited before %s was ready", pid, addr)
			}
		}
	}
}
