// Package desktop performs the OS side effects of launching tools on the
// machine the launchpad runs on.
package desktop

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

const (
	defaultDialTimeout  = 500 * time.Millisecond
	defaultPollInterval = 250 * time.Millisecond
	credentialTimeout   = 10 * time.Second
)

// Host implements ports.DesktopHost for the local machine.
type Host struct {
	log          zerolog.Logger
	goos         string
	dialTimeout  time.Duration
	pollInterval time.Duration
}

// NewHost returns a host bound to the running OS.
func NewHost(log zerolog.Logger) *Host {
	return &Host{
		log:          log,
		goos:         runtime.GOOS,
		dialTimeout:  defaultDialTimeout,
		pollInterval: defaultPollInterval,
	}
}

func (h *Host) Stat(path string) ports.PathInfo {
	fi, err := os.Stat(path)
	if err != nil {
		return ports.PathInfo{}
	}
	return ports.PathInfo{Exists: true, IsDir: fi.IsDir()}
}

// Spawn starts a detached child. Its output is discarded and its exit is
// reaped in the background; the caller only learns whether the start worked.
func (h *Host) Spawn(spec ports.ProcessSpec) (int, error) {
	cmd := exec.Command(spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: start %s: %v", domain.ErrExternalAction, spec.Name, err)
	}
	pid := cmd.Process.Pid
	h.log.Debug().Str("cmd", spec.Name).Str("dir", spec.Dir).Int("pid", pid).Msg("process spawned")

	go func() {
		if err := cmd.Wait(); err != nil {
			h.log.Debug().Err(err).Str("cmd", spec.Name).Int("pid", pid).Msg("detached process exited")
		}
	}()
	return pid, nil
}

// OpenURL opens url in the default browser of the interactive session.
func (h *Host) OpenURL(url string) error {
	_, err := h.Spawn(openerFor(h.goos, url))
	return err
}

func openerFor(goos, url string) ports.ProcessSpec {
	switch goos {
	case "windows":
		return ports.ProcessSpec{Name: "rundll32", Args: []string{"url.dll,FileProtocolHandler", url}}
	case "darwin":
		return ports.ProcessSpec{Name: "open", Args: []string{url}}
	default:
		return ports.ProcessSpec{Name: "xdg-open", Args: []string{url}}
	}
}

// StoreCredential registers a generic credential for the remote-desktop
// target so the client can sign in without prompting.
func (h *Host) StoreCredential(ctx context.Context, host, username, password string) error {
	ctx, cancel := context.WithTimeout(ctx, credentialTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "cmdkey",
		"/generic:TERMSRV/"+host, "/user:"+username, "/pass:"+password)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(strings.ReplaceAll(string(out), password, "***"))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: store credential for %s: %s", domain.ErrExternalAction, host, msg)
	}
	return nil
}

func (h *Host) StartRemoteDesktop(host string) error {
	_, err := h.Spawn(ports.ProcessSpec{Name: "mstsc", Args: []string{"/v:" + host}})
	return err
}

// WaitReady polls addr until a TCP connection succeeds or ctx ends.
func (h *Host) WaitReady(ctx context.Context, addr string) error {
	dialer := net.Dialer{Timeout: h.dialTimeout}
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not accepting connections: %w", addr, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (h *Host) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	if err != nil {
		h.log.Debug().Err(err).Int("pid", pid).Msg("pid lookup failed")
		return false
	}
	return ok
}
