package winsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// Runner executes a shell script and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, script string, timeout time.Duration) (string, error)
}

// PowerShell runs scripts through powershell.exe (or pwsh) non-interactively.
type PowerShell struct {
	Path string
}

// NewPowerShell returns a runner for the given executable; empty means powershell.exe.
func NewPowerShell(path string) *PowerShell {
	if path == "" {
		path = "powershell.exe"
	}
	return &PowerShell{Path: path}
}

func (p *PowerShell) Run(ctx context.Context, script string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Path,
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: command timed out after %s", domain.ErrExternalAction, timeout)
	}

	out := strings.TrimSpace(stdout.String())
	errText := strings.TrimSpace(stderr.String())
	if err != nil {
		if errText == "" {
			errText = err.Error()
		}
		return "", fmt.Errorf("%w: %s", domain.ErrExternalAction, errText)
	}
	if errText != "" && out == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrExternalAction, errText)
	}
	return out, nil
}

// psQuote renders s as a single-quoted PowerShell literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
