package ports

import (
	"context"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

// CredentialVault encrypts and decrypts the stored remote-desktop password.
type CredentialVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}

// PathInfo describes a filesystem entry on the launchpad host.
type PathInfo struct {
	Exists bool
	IsDir  bool
}

// ProcessSpec describes a detached child process.
type ProcessSpec struct {
	Name string
	Args []string
	Dir  string
}

// DesktopHost performs the OS side effects of launching tools. Every spawn is
// detached: the host never waits for the child to exit.
type DesktopHost interface {
	Stat(path string) PathInfo
	Spawn(spec ProcessSpec) (pid int, err error)
	OpenURL(url string) error
	StoreCredential(ctx context.Context, host, username, password string) error
	StartRemoteDesktop(host string) error
	// WaitReady blocks until addr accepts TCP connections or ctx ends.
	WaitReady(ctx context.Context, addr string) error
	Alive(pid int) bool
}

// ServiceController is the Service Control Adapter.
type ServiceController interface {
	Configs() []domain.ServiceConfig
	Config(name string) (domain.ServiceConfig, error)
	AllStatuses(ctx context.Context) ([]domain.ServiceState, error)
	Status(ctx context.Context, name string) (domain.ServiceState, error)
	Logs(ctx context.Context, name string) ([]domain.LogEntry, error)
	Perform(ctx context.Context, name string, action domain.ServiceAction) error
}
