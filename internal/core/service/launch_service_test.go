package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

type launchFixture struct {
	svc      *LaunchService
	tools    *stubToolRepo
	users    *stubUserRepo
	launches *stubLaunchRepo
	host     *stubHost
	async    []func()
}

func newLaunchFixture(t *testing.T, tools []*domain.Tool, users ...*domain.User) *launchFixture {
	t.Helper()
	f := &launchFixture{
		tools:    newStubToolRepo(tools...),
		users:    newStubUserRepo(users...),
		launches: &stubLaunchRepo{},
		host:     newStubHost(),
	}
	f.svc = NewLaunchService(f.tools, f.users, f.launches, stubVault{}, f.host, LaunchConfig{
		ConsoleToolID: "trakaweb",
		RDPToolID:     "my-vm",
		Bundle:        DefaultBundleConfig(),
	}, zerolog.Nop())
	f.svc.async = func(fn func()) { f.async = append(f.async, fn) }
	return f
}

func activeUser(id string) *domain.User {
	return &domain.User{ID: id, Email: id + "@example.com", Name: id, Role: domain.RoleAppSupport, IsActive: true, IsApproved: true}
}

func TestLaunch_WebToolRecordsAndReturnsURL(t *testing.T) {
	f := newLaunchFixture(t, []*domain.Tool{
		{ID: "wiki", Name: "Wiki", LaunchType: domain.LaunchWeb, LaunchURL: "https://wiki.example.com", IsActive: true},
	}, activeUser("u1"))

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "wiki")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.LaunchURL != "https://wiki.example.com" || res.LaunchType != domain.LaunchWeb || res.DesktopStatus != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.launches.count() != 1 {
		t.Fatalf("expected 1 launch row, got %d", f.launches.count())
	}
	if len(f.host.spawned) != 0 {
		t.Fatalf("web launch must not spawn, got %+v", f.host.spawned)
	}
}

func TestLaunch_ConsoleOverride(t *testing.T) {
	u := activeUser("u1")
	u.TrakaWebURL = "http://vm7/trakaweb"
	f := newLaunchFixture(t, []*domain.Tool{
		{ID: "trakaweb", Name: "TrakaWeb", LaunchType: domain.LaunchWeb, LaunchURL: "http://localhost/trakaweb", IsActive: true},
		{ID: "wiki", Name: "Wiki", LaunchType: domain.LaunchWeb, LaunchURL: "https://wiki", IsActive: true},
	}, u)

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "trakaweb")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.LaunchURL != "http://vm7/trakaweb" {
		t.Fatalf("expected override URL, got %q", res.LaunchURL)
	}
	if f.launches.count() != 1 {
		t.Fatalf("expected 1 launch row, got %d", f.launches.count())
	}

	res, _ = f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "wiki")
	if res.LaunchURL != "https://wiki" {
		t.Fatalf("override must only apply to the console tool, got %q", res.LaunchURL)
	}
}

func TestLaunch_UnknownToolNoSideEffects(t *testing.T) {
	f := newLaunchFixture(t, nil, activeUser("u1"))

	if _, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "nope"); !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if f.launches.count() != 0 {
		t.Fatal("unknown tool must not record a launch")
	}
}

func TestLaunch_HiddenToolIsNotFound(t *testing.T) {
	f := newLaunchFixture(t, []*domain.Tool{
		{ID: "eu", Name: "EU", LaunchType: domain.LaunchWeb, IsActive: true, AllowedRoles: domain.RoleSet{domain.RoleEUTechSupport}},
	}, activeUser("u1"))

	if _, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "eu"); !errors.Is(err, domain.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestLaunch_InactiveUser(t *testing.T) {
	u := activeUser("u1")
	u.IsActive = false
	f := newLaunchFixture(t, []*domain.Tool{{ID: "wiki", LaunchType: domain.LaunchWeb, IsActive: true}}, u)

	if _, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "wiki"); !errors.Is(err, domain.ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
	if f.launches.count() != 0 {
		t.Fatal("inactive user must not record a launch")
	}
}

func TestLaunch_LedgerFailureIsAnError(t *testing.T) {
	f := newLaunchFixture(t, []*domain.Tool{{ID: "wiki", LaunchType: domain.LaunchWeb, IsActive: true}}, activeUser("u1"))
	f.launches.err = errBoom

	if _, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "wiki"); !errors.Is(err, errBoom) {
		t.Fatalf("expected ledger error, got %v", err)
	}
}

func rdpTool() *domain.Tool {
	return &domain.Tool{ID: "my-vm", Name: "My VM", LaunchType: domain.LaunchProtocol, LaunchURL: "rdp://", IsActive: true}
}

func TestLaunch_RDPNotConfigured(t *testing.T) {
	cases := map[string]func(u *domain.User){
		"no host":     func(u *domain.User) { u.RDPUsername, u.RDPPasswordEnc = "bob", "enc:pw" },
		"no username": func(u *domain.User) { u.RDPHost, u.RDPPasswordEnc = "vm7", "enc:pw" },
		"no password": func(u *domain.User) { u.RDPHost, u.RDPUsername = "vm7", "bob" },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			u := activeUser("u1")
			setup(u)
			f := newLaunchFixture(t, []*domain.Tool{rdpTool()}, u)

			res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "my-vm")
			if err != nil {
				t.Fatalf("Launch returned error: %v", err)
			}
			if res.DesktopStatus != domain.DesktopNotConfigured || !strings.Contains(res.Error, "profile") {
				t.Fatalf("unexpected result: %+v", res)
			}
			if f.launches.count() != 0 {
				t.Fatalf("expected zero launch rows, got %d", f.launches.count())
			}
			if len(f.host.creds) != 0 || len(f.host.rdp) != 0 {
				t.Fatal("nothing should be attempted")
			}
		})
	}
}

func rdpUser() *domain.User {
	u := activeUser("u1")
	u.RDPHost, u.RDPUsername, u.RDPPasswordEnc = "vm7", "bob", "enc:s3cret"
	return u
}

func TestLaunch_RDPSuccess(t *testing.T) {
	f := newLaunchFixture(t, []*domain.Tool{rdpTool()}, rdpUser())

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "my-vm")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.DesktopStatus != domain.DesktopLaunched || res.Strategy != domain.StrategyRemoteDesktop {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.host.creds) != 1 || f.host.creds[0] != "vm7|bob|s3cret" {
		t.Fatalf("expected decrypted credential stored, got %v", f.host.creds)
	}
	if len(f.host.rdp) != 1 || f.host.rdp[0] != "vm7" {
		t.Fatalf("expected remote desktop to vm7, got %v", f.host.rdp)
	}
	if f.launches.count() != 1 {
		t.Fatalf("expected 1 launch row, got %d", f.launches.count())
	}
}

func TestLaunch_RDPFailuresAreInPayload(t *testing.T) {
	t.Run("decrypt", func(t *testing.T) {
		u := rdpUser()
		u.RDPPasswordEnc = "corrupt"
		f := newLaunchFixture(t, []*domain.Tool{rdpTool()}, u)

		res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "my-vm")
		if err != nil {
			t.Fatalf("Launch returned error: %v", err)
		}
		if res.DesktopStatus != domain.DesktopError || !strings.Contains(res.Error, "decryption") {
			t.Fatalf("unexpected result: %+v", res)
		}
		if f.launches.count() != 1 {
			t.Fatalf("expected 1 launch row, got %d", f.launches.count())
		}
		if len(f.host.rdp) != 0 {
			t.Fatal("remote desktop must not start after a decrypt failure")
		}
	})
	t.Run("credential store", func(t *testing.T) {
		f := newLaunchFixture(t, []*domain.Tool{rdpTool()}, rdpUser())
		f.host.credErr = errBoom

		res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "my-vm")
		if err != nil {
			t.Fatalf("Launch returned error: %v", err)
		}
		if res.DesktopStatus != domain.DesktopError || res.Error != "boom" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
}

func desktopTool(path string) *domain.Tool {
	return &domain.Tool{ID: "desk", Name: "Desk Tool", LaunchType: domain.LaunchDesktop, LaunchURL: path, IsActive: true}
}

func TestLaunch_DesktopPathNotFound(t *testing.T) {
	path := filepath.Join("C:", "Tools", "missing.exe")
	f := newLaunchFixture(t, []*domain.Tool{desktopTool(path)}, activeUser("u1"))

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.DesktopStatus != domain.DesktopNotFound || !strings.Contains(res.Error, path) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.launches.count() != 1 {
		t.Fatalf("expected 1 launch row, got %d", f.launches.count())
	}
}

func TestLaunch_DesktopExecutable(t *testing.T) {
	path := filepath.Join("tools", "viewer.EXE")
	f := newLaunchFixture(t, []*domain.Tool{desktopTool(path)}, activeUser("u1"))
	f.host.paths[path] = ports.PathInfo{Exists: true}

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.DesktopStatus != domain.DesktopLaunched || res.Strategy != domain.StrategyExecutable {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.host.spawned) != 1 || f.host.spawned[0].Name != path || f.host.spawned[0].Dir != "tools" {
		t.Fatalf("unexpected spawn: %+v", f.host.spawned)
	}
}

func TestLaunch_DesktopProject(t *testing.T) {
	dir := filepath.Join("work", "dashboard")
	f := newLaunchFixture(t, []*domain.Tool{desktopTool(dir)}, activeUser("u1"))
	f.host.paths[dir] = ports.PathInfo{Exists: true, IsDir: true}

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.Strategy != domain.StrategyProject || res.DesktopStatus != domain.DesktopLaunched {
		t.Fatalf("unexpected result: %+v", res)
	}
	sp := f.host.spawned[0]
	if sp.Name != "npm" || len(sp.Args) != 1 || sp.Args[0] != "start" || sp.Dir != dir {
		t.Fatalf("unexpected spawn: %+v", sp)
	}
}

func TestLaunch_DesktopBundle(t *testing.T) {
	dir := filepath.Join("work", "devtool")
	f := newLaunchFixture(t, []*domain.Tool{desktopTool(dir)}, activeUser("u1"))
	f.host.paths[dir] = ports.PathInfo{Exists: true, IsDir: true}
	f.host.paths[filepath.Join(dir, "server.py")] = ports.PathInfo{Exists: true}
	f.host.paths[filepath.Join(dir, "frontend")] = ports.PathInfo{Exists: true, IsDir: true}

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.Strategy != domain.StrategyBundle || res.DesktopStatus != domain.DesktopLaunched {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.host.spawned) != 1 || f.host.spawned[0].Name != "python" || f.host.spawned[0].Args[0] != "server.py" {
		t.Fatalf("expected only the backend spawned synchronously, got %+v", f.host.spawned)
	}
	if len(f.async) != 1 {
		t.Fatalf("expected bring-up handed off, got %d", len(f.async))
	}

	f.async[0]()
	if len(f.host.spawned) != 2 || f.host.spawned[1].Dir != filepath.Join(dir, "frontend") {
		t.Fatalf("expected frontend spawned in its directory, got %+v", f.host.spawned)
	}
	if len(f.host.opened) != 1 || f.host.opened[0] != "http://localhost:5173" {
		t.Fatalf("expected browser opened, got %v", f.host.opened)
	}
}

func TestLaunch_DesktopSpawnError(t *testing.T) {
	path := filepath.Join("tools", "viewer.exe")
	f := newLaunchFixture(t, []*domain.Tool{desktopTool(path)}, activeUser("u1"))
	f.host.paths[path] = ports.PathInfo{Exists: true}
	f.host.spawnErr = errBoom

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.DesktopStatus != domain.DesktopError || res.Error != "boom" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.launches.count() != 1 {
		t.Fatalf("launch must stay recorded after a spawn failure, got %d", f.launches.count())
	}
}

func TestLaunch_DesktopWithoutPathFallsBack(t *testing.T) {
	f := newLaunchFixture(t, []*domain.Tool{desktopTool("")}, activeUser("u1"))

	res, err := f.svc.Launch(context.Background(), member("u1", domain.RoleAppSupport), "desk")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if res.DesktopStatus != "" || res.LaunchType != domain.LaunchDesktop {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.launches.count() != 1 {
		t.Fatalf("expected 1 launch row, got %d", f.launches.count())
	}
}
