package winsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

type fakeRunner struct {
	mu       sync.Mutex
	scripts  []string
	timeouts []time.Duration
	respond  func(script string) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, script string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	f.timeouts = append(f.timeouts, timeout)
	f.mu.Unlock()
	if f.respond == nil {
		return "", nil
	}
	return f.respond(script)
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scripts)
}

func testCatalog() []domain.ServiceConfig {
	return []domain.ServiceConfig{
		{Name: "TrakaService", DisplayName: "Traka Business Engine", LogProvider: "Traka"},
		{Name: "TrakaIntegration", DisplayName: "Traka Integration Engine"},
	}
}

func newTestController(r Runner) *Controller {
	return NewController(testCatalog(), r, Options{}, zerolog.Nop())
}

func TestController_Timeouts(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) { return "[]", nil }}
	c := NewController(testCatalog(), r, Options{StatusTimeout: 5 * time.Second}, zerolog.Nop())

	if _, err := c.Status(context.Background(), "TrakaService"); err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	_ = c.Perform(context.Background(), "TrakaService", domain.ActionStart)

	if len(r.timeouts) != 2 {
		t.Fatalf("expected 2 shell calls, got %d", len(r.timeouts))
	}
	if r.timeouts[0] != 5*time.Second {
		t.Errorf("status timeout = %s, want 5s", r.timeouts[0])
	}
	if r.timeouts[1] != DefaultActionTimeout {
		t.Errorf("action timeout = %s, want %s", r.timeouts[1], DefaultActionTimeout)
	}
}

func TestController_ConfigCaseInsensitive(t *testing.T) {
	c := newTestController(&fakeRunner{})

	cfg, err := c.Config("trakaservice")
	if err != nil {
		t.Fatalf("Config returned error: %v", err)
	}
	if cfg.Name != "TrakaService" {
		t.Fatalf("expected canonical name, got %q", cfg.Name)
	}
	if _, err := c.Config("Spooler"); !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestController_AllStatuses(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) {
		return `[{"name":"TrakaService","displayName":"Traka Business Engine","status":"Running","startType":"Automatic","exists":true,"error":""},` +
			`{"name":"TrakaIntegration","displayName":"","status":"NotFound","startType":"","exists":false,"error":"Cannot find any service"}]`, nil
	}}
	c := newTestController(r)

	states, err := c.AllStatuses(context.Background())
	if err != nil {
		t.Fatalf("AllStatuses returned error: %v", err)
	}
	if r.calls() != 1 {
		t.Fatalf("expected one batched shell call, got %d", r.calls())
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	if states[0].Status != domain.ServiceRunning || !states[0].Exists || states[0].StartType != "Automatic" {
		t.Fatalf("unexpected first state: %+v", states[0])
	}
	if states[1].Status != domain.ServiceNotFound || states[1].Exists {
		t.Fatalf("unexpected second state: %+v", states[1])
	}
}

func TestController_StatusMissingFromOutput(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) { return "[]", nil }}
	c := newTestController(r)

	st, err := c.Status(context.Background(), "TRAKASERVICE")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if st.Name != "TrakaService" || st.Status != domain.ServiceNotFound || st.Exists {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestController_StatusUnknownServiceSkipsShell(t *testing.T) {
	r := &fakeRunner{}
	c := newTestController(r)

	if _, err := c.Status(context.Background(), "Spooler"); !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	if r.calls() != 0 {
		t.Fatalf("expected no shell calls, got %d", r.calls())
	}
}

func TestController_StatusShellFailure(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) {
		return "", fmt.Errorf("%w: boom", domain.ErrExternalAction)
	}}
	c := newTestController(r)

	if _, err := c.AllStatuses(context.Background()); !errors.Is(err, domain.ErrExternalAction) {
		t.Fatalf("expected ErrExternalAction, got %v", err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]domain.ServiceStatus{
		"Running":         domain.ServiceRunning,
		"Stopped":         domain.ServiceStopped,
		"StartPending":    domain.ServiceStarting,
		"StopPending":     domain.ServiceStopping,
		"Paused":          domain.ServicePaused,
		"ContinuePending": domain.ServiceStarting,
		"Weird":           domain.ServiceError,
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Errorf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestController_LogsMergedNewestFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ts := func(d time.Duration) string { return now.Add(-d).Format(time.RFC3339Nano) }

	r := &fakeRunner{respond: func(script string) (string, error) {
		if strings.Contains(script, "LogName = 'System'") {
			return fmt.Sprintf(`[{"time":%q,"level":"Information","message":"The Traka Business Engine service\r\nentered the running state."},`+
				`{"time":%q,"level":"Error","message":"too old"}]`, ts(2*time.Hour), ts(96*time.Hour)), nil
		}
		if !strings.Contains(script, "'Traka'") {
			return "", errors.New("unexpected provider")
		}
		return fmt.Sprintf(`[{"time":%q,"level":"Warning","message":"app warning"}]`, ts(time.Hour)), nil
	}}
	c := newTestController(r)
	c.now = func() time.Time { return now }

	logs, err := c.Logs(context.Background(), "trakaservice")
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(logs), logs)
	}
	if logs[0].Source != "Application" || logs[1].Source != "System" {
		t.Fatalf("expected newest first, got %+v", logs)
	}
	if logs[1].Message != "The Traka Business Engine service entered the running state." {
		t.Fatalf("expected collapsed message, got %q", logs[1].Message)
	}
}

func TestController_LogsSourceFailureIsEmpty(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) {
		return "", fmt.Errorf("%w: No events were found", domain.ErrExternalAction)
	}}
	c := newTestController(r)

	logs, err := c.Logs(context.Background(), "TrakaIntegration")
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", logs)
	}
	if r.calls() != 2 {
		t.Fatalf("expected both sources queried, got %d calls", r.calls())
	}
}

func TestMergeLogsCap(t *testing.T) {
	base := time.Now()
	var a, b []domain.LogEntry
	for i := 0; i < 60; i++ {
		a = append(a, domain.LogEntry{Time: base.Add(-time.Duration(2*i) * time.Minute)})
		b = append(b, domain.LogEntry{Time: base.Add(-time.Duration(2*i+1) * time.Minute)})
	}
	merged := mergeLogs(mergedLogLimit, a, b)
	if len(merged) != mergedLogLimit {
		t.Fatalf("expected %d entries, got %d", mergedLogLimit, len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Time.After(merged[i-1].Time) {
			t.Fatalf("entries not sorted newest first at %d", i)
		}
	}
}

func TestController_PerformScripts(t *testing.T) {
	cases := []struct {
		action domain.ServiceAction
		want   string
	}{
		{domain.ActionStart, "Start-Service -Name 'TrakaService'"},
		{domain.ActionStop, "Stop-Service -Name 'TrakaService' -Force"},
		{domain.ActionRestart, "Restart-Service -Name 'TrakaService' -Force"},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			r := &fakeRunner{respond: func(string) (string, error) { return "OK", nil }}
			c := newTestController(r)

			if err := c.Perform(context.Background(), "trakaservice", tc.action); err != nil {
				t.Fatalf("Perform returned error: %v", err)
			}
			if r.calls() != 1 || !strings.Contains(r.scripts[0], tc.want) {
				t.Fatalf("expected script containing %q, got %v", tc.want, r.scripts)
			}
		})
	}
}

func TestController_PerformAccessDenied(t *testing.T) {
	cases := map[string]string{
		"outer cmdlet message": "Service 'Traka Business Engine (TrakaService)' cannot be stopped due to the following error: " +
			"Cannot open TrakaService service on computer '.'.",
		"inner win32 message": "Service 'Traka Business Engine (TrakaService)' cannot be started due to the following error: " +
			"Cannot open TrakaService service on computer '.'. | Access is denied (win32 error 5)",
		"short form": "Service 'TrakaService' cannot be stopped: Access is denied",
	}
	for name, stderr := range cases {
		t.Run(name, func(t *testing.T) {
			r := &fakeRunner{respond: func(string) (string, error) {
				return "", fmt.Errorf("%w: %s", domain.ErrExternalAction, stderr)
			}}
			c := newTestController(r)

			err := c.Perform(context.Background(), "TrakaService", domain.ActionStop)
			if !errors.Is(err, domain.ErrServiceAccessDenied) {
				t.Fatalf("expected ErrServiceAccessDenied, got %v", err)
			}
		})
	}
}

func TestActionScriptReportsInnerException(t *testing.T) {
	if !strings.Contains(actionScript, "InnerException") || !strings.Contains(actionScript, "NativeErrorCode") {
		t.Fatal("action script must surface the inner Win32 error")
	}
}

func TestController_PerformOtherFailure(t *testing.T) {
	r := &fakeRunner{respond: func(string) (string, error) {
		return "", fmt.Errorf("%w: service did not start", domain.ErrExternalAction)
	}}
	c := newTestController(r)

	err := c.Perform(context.Background(), "TrakaService", domain.ActionStart)
	if !errors.Is(err, domain.ErrExternalAction) || errors.Is(err, domain.ErrServiceAccessDenied) {
		t.Fatalf("expected plain ErrExternalAction, got %v", err)
	}
}

func TestController_PerformUnknownService(t *testing.T) {
	r := &fakeRunner{}
	c := newTestController(r)

	if err := c.Perform(context.Background(), "Spooler", domain.ActionStart); !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	if r.calls() != 0 {
		t.Fatalf("expected no shell calls, got %d", r.calls())
	}
}

func TestPSQuote(t *testing.T) {
	if got := psQuote("O'Brien"); got != "'O''Brien'" {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
