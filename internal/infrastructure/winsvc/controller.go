// Package winsvc controls the fixed catalog of Windows services through
// PowerShell. Every call re-queries the OS; nothing is cached.
package winsvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
	"github.com/billytalbutt/traka-launchpad/pkg/metrics"
)

const (
	DefaultStatusTimeout = 20 * time.Second
	DefaultActionTimeout = 30 * time.Second

	logWindow       = 3 * 24 * time.Hour
	systemLogLimit  = 30
	appLogLimit     = 50
	mergedLogLimit  = 80
	systemScanLimit = 200
)

// Options tunes shell timeouts; zero values fall back to the defaults.
type Options struct {
	StatusTimeout time.Duration
	ActionTimeout time.Duration
}

// Controller implements ports.ServiceController.
type Controller struct {
	catalog []domain.ServiceConfig
	runner  Runner
	opts    Options
	log     zerolog.Logger
	now     func() time.Time
}

// NewController wires a controller over a loaded catalog.
func NewController(catalog []domain.ServiceConfig, runner Runner, opts Options, log zerolog.Logger) *Controller {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	return &Controller{catalog: catalog, runner: runner, opts: opts, log: log, now: time.Now}
}

// Configs returns the static catalog.
func (c *Controller) Configs() []domain.ServiceConfig {
	out := make([]domain.ServiceConfig, len(c.catalog))
	copy(out, c.catalog)
	return out
}

// Config looks a service up by name, case-insensitively.
func (c *Controller) Config(name string) (domain.ServiceConfig, error) {
	for _, s := range c.catalog {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return domain.ServiceConfig{}, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, name)
}

// AllStatuses queries every configured service in a single shell invocation.
func (c *Controller) AllStatuses(ctx context.Context) ([]domain.ServiceState, error) {
	names := make([]string, len(c.catalog))
	for i, s := range c.catalog {
		names[i] = s.Name
	}
	return c.queryStatuses(ctx, names)
}

// Status queries one configured service.
func (c *Controller) Status(ctx context.Context, name string) (domain.ServiceState, error) {
	cfg, err := c.Config(name)
	if err != nil {
		return domain.ServiceState{}, err
	}
	states, err := c.queryStatuses(ctx, []string{cfg.Name})
	if err != nil {
		return domain.ServiceState{}, err
	}
	return states[0], nil
}

type rawState struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
	StartType   string `json:"startType"`
	Exists      bool   `json:"exists"`
	Error       string `json:"error"`
}

// queryStatuses returns one state per name, in order. Names the OS does not
// report come back as NotFound.
func (c *Controller) queryStatuses(ctx context.Context, names []string) ([]domain.ServiceState, error) {
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(statusScript, psQuote(string(namesJSON)))

	out, err := c.run(ctx, "status", script, c.opts.StatusTimeout)
	if err != nil {
		return nil, fmt.Errorf("query service status: %w", err)
	}

	var raws []rawState
	if out != "" && out != "null" {
		if err := json.Unmarshal([]byte(out), &raws); err != nil {
			return nil, fmt.Errorf("%w: decode status output: %v", domain.ErrExternalAction, err)
		}
	}

	byName := make(map[string]rawState, len(raws))
	for _, r := range raws {
		byName[strings.ToLower(r.Name)] = r
	}

	states := make([]domain.ServiceState, 0, len(names))
	for _, n := range names {
		r, ok := byName[strings.ToLower(n)]
		if !ok || !r.Exists {
			st := domain.ServiceState{Name: n, Status: domain.ServiceNotFound}
			if ok {
				st.Error = r.Error
			}
			states = append(states, st)
			continue
		}
		states = append(states, domain.ServiceState{
			Name:        n,
			DisplayName: r.DisplayName,
			Status:      normalizeStatus(r.Status),
			StartType:   r.StartType,
			Exists:      true,
		})
	}
	return states, nil
}

// normalizeStatus maps ServiceControllerStatus names onto the observed states.
func normalizeStatus(s string) domain.ServiceStatus {
	switch s {
	case "Running":
		return domain.ServiceRunning
	case "Stopped":
		return domain.ServiceStopped
	case "StartPending", "ContinuePending":
		return domain.ServiceStarting
	case "StopPending":
		return domain.ServiceStopping
	case "Paused", "PausePending":
		return domain.ServicePaused
	}
	return domain.ServiceError
}

type rawLog struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Logs merges recent System channel events mentioning the service with the
// service's own Application channel events, newest first. A failing source
// contributes nothing instead of failing the call.
func (c *Controller) Logs(ctx context.Context, name string) ([]domain.LogEntry, error) {
	cfg, err := c.Config(name)
	if err != nil {
		return nil, err
	}
	provider := cfg.LogProvider
	if provider == "" {
		provider = cfg.Name
	}
	cutoff := c.now().Add(-logWindow)

	var (
		wg            sync.WaitGroup
		sysLogs, apps []domain.LogEntry
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		script := fmt.Sprintf(systemLogScript, psQuote(cfg.Name), psQuote(cfg.DisplayName), systemScanLimit, systemLogLimit)
		sysLogs = c.fetchLogs(ctx, "System", script, systemLogLimit, cutoff)
	}()
	go func() {
		defer wg.Done()
		script := fmt.Sprintf(appLogScript, psQuote(provider), appLogLimit)
		apps = c.fetchLogs(ctx, "Application", script, appLogLimit, cutoff)
	}()
	wg.Wait()

	return mergeLogs(mergedLogLimit, sysLogs, apps), nil
}

func (c *Controller) fetchLogs(ctx context.Context, source, script string, limit int, cutoff time.Time) []domain.LogEntry {
	out, err := c.run(ctx, "logs", script, c.opts.ActionTimeout)
	if err != nil {
		c.log.Debug().Err(err).Str("source", source).Msg("log query failed")
		return nil
	}
	if out == "" || out == "null" {
		return nil
	}
	var raws []rawLog
	if err := json.Unmarshal([]byte(out), &raws); err != nil {
		c.log.Debug().Err(err).Str("source", source).Msg("log output not decodable")
		return nil
	}

	entries := make([]domain.LogEntry, 0, len(raws))
	for _, r := range raws {
		ts, err := time.Parse(time.RFC3339Nano, r.Time)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		entries = append(entries, domain.LogEntry{
			Time:    ts,
			Level:   r.Level,
			Message: collapseLines(r.Message),
			Source:  source,
		})
		if len(entries) == limit {
			break
		}
	}
	return entries
}

func mergeLogs(limit int, sources ...[]domain.LogEntry) []domain.LogEntry {
	var all []domain.LogEntry
	for _, s := range sources {
		all = append(all, s...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time.After(all[j].Time) })
	if len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []domain.LogEntry{}
	}
	return all
}

func collapseLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Perform starts, stops or restarts a configured service by its OS name.
func (c *Controller) Perform(ctx context.Context, name string, action domain.ServiceAction) error {
	cfg, err := c.Config(name)
	if err != nil {
		return err
	}

	var cmdlet string
	switch action {
	case domain.ActionStart:
		cmdlet = "Start-Service -Name %s -ErrorAction Stop"
	case domain.ActionStop:
		cmdlet = "Stop-Service -Name %s -Force -ErrorAction Stop"
	case domain.ActionRestart:
		cmdlet = "Restart-Service -Name %s -Force -ErrorAction Stop"
	default:
		return domain.NewValidationError(fmt.Sprintf("unsupported action %q", action))
	}
	script := fmt.Sprintf(actionScript, fmt.Sprintf(cmdlet, psQuote(cfg.Name)))

	_, err = c.run(ctx, "action", script, c.opts.ActionTimeout)
	result := "ok"
	if err != nil {
		result = "error"
		if isAccessDenied(err) {
			result = "access_denied"
			err = fmt.Errorf("%w (%s %s)", domain.ErrServiceAccessDenied, action, cfg.Name)
		}
	}
	metrics.ServiceActionsTotal.WithLabelValues(cfg.Name, string(action), result).Inc()

	if err != nil {
		c.log.Warn().Err(err).Str("service", cfg.Name).Str("action", string(action)).Str("result", result).Msg("service action failed")
		return err
	}
	c.log.Info().Str("service", cfg.Name).Str("action", string(action)).Str("result", result).Msg("service action performed")
	return nil
}

// isAccessDenied recognises a non-elevated service call. The service cmdlets
// report it as "Cannot open <name> service on computer '.'" with the Win32
// "Access is denied" (code 5) only on the inner exception.
func isAccessDenied(err error) bool {
	if errors.Is(err, domain.ErrServiceAccessDenied) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permissiondenied"),
		strings.Contains(msg, "access is denied"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "win32 error 5)"):
		return true
	case strings.Contains(msg, "cannot open") && strings.Contains(msg, "service on computer"):
		return true
	}
	return false
}

func (c *Controller) run(ctx context.Context, kind, script string, timeout time.Duration) (string, error) {
	start := time.Now()
	out, err := c.runner.Run(ctx, script, timeout)
	metrics.ShellDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return out, err
}

const statusScript = `
$names = %s | ConvertFrom-Json
$results = $names | ForEach-Object {
  $n = $_
  try {
    $svc = Get-Service -Name $n -ErrorAction Stop
    @{ name = $n; displayName = $svc.DisplayName; status = $svc.Status.ToString(); startType = $svc.StartType.ToString(); exists = $true; error = '' }
  } catch {
    @{ name = $n; displayName = ''; status = 'NotFound'; startType = ''; exists = $false; error = $_.Exception.Message }
  }
}
ConvertTo-Json -InputObject @($results) -Depth 2 -Compress`

// Event ids: 7036 state change, 7034 crash, 7031 unexpected stop, 7001 dependency failure, 7009 start timeout.
const systemLogScript = `
$serviceName = %s
$displayName = %s
$cutoff = (Get-Date).AddDays(-3)
$events = Get-WinEvent -FilterHashtable @{ LogName = 'System'; Id = @(7036, 7034, 7031, 7001, 7009); StartTime = $cutoff } -MaxEvents %d -ErrorAction Stop |
  Where-Object { $_.Message -like "*$displayName*" -or $_.Message -like "*$serviceName*" } |
  Select-Object -First %d @{N='time';E={$_.TimeCreated.ToString('o')}}, @{N='level';E={$_.LevelDisplayName}}, @{N='message';E={$_.Message}}
ConvertTo-Json -InputObject @($events) -Depth 2 -Compress`

const appLogScript = `
$provider = %s
$cutoff = (Get-Date).AddDays(-3)
$events = Get-WinEvent -FilterHashtable @{ LogName = 'Application'; ProviderName = $provider; StartTime = $cutoff } -MaxEvents %d -ErrorAction Stop |
  Select-Object @{N='time';E={$_.TimeCreated.ToString('o')}}, @{N='level';E={$_.LevelDisplayName}}, @{N='message';E={$_.Message}}
ConvertTo-Json -InputObject @($events) -Depth 2 -Compress`

const actionScript = `
try {
  %s
  Write-Output 'OK'
} catch {
  $msg = $_.Exception.Message
  $inner = $_.Exception.InnerException
  while ($inner) {
    $msg = "$msg | $($inner.Message)"
    if ($inner -is [System.ComponentModel.Win32Exception]) { $msg = "$msg (win32 error $($inner.NativeErrorCode))" }
    $inner = $inner.InnerException
  }
  Write-Error $msg
  exit 1
}`
