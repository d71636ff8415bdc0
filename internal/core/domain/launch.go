package domain

// DesktopStatus is the payload-level outcome of a launch attempt.
type DesktopStatus string

const (
	DesktopLaunched      DesktopStatus = "launched"
	DesktopNotFound      DesktopStatus = "not_found"
	DesktopError         DesktopStatus = "error"
	DesktopNotConfigured DesktopStatus = "not_configured"
)

// LaunchStrategy names the branch the orchestrator took.
type LaunchStrategy string

const (
	StrategyURL           LaunchStrategy = "url"
	StrategyRemoteDesktop LaunchStrategy = "remote_desktop"
	StrategyExecutable    LaunchStrategy = "executable"
	StrategyProject       LaunchStrategy = "project"
	StrategyBundle        LaunchStrategy = "bundle"
)

// LaunchResult is returned to the caller for every launch of a known tool.
// A failed launch is still a successful call; DesktopStatus and Error carry the outcome.
type LaunchResult struct {
	Message       string         `json:"message"`
	LaunchURL     string         `json:"launchUrl"`
	LaunchType    LaunchType     `json:"launchType"`
	DesktopStatus DesktopStatus  `json:"desktopStatus,omitempty"`
	Error         string         `json:"error,omitempty"`
	Strategy      LaunchStrategy `json:"-"`
	Recorded      bool           `json:"-"`
}
