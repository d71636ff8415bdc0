package domain

import (
	"fmt"
	"time"
)

// ServiceConfig is one entry of the static service catalog.
type ServiceConfig struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
	LogProvider string `json:"logProvider" yaml:"logProvider"`
}

// ServiceStatus is the observed running state of an OS service.
type ServiceStatus string

const (
	ServiceRunning  ServiceStatus = "Running"
	ServiceStopped  ServiceStatus = "Stopped"
	ServiceStarting ServiceStatus = "Starting"
	ServiceStopping ServiceStatus = "Stopping"
	ServicePaused   ServiceStatus = "Paused"
	ServiceNotFound ServiceStatus = "NotFound"
	ServiceError    ServiceStatus = "Error"
)

// ServiceState is a live status snapshot. Exists is false when the OS does not know the service.
type ServiceState struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Status      ServiceStatus `json:"status"`
	StartType   string        `json:"startType"`
	Exists      bool          `json:"exists"`
	Error       string        `json:"error,omitempty"`
}

// LogEntry is one event-log line attributed to a service.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Source  string    `json:"source"`
}

// ServiceAction is a control operation on a service.
type ServiceAction string

const (
	ActionStart   ServiceAction = "start"
	ActionStop    ServiceAction = "stop"
	ActionRestart ServiceAction = "restart"
)

// ParseServiceAction validates s.
func ParseServiceAction(s string) (ServiceAction, error) {
	switch a := ServiceAction(s); a {
	case ActionStart, ActionStop, ActionRestart:
		return a, nil
	}
	return "", NewValidationError(fmt.Sprintf("action must be one of: start stop restart (got %q)", s))
}
