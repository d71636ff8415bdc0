package domain

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LaunchType tells the orchestrator how to interpret Tool.LaunchURL.
type LaunchType string

const (
	LaunchWeb      LaunchType = "WEB"
	LaunchDesktop  LaunchType = "DESKTOP"
	LaunchProtocol LaunchType = "PROTOCOL"
)

// Valid reports whether t is a known launch type.
func (t LaunchType) Valid() bool {
	switch t {
	case LaunchWeb, LaunchDesktop, LaunchProtocol:
		return true
	}
	return false
}

// Tool is an entry on the launchpad dashboard.
type Tool struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	IconName     string     `json:"iconName"`
	Color        string     `json:"color,omitempty"`
	LaunchType   LaunchType `json:"launchType"`
	LaunchURL    string     `json:"launchUrl,omitempty"`
	Category     string     `json:"category"`
	Version      string     `json:"version,omitempty"`
	SortOrder    int        `json:"sortOrder"`
	IsActive     bool       `json:"isActive"`
	AllowedRoles RoleSet    `json:"allowedRoles,omitempty"`
	HelpText     string     `json:"helpText,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ToolIDFromName derives the stable tool id: lower-cased, whitespace runs replaced by "-".
func ToolIDFromName(name string) string {
	lower := cases.Lower(language.Und).String(strings.TrimSpace(name))
	return whitespaceRun.ReplaceAllString(lower, "-")
}

// Favorite pins a tool for a user. Unique per (UserID, ToolID).
type Favorite struct {
	UserID    string    `json:"userId"`
	ToolID    string    `json:"toolId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToolLaunch records a user's intent to open a tool.
type ToolLaunch struct {
	UserID     string    `json:"userId"`
	ToolID     string    `json:"toolId"`
	LaunchedAt time.Time `json:"launchedAt"`
}
