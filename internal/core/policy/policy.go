// Package policy decides tool visibility and page-level route gating.
//
// Route gating is advisory: every state-mutating API re-checks the
// Administrator role server-side through RequireAdmin.
package policy

import (
	"net/url"
	"strings"

	"github.com/billytalbutt/traka-launchpad/internal/core/domain"
)

const (
	LoginPath     = "/login"
	PendingPath   = "/pending"
	DashboardPath = "/dashboard"
	AdminPrefix   = "/admin"
)

var (
	publicPrefixes         = []string{"/login", "/register", "/api/auth"}
	approvalExemptPrefixes = []string{PendingPath, "/api/auth/signout"}
)

// Decision is the outcome of a route check. RedirectTo is empty when Allow is true.
type Decision struct {
	Allow      bool
	RedirectTo string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(to string) Decision { return Decision{RedirectTo: to} }

// CanViewTool reports whether role may see tool. Administrators see everything;
// an empty allow-list means every role.
func CanViewTool(role domain.Role, tool *domain.Tool) bool {
	if role == domain.RoleAdmin {
		return true
	}
	if len(tool.AllowedRoles) == 0 {
		return true
	}
	return tool.AllowedRoles.Contains(role)
}

// FilterVisible returns the subset of tools role may see, preserving order.
func FilterVisible(role domain.Role, tools []*domain.Tool) []*domain.Tool {
	out := make([]*domain.Tool, 0, len(tools))
	for _, t := range tools {
		if CanViewTool(role, t) {
			out = append(out, t)
		}
	}
	return out
}

// IsRouteAllowed gates page navigation. p is nil for anonymous requests.
func IsRouteAllowed(p *domain.Principal, path string) Decision {
	if hasAnyPrefix(path, publicPrefixes) {
		return allow()
	}
	if p == nil {
		return redirect(LoginPath + "?callbackUrl=" + url.QueryEscape(path))
	}
	if p.ExplicitlyUnapproved() && !hasAnyPrefix(path, approvalExemptPrefixes) {
		return redirect(PendingPath)
	}
	if hasPrefix(path, AdminPrefix) && !p.IsAdmin() {
		return redirect(DashboardPath)
	}
	return allow()
}

// RequireAdmin is the server-side check every admin operation performs.
func RequireAdmin(p domain.Principal) bool {
	return p.IsAdmin()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, pre := range prefixes {
		if hasPrefix(path, pre) {
			return true
		}
	}
	return false
}

// hasPrefix matches whole path segments so "/administrator" is not under "/admin".
func hasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}
