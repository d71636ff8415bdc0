package domain

import (
	"fmt"
	"strings"
)

// Role is the single role held by a user.
type Role string

const (
	RoleAdmin         Role = "ADMIN"
	RoleAppSupport    Role = "APP_SUPPORT"
	RoleEUTechSupport Role = "EU_TECH_SUPPORT"
	RoleUKTechSupport Role = "UK_TECH_SUPPORT"
)

// DefaultRole is assigned to every self-registered user after the first.
const DefaultRole = RoleAppSupport

// AllRoles lists the role enumeration in display order.
var AllRoles = []Role{RoleAdmin, RoleAppSupport, RoleEUTechSupport, RoleUKTechSupport}

var roleLabels = map[Role]string{
	RoleAdmin:         "Administrator",
	RoleAppSupport:    "App Support",
	RoleEUTechSupport: "EU Tech Support",
	RoleUKTechSupport: "UK Tech Support",
}

// Valid reports whether r belongs to the role enumeration.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the human-readable role name.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// ParseRole normalises s (trimmed, upper-cased) and checks it against the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// RoleSet is an ordered, duplicate-free set of roles. An empty set means "every role".
type RoleSet []Role

// ParseRoleSet validates every entry of names and drops duplicates, keeping first-seen order.
func ParseRoleSet(names []string) (RoleSet, error) {
	if len(names) == 0 {
		return nil, nil
	}
	set := make(RoleSet, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		if !set.Contains(r) {
			set = append(set, r)
		}
	}
	if len(set) == 0 {
		return nil, nil
	}
	return set, nil
}

// ParseRoleList accepts the legacy comma-separated form ("ADMIN,APP_SUPPORT").
func ParseRoleList(s string) (RoleSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return ParseRoleSet(strings.Split(s, ","))
}

// Contains reports whether r is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	for _, x := range s {
		if x == r {
			return true
		}
	}
	return false
}

// Strings returns the role names.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
