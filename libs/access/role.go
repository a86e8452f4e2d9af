package access

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts the canonical role names and the legacy aliases
// "patient" and "doctor".
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "patient":
		return RoleUser, nil
	case "provider", "doctor":
		return RoleProvider, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleProvider || r == RoleAdmin
}

// DashboardPath is the landing screen of a role.
func DashboardPath(r Role) string {
	switch r {
	case RoleProvider:
		return "/provider-dashboard"
	case RoleAdmin:
		return "/admin"
	default:
		return "/user-dashboard"
	}
}
