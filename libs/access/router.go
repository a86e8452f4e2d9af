package access

import (
	"fmt"
	"slices"
	"strings"
)

const LoginPath = "/login"

// Route guards a screen. An empty Roles list admits any signed-in principal.
type Route struct {
	Path  string
	Roles []Role
}

// Principal is the signed-in account, if any.
type Principal struct {
	ID   string
	Role Role
}

type Outcome int

const (
	Allowed Outcome = iota
	Redirect
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not found"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Decision struct {
	Outcome Outcome
	Target  string // set for Redirect
}

type Router struct {
	routes map[string]Route
}

func NewRouter(routes ...Route) *Router {
	r := &Router{routes: make(map[string]Route, len(routes))}
	for _, rt := range routes {
		r.routes[cleanPath(rt.Path)] = rt
	}
	return r
}

// DefaultRoutes are the screens of the application and who may open them.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/user-dashboard", Roles: []Role{RoleUser}},
		{Path: "/providers", Roles: []Role{RoleUser}},
		{Path: "/book", Roles: []Role{RoleUser}},
		{Path: "/appointments", Roles: []Role{RoleUser}},
		{Path: "/provider-dashboard", Roles: []Role{RoleProvider}},
		{Path: "/my-appointments", Roles: []Role{RoleProvider}},
		{Path: "/admin", Roles: []Role{RoleAdmin}},
		{Path: "/profile"},
	}
}

// Resolve decides what happens when p (nil when signed out) opens path.
func (r *Router) Resolve(path string, p *Principal) Decision {
	path = cleanPath(path)
	if path == "/" {
		if p == nil {
			return Decision{Outcome: Redirect, Target: LoginPath}
		}
		return Decision{Outcome: Redirect, Target: DashboardPath(p.Role)}
	}
	rt, ok := r.routes[path]
	if !ok {
		return Decision{Outcome: NotFound}
	}
	if p == nil {
		return Decision{Outcome: Redirect, Target: LoginPath}
	}
	if len(rt.Roles) > 0 && !slices.Contains(rt.Roles, p.Role) {
		return Decision{Outcome: Redirect, Target: DashboardPath(p.Role)}
	}
	return Decision{Outcome: Allowed}
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
