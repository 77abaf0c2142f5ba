// Package routes decides which view a path resolves to for the current role.
package routes

import (
	"path"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/enums"
)

const (
	Root           = "/"
	Home           = "/home"
	Products       = "/products"
	Cart           = "/cart"
	CreateAccount  = "/create-account"
	Order          = "/order"
	Login          = "/login"
	AdminLogin     = "/admin/login"
	AdminDashboard = "/admin-dashboard"
)

var known = map[string]struct{}{
	Home:           {},
	Products:       {},
	Cart:           {},
	CreateAccount:  {},
	Order:          {},
	Login:          {},
	AdminLogin:     {},
	AdminDashboard: {},
}

// RoleSource is the session view the guard follows.
type RoleSource interface {
	CurrentRole() enums.Role
	Subscribe(fn session.Listener) func()
}

// Guard tracks the session role through a subscription, so a login or logout
// changes resolution on the next call.
type Guard struct {
	mu          sync.RWMutex
	role        enums.Role
	unsubscribe func()
}

func NewGuard(src RoleSource) *Guard {
	g := &Guard{role: enums.RoleGuest}
	if src == nil {
		g.unsubscribe = func() {}
		return g
	}
	g.unsubscribe = src.Subscribe(g.setRole)
	g.setRole(src.CurrentRole())
	return g
}

func (g *Guard) setRole(role enums.Role) {
	g.mu.Lock()
	g.role = role
	g.mu.Unlock()
}

func (g *Guard) Role() enums.Role {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.role
}

// Resolve returns the path to show and whether it is the one requested.
// The dashboard needs the admin role; the root and unknown paths land on the
// role's default view.
func (g *Guard) Resolve(requested string) (string, bool) {
	role := g.Role()
	p := clean(requested)

	if _, ok := known[p]; !ok {
		return landing(role), false
	}
	if p == AdminDashboard && role != enums.RoleAdmin {
		return Home, false
	}
	return p, true
}

// Close stops following the session.
func (g *Guard) Close() {
	g.unsubscribe()
}

func landing(role enums.Role) string {
	if role == enums.RoleAdmin {
		return AdminDashboard
	}
	return Home
}

func clean(requested string) string {
	trimmed := strings.TrimSpace(requested)
	if trimmed == "" {
		return Root
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return path.Clean(trimmed)
}
