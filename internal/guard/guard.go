// Package guard decides which views a session may reach.
package guard

import (
	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/metrics"
)

// Access is the level a route requires.
type Access int

const (
	Public Access = iota
	Protected
	AdminOnly
)

const (
	LandingPath = "/"
	LoginPath   = "/login"
	// MemberHomePath is where authenticated users without admin rights land.
	MemberHomePath = "/lockers"
)

// Subject is the session state the guard reads. *auth.Gateway satisfies it.
type Subject interface {
	State() auth.State
	IsAdmin() bool
}

type Outcome int

const (
	Allow Outcome = iota
	// Wait renders a neutral loading placeholder; no navigation happens.
	Wait
	Redirect
)

type Decision struct {
	Outcome  Outcome
	Location string
	// Label names the decision for logs and metrics.
	Label string
}

// Err reports an authorization error for redirects caused by missing admin
// rights, and nil otherwise.
func (d Decision) Err() error {
	if d.Label != "redirect_member" {
		return nil
	}
	return &apiclient.Error{Kind: apiclient.KindAuthorization, Message: "Access denied. Admin privileges required."}
}

// Guard holds the route table keyed by route path template.
type Guard struct {
	routes map[string]Access
}

func New(routes map[string]Access) *Guard {
	cp := make(map[string]Access, len(routes))
	for k, v := range routes {
		cp[k] = v
	}
	return &Guard{routes: cp}
}

// Default is the route table of the locker front end.
func Default() *Guard {
	return New(map[string]Access{
		"/":                          Public,
		"/login":                     Public,
		"/admin-login":               Public,
		"/register":                  Public,
		"/healthz":                   Public,
		"/metrics":                   Public,
		"/dashboard":                 Protected,
		"/lockers":                   Protected,
		"/lockers/{id}/reserve":      Protected,
		"/logout":                    Protected,
		"/admin/lockers":             AdminOnly,
		"/admin/lockers/{id}/status": AdminOnly,
		"/admin/lockers/{id}/delete": AdminOnly,
	})
}

// Known reports whether route is in the table.
func (g *Guard) Known(route string) bool {
	_, ok := g.routes[route]
	return ok
}

func (g *Guard) Decide(route string, s Subject) Decision {
	d := g.decide(route, s)
	metrics.RecordGuardDecision(d.Label)
	return d
}

// Fallback is the decision for paths that match no route at all.
func (g *Guard) Fallback() Decision {
	d := fallback()
	metrics.RecordGuardDecision(d.Label)
	return d
}

func fallback() Decision {
	return Decision{Outcome: Redirect, Location: LandingPath, Label: "redirect_landing"}
}

func (g *Guard) decide(route string, s Subject) Decision {
	access, ok := g.routes[route]
	if !ok {
		return fallback()
	}
	if access == Public {
		return Decision{Outcome: Allow, Label: "allow"}
	}

	switch s.State() {
	case auth.StatePending:
		return Decision{Outcome: Wait, Label: "wait"}
	case auth.StateAuthenticated:
	default:
		return Decision{Outcome: Redirect, Location: LoginPath, Label: "redirect_login"}
	}

	if access == AdminOnly && !s.IsAdmin() {
		return Decision{Outcome: Redirect, Location: MemberHomePath, Label: "redirect_member"}
	}
	return Decision{Outcome: Allow, Label: "allow"}
}
