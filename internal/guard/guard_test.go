package guard

import (
	"errors"
	"testing"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/auth"
)

type subject struct {
	state auth.State
	admin bool
}

func (s subject) State() auth.State { return s.state }
func (s subject) IsAdmin() bool     { return s.admin }

func TestDecide_PendingNeverRedirects(t *testing.T) {
	g := Default()
	pending := subject{state: auth.StatePending}

	for _, route := range []string{"/dashboard", "/lockers", "/admin/lockers"} {
		d := g.Decide(route, pending)
		if d.Outcome != Wait || d.Location != "" {
			t.Errorf("Decide(%s, pending) = %+v, want wait", route, d)
		}
	}
	if d := g.Decide("/login", pending); d.Outcome != Allow {
		t.Errorf("public route while pending = %+v, want allow", d)
	}
}

func TestDecide_AnonymousRedirectsToLogin(t *testing.T) {
	g := Default()
	anon := subject{state: auth.StateAnonymous}

	for _, route := range []string{"/dashboard", "/lockers", "/lockers/{id}/reserve", "/admin/lockers"} {
		d := g.Decide(route, anon)
		if d.Outcome != Redirect || d.Location != LoginPath {
			t.Errorf("Decide(%s, anonymous) = %+v, want redirect to login", route, d)
		}
	}
	if d := g.Decide("/", anon); d.Outcome != Allow {
		t.Errorf("landing while anonymous = %+v", d)
	}
}

func TestDecide_NonAdminRedirectsToMemberHome(t *testing.T) {
	g := Default()
	member := subject{state: auth.StateAuthenticated}

	d := g.Decide("/admin/lockers", member)
	if d.Outcome != Redirect || d.Location != MemberHomePath {
		t.Fatalf("Decide(admin, member) = %+v, want redirect to %s", d, MemberHomePath)
	}
	if !errors.Is(d.Err(), apiclient.ErrAuthorization) {
		t.Errorf("Err = %v, want authorization error", d.Err())
	}
	if d := g.Decide("/lockers", member); d.Outcome != Allow || d.Err() != nil {
		t.Errorf("Decide(lockers, member) = %+v", d)
	}
}

func TestDecide_AdminAllowed(t *testing.T) {
	g := Default()
	admin := subject{state: auth.StateAuthenticated, admin: true}

	for _, route := range []string{"/admin/lockers", "/admin/lockers/{id}/status", "/lockers"} {
		if d := g.Decide(route, admin); d.Outcome != Allow {
			t.Errorf("Decide(%s, admin) = %+v, want allow", route, d)
		}
	}
}

func TestDecide_UnknownRouteGoesToLanding(t *testing.T) {
	g := Default()
	for _, s := range []subject{
		{state: auth.StatePending},
		{state: auth.StateAnonymous},
		{state: auth.StateAuthenticated, admin: true},
	} {
		d := g.Decide("/nowhere", s)
		if d.Outcome != Redirect || d.Location != LandingPath {
			t.Errorf("Decide(unknown, %v) = %+v, want redirect to landing", s.state, d)
		}
	}
}

func TestFallback(t *testing.T) {
	d := Default().Fallback()
	if d.Outcome != Redirect || d.Location != LandingPath || d.Err() != nil {
		t.Errorf("Fallback = %+v", d)
	}
}

func TestNew_CopiesTable(t *testing.T) {
	table := map[string]Access{"/x": Protected}
	g := New(table)
	table["/y"] = Public
	if g.Known("/y") {
		t.Error("guard shares the caller's map")
	}
	if !g.Known("/x") {
		t.Error("guard lost /x")
	}
}
