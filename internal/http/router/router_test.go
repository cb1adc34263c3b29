package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/models"
	"smartlocker-web/internal/security"
)

// lockerAPI is an in-memory stand-in for the locker REST backend.
type lockerAPI struct {
	mu           sync.Mutex
	lockers      map[int]map[string]any
	nextID       int
	lastDuration any
	lastPrice    any
	down         bool
}

func newLockerAPI() *lockerAPI {
	return &lockerAPI{
		lockers: map[int]map[string]any{
			1: {"id": 1, "locker_number": "A101", "location": "Main Hall", "price_per_hour": "2.50", "status": "available"},
		},
		nextID: 2,
	}
}

func (a *lockerAPI) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login/", a.login).Methods("POST")
	r.HandleFunc("/api/lockers/", a.authed(false, a.list)).Methods("GET")
	r.HandleFunc("/api/lockers/{id}/reserve/", a.authed(false, a.reserve)).Methods("POST")
	r.HandleFunc("/api/admin/lockers/", a.authed(true, a.list)).Methods("GET")
	r.HandleFunc("/api/admin/lockers/", a.authed(true, a.create)).Methods("POST")
	r.HandleFunc("/api/admin/lockers/stats/", a.authed(true, a.stats)).Methods("GET")
	r.HandleFunc("/api/admin/lockers/{id}/", a.authed(true, a.update)).Methods("PUT")
	r.HandleFunc("/api/admin/lockers/{id}/", a.authed(true, a.remove)).Methods("DELETE")
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *lockerAPI) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "secret1" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	admin := body["username"] == "root"
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  "token-" + body["username"],
		"refresh": "refresh-" + body["username"],
		"user":    map[string]any{"id": len(body["username"]), "username": body["username"], "is_admin": admin},
	})
}

func (a *lockerAPI) authed(admin bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !strings.HasPrefix(token, "token-") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		if admin && token != "token-root" {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		next(w, r)
	}
}

func (a *lockerAPI) list(w http.ResponseWriter, r *http.Request) {
	if a.down {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "Service temporarily unavailable."})
		return
	}
	out := []map[string]any{}
	for id := 1; id < a.nextID; id++ {
		if l, ok := a.lockers[id]; ok {
			out = append(out, l)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *lockerAPI) reserve(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	a.lastDuration = body["duration"]
	l, ok := a.lockers[id]
	if !ok || l["status"] != "available" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Locker no longer available"})
		return
	}
	l["status"] = "occupied"
	writeJSON(w, http.StatusOK, map[string]string{"message": "Locker reserved successfully"})
}

func (a *lockerAPI) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	a.lastPrice = body["price_per_hour"]
	body["id"] = a.nextID
	a.lockers[a.nextID] = body
	a.nextID++
	writeJSON(w, http.StatusCreated, body)
}

func (a *lockerAPI) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"total_lockers": len(a.lockers)})
}

func (a *lockerAPI) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	l, ok := a.lockers[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	l["status"] = body["status"]
	writeJSON(w, http.StatusOK, l)
}

func (a *lockerAPI) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	delete(a.lockers, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *lockerAPI) setDown(down bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.down = down
}

func (a *lockerAPI) snapshot() (duration, price any, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastDuration, a.lastPrice, len(a.lockers)
}

// browser drives the front end with a cookie jar and does not follow
// redirects, so each hop can be asserted.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

type testDeps struct {
	api      *lockerAPI
	frontend *httptest.Server
}

func setup(t *testing.T, configure func(*Deps)) *testDeps {
	t.Helper()
	api := newLockerAPI()
	backend := httptest.NewServer(api.handler())
	t.Cleanup(backend.Close)

	keys, err := security.DeriveKeys("router-test-secret-0123456789")
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	d := Deps{
		API:      apiclient.New(backend.URL, 5*time.Second, zap.NewNop()),
		Sessions: security.NewCookieSessions(keys, false),
		Poll:     10 * time.Second,
		Logger:   zap.NewNop(),
	}
	if configure != nil {
		configure(&d)
	}
	r, err := Setup(d)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	frontend := httptest.NewServer(r)
	t.Cleanup(frontend.Close)
	return &testDeps{api: api, frontend: frontend}
}

func (td *testDeps) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &browser{
		t:    t,
		base: td.frontend.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path string, form url.Values) (int, string, http.Header) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, b.base+path, body)
	if err != nil {
		b.t.Fatalf("new request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw), resp.Header
}

func (b *browser) get(path string) (int, string, http.Header) {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) (int, string, http.Header) {
	return b.do(http.MethodPost, path, form)
}

func expectRedirect(t *testing.T, status int, h http.Header, want string) {
	t.Helper()
	if status != http.StatusSeeOther || h.Get("Location") != want {
		t.Fatalf("got %d Location=%q, want 303 to %s", status, h.Get("Location"), want)
	}
}

func (b *browser) login(path, username string) (int, http.Header) {
	status, _, h := b.post(path, url.Values{"username": {username}, "password": {"secret1"}})
	return status, h
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	b := setup(t, nil).browser(t)

	for _, path := range []string{"/lockers", "/dashboard", "/admin/lockers"} {
		status, _, h := b.get(path)
		expectRedirect(t, status, h, "/login")
	}
	status, body, _ := b.get("/login")
	if status != http.StatusOK || !strings.Contains(body, `action="/login"`) {
		t.Errorf("login page = %d", status)
	}
}

func TestUnknownPathGoesToLanding(t *testing.T) {
	td := setup(t, nil)
	anon := td.browser(t)
	status, _, h := anon.get("/nowhere/at/all")
	expectRedirect(t, status, h, "/")

	member := td.browser(t)
	member.login("/login", "amy")
	status, _, h = member.get("/lockers/abc/refund")
	expectRedirect(t, status, h, "/")
}

func TestReserveFlow(t *testing.T) {
	td := setup(t, nil)
	b := td.browser(t)

	status, h := b.login("/login", "amy")
	expectRedirect(t, status, h, "/lockers")

	status, body, _ := b.get("/lockers")
	if status != http.StatusOK {
		t.Fatalf("GET /lockers = %d", status)
	}
	for _, want := range []string{"A101", "Main Hall", "$2.50", `content="10"`, `action="/lockers/1/reserve"`, "$7.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("lockers page missing %q", want)
		}
	}

	status, _, h = b.post("/lockers/1/reserve", url.Values{"duration": {"3"}})
	expectRedirect(t, status, h, "/lockers")
	if d, _, _ := td.api.snapshot(); d != float64(3) {
		t.Errorf("backend duration = %v, want 3", d)
	}

	_, body, _ = b.get("/lockers")
	if !strings.Contains(body, "Locker reserved successfully!") {
		t.Error("success flash missing")
	}
	if !strings.Contains(body, "Occupied") || strings.Contains(body, `action="/lockers/1/reserve"`) {
		t.Error("refetched directory does not show A101 occupied")
	}

	b.post("/lockers/1/reserve", url.Values{"duration": {"3"}})
	_, body, _ = b.get("/lockers")
	if !strings.Contains(body, "Reservation failed: Locker no longer available") {
		t.Error("conflict message not surfaced verbatim")
	}
}

func TestLockersReloadKeepsLastListOnFailure(t *testing.T) {
	td := setup(t, nil)
	b := td.browser(t)
	b.login("/login", "amy")

	_, body, _ := b.get("/lockers")
	if !strings.Contains(body, "A101") {
		t.Fatal("first load does not list A101")
	}

	td.api.setDown(true)
	status, body, _ := b.get("/lockers")
	if status != http.StatusOK {
		t.Fatalf("GET /lockers during outage = %d", status)
	}
	if !strings.Contains(body, "Failed to fetch lockers") {
		t.Error("fetch error not shown inline")
	}
	if !strings.Contains(body, "A101") || strings.Contains(body, "No lockers available") {
		t.Error("last good list dropped after a failed reload")
	}

	// A browser that never loaded the list has nothing to fall back to.
	other := td.browser(t)
	other.login("/login", "bob")
	_, body, _ = other.get("/lockers")
	if strings.Contains(body, "A101") || !strings.Contains(body, "No lockers available") {
		t.Error("another browser was shown a list it never loaded")
	}

	td.api.setDown(false)
	_, body, _ = b.get("/lockers")
	if strings.Contains(body, "Failed to fetch lockers") || !strings.Contains(body, "A101") {
		t.Error("recovered reload still shows the error")
	}
}

func TestLockersShowsStatusCounts(t *testing.T) {
	td := setup(t, nil)
	b := td.browser(t)
	b.login("/login", "amy")

	_, body, _ := b.get("/lockers")
	for _, want := range []string{"<strong>1</strong> Total Lockers", "<strong>1</strong> Ready to Reserve", "<strong>0</strong> Currently in Use"} {
		if !strings.Contains(body, want) {
			t.Errorf("lockers page missing %q", want)
		}
	}

	b.post("/lockers/1/reserve", url.Values{"duration": {"2"}})
	_, body, _ = b.get("/lockers")
	if !strings.Contains(body, "<strong>0</strong> Ready to Reserve") || !strings.Contains(body, "<strong>1</strong> Currently in Use") {
		t.Error("counts not updated after reservation")
	}
}

func TestReserve_RejectsNonPositiveID(t *testing.T) {
	td := setup(t, nil)
	b := td.browser(t)
	b.login("/login", "amy")

	status, _, _ := b.post("/lockers/0/reserve", url.Values{"duration": {"1"}})
	if status != http.StatusBadRequest {
		t.Errorf("POST /lockers/0/reserve = %d, want 400", status)
	}
	if d, _, _ := td.api.snapshot(); d != nil {
		t.Errorf("backend received a reservation: duration %v", d)
	}
}

func TestMemberCannotReachAdminViews(t *testing.T) {
	b := setup(t, nil).browser(t)
	b.login("/login", "amy")

	status, _, h := b.get("/admin/lockers")
	expectRedirect(t, status, h, "/lockers")
	_, body, _ := b.get("/lockers")
	if !strings.Contains(body, "Access denied. Admin privileges required.") {
		t.Error("authorization flash missing")
	}

	status, _, h = b.post("/admin/lockers/1/delete", url.Values{"confirm": {"yes"}})
	expectRedirect(t, status, h, "/lockers")
}

func TestAdminLogin_NonAdminDenied(t *testing.T) {
	b := setup(t, nil).browser(t)
	status, body, _ := b.post("/admin-login", url.Values{"username": {"amy"}, "password": {"secret1"}})
	if status != http.StatusForbidden || !strings.Contains(body, "Access denied. Admin privileges required.") {
		t.Errorf("admin login as member = %d", status)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	b := setup(t, nil).browser(t)
	status, body, _ := b.post("/login", url.Values{"username": {"amy"}, "password": {"nope"}})
	if status != http.StatusUnauthorized || !strings.Contains(body, "Invalid username or password") {
		t.Errorf("bad login = %d", status)
	}
	status, _, h := b.get("/lockers")
	expectRedirect(t, status, h, "/login")
}

func TestAdminInventoryFlow(t *testing.T) {
	td := setup(t, nil)
	b := td.browser(t)

	status, h := b.login("/admin-login", "root")
	expectRedirect(t, status, h, "/admin/lockers")

	status, body, _ := b.get("/admin/lockers")
	if status != http.StatusOK || !strings.Contains(body, "A101") {
		t.Fatalf("admin list = %d", status)
	}

	form := url.Values{"locker_number": {"B12"}, "location": {"Gym"}, "price_per_hour": {"1.50"}, "status": {"available"}}
	status, _, h = b.post("/admin/lockers", form)
	expectRedirect(t, status, h, "/admin/lockers")
	if _, price, _ := td.api.snapshot(); price != 1.5 {
		t.Errorf("backend price = %#v, want 1.5", price)
	}
	_, body, _ = b.get("/admin/lockers")
	if !strings.Contains(body, "Locker B12 added successfully!") || !strings.Contains(body, "B12") {
		t.Error("created locker not shown")
	}

	status, _, h = b.post("/admin/lockers/1/status", url.Values{"status": {"maintenance"}})
	expectRedirect(t, status, h, "/admin/lockers")
	_, body, _ = b.get("/admin/lockers")
	if !strings.Contains(body, "Locker A101 status updated to maintenance") {
		t.Error("status flash missing")
	}

	status, body, _ = b.post("/admin/lockers/2/delete", nil)
	if status != http.StatusOK || !strings.Contains(body, "Are you sure you want to delete this locker?") {
		t.Fatalf("delete without confirm = %d", status)
	}
	if _, _, n := td.api.snapshot(); n != 2 {
		t.Fatalf("locker deleted without confirmation")
	}

	status, _, h = b.post("/admin/lockers/2/delete", url.Values{"confirm": {"yes"}})
	expectRedirect(t, status, h, "/admin/lockers")
	if _, _, n := td.api.snapshot(); n != 1 {
		t.Errorf("lockers = %d after delete, want 1", n)
	}
	_, body, _ = b.get("/admin/lockers")
	if !strings.Contains(body, "Locker B12 deleted successfully!") {
		t.Error("delete flash missing")
	}
}

func TestLogout(t *testing.T) {
	b := setup(t, nil).browser(t)
	b.login("/login", "amy")

	status, _, h := b.post("/logout", nil)
	expectRedirect(t, status, h, "/")
	status, _, h = b.get("/lockers")
	expectRedirect(t, status, h, "/login")
}

func TestRegister_ValidatesBeforeCallingBackend(t *testing.T) {
	b := setup(t, nil).browser(t)
	form := url.Values{"username": {"new"}, "email": {"n@example.com"}, "password": {"abcdef"}, "confirm_password": {"abcdeg"}}
	status, body, _ := b.post("/register", form)
	if status != http.StatusBadRequest || !strings.Contains(body, "Passwords do not match") {
		t.Errorf("register mismatch = %d", status)
	}
	form.Set("password", "abc")
	form.Set("confirm_password", "abc")
	_, body, _ = b.post("/register", form)
	if !strings.Contains(body, "Password must be at least 6 characters long") {
		t.Error("short password accepted")
	}
}

// downBackend is a session backend whose storage cannot be reached.
type downBackend struct{}

var errDown = errors.New("connection refused")

func (downBackend) Get(context.Context, string) (*models.Session, error) { return nil, errDown }
func (downBackend) Put(context.Context, string, *models.Session) error   { return errDown }
func (downBackend) Delete(context.Context, string) error                 { return errDown }

func TestStoreOutageRendersLoading(t *testing.T) {
	b := setup(t, func(d *Deps) { d.Backend = downBackend{} }).browser(t)

	status, body, h := b.get("/lockers")
	if status != http.StatusOK || !strings.Contains(body, "Loading...") || h.Get("Location") != "" {
		t.Errorf("GET /lockers while pending = %d %q", status, h.Get("Location"))
	}
	status, _, _ = b.post("/lockers/1/reserve", url.Values{"duration": {"1"}})
	if status != http.StatusServiceUnavailable {
		t.Errorf("POST while pending = %d, want 503", status)
	}

	status, _, _ = b.get("/")
	if status != http.StatusOK {
		t.Errorf("public page while pending = %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	b := setup(t, nil).browser(t)
	if status, body, _ := b.get("/healthz"); status != http.StatusOK || !strings.Contains(body, "ok") {
		t.Errorf("/healthz = %d %s", status, body)
	}
	if status, _, _ := b.get("/metrics"); status != http.StatusOK {
		t.Errorf("/metrics = %d", status)
	}
}
