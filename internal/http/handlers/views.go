package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/models"
	"smartlocker-web/internal/security"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home",
	"login",
	"register",
	"dashboard",
	"lockers",
	"admin_lockers",
	"admin_confirm_delete",
	"loading",
}

// View is what every page template receives.
type View struct {
	Title   string
	User    *models.User
	Flashes []security.Flash
	// Refresh, when set, reloads the page after that many seconds.
	Refresh int
	Data    any
}

type Renderer struct {
	pages    map[string]*template.Template
	sessions *security.CookieSessions
	logger   *zap.Logger
}

func NewRenderer(sessions *security.CookieSessions, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := template.FuncMap{
		"title": func(s models.Status) string {
			if s == "" {
				return ""
			}
			return strings.ToUpper(string(s[:1])) + string(s[1:])
		},
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, sessions: sessions, logger: logger}, nil
}

// Render writes page with status. Pending flashes are consumed and the
// current user is filled in from the request's gateway.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, v View) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page", zap.String("page", page))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if g, ok := auth.FromContext(r.Context()); ok && v.User == nil {
		v.User = g.CurrentUser()
	}
	v.Flashes = append(v.Flashes, rd.sessions.Flashes(w, r)...)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		rd.logger.Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Loading renders the neutral placeholder shown while the session is still
// being restored. Page loads retry on their own; form submissions get a 503
// and are not replayed.
func (rd *Renderer) Loading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Retry-After", "2")
		rd.Render(w, r, http.StatusServiceUnavailable, "loading", View{Title: "Loading"})
		return
	}
	rd.Render(w, r, http.StatusOK, "loading", View{Title: "Loading", Refresh: 2})
}

// Flash queues a message for the next rendered page.
func (rd *Renderer) Flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if err := rd.sessions.AddFlash(w, r, kind, message); err != nil {
		rd.logger.Warn("store flash", zap.Error(err))
	}
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// gateway returns the request's auth gateway, answering 500 when the
// middleware did not install one.
func gateway(w http.ResponseWriter, r *http.Request) (*auth.Gateway, bool) {
	g, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return g, ok
}
