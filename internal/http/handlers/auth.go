package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/security"
)

type loginForm struct {
	Admin    bool
	Username string
	Error    string
}

type registerForm struct {
	Username string
	Email    string
	Error    string
}

type AuthHandler struct {
	views  *Renderer
	logger *zap.Logger
}

func NewAuthHandler(views *Renderer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{views: views, logger: logger}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "login", View{Title: "Login", Data: loginForm{}})
}

func (h *AuthHandler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "login", View{Title: "Admin login", Data: loginForm{Admin: true}})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin signs the user in and admits only administrators to the
// inventory view. A non-admin stays signed in but is told access is denied.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, admin bool) {
	title := "Login"
	if admin {
		title = "Admin login"
	}
	g, ok := gateway(w, r)
	if !ok {
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	form := loginForm{Admin: admin, Username: username}
	if username == "" || password == "" {
		form.Error = "Username and password are required"
		h.views.Render(w, r, http.StatusBadRequest, "login", View{Title: title, Data: form})
		return
	}

	sess, err := g.Login(r.Context(), username, password)
	if err != nil {
		form.Error = err.Error()
		h.views.Render(w, r, failureStatus(err), "login", View{Title: title, Data: form})
		return
	}

	switch {
	case !admin:
		redirect(w, r, "/lockers")
	case sess.User.IsAdmin:
		redirect(w, r, "/admin/lockers")
	default:
		form.Error = "Access denied. Admin privileges required."
		h.views.Render(w, r, http.StatusForbidden, "login", View{Title: title, Data: form})
	}
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "register", View{Title: "Register", Data: registerForm{}})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}

	form := registerForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	password := r.PostFormValue("password")
	if form.Username == "" {
		form.Error = "Username is required"
		h.views.Render(w, r, http.StatusBadRequest, "register", View{Title: "Register", Data: form})
		return
	}
	if err := security.CheckRegistration(password, r.PostFormValue("confirm_password")); err != nil {
		form.Error = err.Error()
		h.views.Render(w, r, http.StatusBadRequest, "register", View{Title: "Register", Data: form})
		return
	}

	if _, err := g.Register(r.Context(), form.Username, form.Email, password); err != nil {
		form.Error = err.Error()
		h.views.Render(w, r, failureStatus(err), "register", View{Title: "Register", Data: form})
		return
	}
	redirect(w, r, "/dashboard")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	g, ok := gateway(w, r)
	if !ok {
		return
	}
	if err := g.Logout(r.Context()); err != nil {
		h.logger.Warn("logout", zap.Error(err))
	}
	redirect(w, r, "/")
}

// failureStatus maps a backend rejection onto the status of the re-rendered
// form: 4xx answers pass through, anything else is a bad gateway.
func failureStatus(err error) int {
	code := apiclient.StatusCode(err)
	if code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}
