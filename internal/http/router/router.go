package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/guard"
	"smartlocker-web/internal/http/handlers"
	"smartlocker-web/internal/metrics"
	"smartlocker-web/internal/security"
)

type Deps struct {
	API      *apiclient.Client
	Sessions *security.CookieSessions
	// Backend keeps sessions server-side, keyed by a browser cookie. When
	// nil the session lives in the encrypted cookie itself.
	Backend auth.Backend
	Guard   *guard.Guard
	Poll    time.Duration
	Logger  *zap.Logger
}

func Setup(d Deps) (*mux.Router, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Guard == nil {
		d.Guard = guard.Default()
	}

	views, err := handlers.NewRenderer(d.Sessions, d.Logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Initialize handlers
	busy := handlers.NewBusy()
	pageHandler := handlers.NewPageHandler(views)
	authHandler := handlers.NewAuthHandler(views, d.Logger)
	lockerHandler := handlers.NewLockerHandler(d.API, views, busy, d.Poll, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.API, views, busy, d.Logger)

	r.HandleFunc("/", pageHandler.Home).Methods("GET")
	r.HandleFunc("/dashboard", pageHandler.Dashboard).Methods("GET")

	r.HandleFunc("/login", authHandler.LoginForm).Methods("GET")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/admin-login", authHandler.AdminLoginForm).Methods("GET")
	r.HandleFunc("/admin-login", authHandler.AdminLogin).Methods("POST")
	r.HandleFunc("/register", authHandler.RegisterForm).Methods("GET")
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	r.HandleFunc("/lockers", lockerHandler.List).Methods("GET")
	r.HandleFunc("/lockers/{id}/reserve", lockerHandler.Reserve).Methods("POST")

	r.HandleFunc("/admin/lockers", adminHandler.List).Methods("GET")
	r.HandleFunc("/admin/lockers", adminHandler.Create).Methods("POST")
	r.HandleFunc("/admin/lockers/{id}/status", adminHandler.UpdateStatus).Methods("POST")
	r.HandleFunc("/admin/lockers/{id}/delete", adminHandler.Delete).Methods("POST")

	r.HandleFunc("/healthz", handlers.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.Use(logRequests(d.Logger), withGateway(d), guardRoutes(d.Guard, views))

	// Route middleware does not run for unmatched paths.
	r.NotFoundHandler = logRequests(d.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, d.Guard.Fallback().Location, http.StatusSeeOther)
	}))

	return r, nil
}
