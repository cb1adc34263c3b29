package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/guard"
	"smartlocker-web/internal/http/handlers"
	"smartlocker-web/internal/security"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// withGateway restores the browser's session into a fresh gateway and
// attaches it to the request context.
func withGateway(d Deps) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, err := sessionStore(d, w, r)
			if err != nil {
				d.Logger.Error("resolve session store", zap.Error(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			g := auth.NewGateway(d.API, store, d.Logger)
			g.Restore(r.Context())
			next.ServeHTTP(w, r.WithContext(auth.WithGateway(r.Context(), g)))
		})
	}
}

func sessionStore(d Deps, w http.ResponseWriter, r *http.Request) (auth.Store, error) {
	if d.Backend == nil {
		return d.Sessions.Bind(w, r), nil
	}
	key, err := d.Sessions.ClientKey(w, r)
	if err != nil {
		return nil, err
	}
	return auth.Scoped(d.Backend, key), nil
}

func guardRoutes(g *guard.Guard, views *handlers.Renderer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gw, ok := auth.FromContext(r.Context())
			if !ok {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			route := ""
			if cur := mux.CurrentRoute(r); cur != nil {
				route, _ = cur.GetPathTemplate()
			}

			d := g.Decide(route, gw)
			switch d.Outcome {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.Wait:
				views.Loading(w, r)
			default:
				if err := d.Err(); err != nil {
					views.Flash(w, r, security.FlashError, err.Error())
				}
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			}
		})
	}
}
