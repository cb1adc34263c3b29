// Package auth establishes, persists and exposes the identity of the user
// behind one client: register and login exchanges, session restoration,
// logout and the authorization header attached to every backend call.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"smartlocker-web/internal/apiclient"
	"smartlocker-web/internal/models"
)

// State is the restoration state observed by the route guard.
type State int

const (
	// StatePending means the session is being restored or a login or
	// registration exchange is in flight.
	StatePending State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type tokenResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user"`
}

// Gateway is the only writer of its Store. It is safe for concurrent use.
type Gateway struct {
	api    *apiclient.Client
	store  Store
	logger *zap.Logger

	mu       sync.RWMutex
	sess     *models.Session
	restored bool
	inflight int
}

func NewGateway(api *apiclient.Client, store Store, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{api: api, store: store, logger: logger}
}

// Restore rehydrates the session from the store. Missing or unusable data
// clears the store and leaves the gateway anonymous. When the store cannot
// be reached the gateway stays pending so the caller can try again.
func (g *Gateway) Restore(ctx context.Context) State {
	sess, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn("session store unavailable", zap.Error(err))
		return g.State()
	}
	if sess.Validate() != nil {
		if err := g.store.Clear(ctx); err != nil {
			g.logger.Warn("clear unusable session", zap.Error(err))
		}
		sess = nil
	}

	g.mu.Lock()
	g.sess = sess.Clone()
	g.restored = true
	g.mu.Unlock()
	return g.State()
}

func (g *Gateway) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch {
	case !g.restored || g.inflight > 0:
		return StatePending
	case g.sess != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Register creates an account and signs the new user in.
func (g *Gateway) Register(ctx context.Context, username, email, password string) (*models.Session, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	return g.exchange(ctx, "register", "/api/auth/register/", body, apiclient.KindRegistration, "Registration", username)
}

func (g *Gateway) Login(ctx context.Context, username, password string) (*models.Session, error) {
	body := map[string]string{"username": username, "password": password}
	return g.exchange(ctx, "login", "/api/auth/login/", body, apiclient.KindAuthentication, "Login", username)
}

func (g *Gateway) exchange(ctx context.Context, op, path string, body any, kind apiclient.Kind, action, username string) (*models.Session, error) {
	g.begin()
	defer g.end()

	var resp tokenResponse
	if err := g.api.Do(ctx, op, http.MethodPost, path, jsonHeader(), body, &resp); err != nil {
		g.logger.Warn(action+" rejected",
			zap.String("username", username),
			zap.Int("status", apiclient.StatusCode(err)),
		)
		return nil, apiclient.Fail(kind, err, failedWithStatus(action, err))
	}

	sess := &models.Session{AccessToken: resp.Access, RefreshToken: resp.Refresh, User: resp.User}
	if err := sess.Validate(); err != nil {
		return nil, &apiclient.Error{Kind: kind, Message: action + " failed: incomplete response from server", Err: err}
	}
	if err := g.store.Save(ctx, sess); err != nil {
		return nil, &apiclient.Error{Kind: kind, Message: action + " failed: could not store session", Err: err}
	}

	g.mu.Lock()
	g.sess = sess.Clone()
	g.restored = true
	g.mu.Unlock()

	g.logger.Info(action+" succeeded",
		zap.String("username", sess.User.Username),
		zap.Bool("is_admin", sess.User.IsAdmin),
	)
	return sess.Clone(), nil
}

// Logout forgets the session locally; the backend is not contacted.
func (g *Gateway) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.sess = nil
	g.restored = true
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// AuthorizationHeader builds the headers for authenticated calls. Without a
// session the bearer value is empty and the backend rejects the call.
func (g *Gateway) AuthorizationHeader() http.Header {
	g.mu.RLock()
	token := ""
	if g.sess != nil {
		token = g.sess.AccessToken
	}
	g.mu.RUnlock()

	h := jsonHeader()
	h.Set("Authorization", "Bearer "+token)
	return h
}

func (g *Gateway) CurrentUser() *models.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.sess == nil || g.sess.User == nil {
		return nil
	}
	u := *g.sess.User
	return &u
}

func (g *Gateway) IsAuthenticated() bool {
	return g.CurrentUser() != nil
}

func (g *Gateway) IsAdmin() bool {
	u := g.CurrentUser()
	return u != nil && u.IsAdmin
}

// Session returns a copy of the current session, or nil.
func (g *Gateway) Session() *models.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sess.Clone()
}

func (g *Gateway) begin() {
	g.mu.Lock()
	g.inflight++
	g.mu.Unlock()
}

func (g *Gateway) end() {
	g.mu.Lock()
	g.inflight--
	g.mu.Unlock()
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

func failedWithStatus(action string, err error) string {
	if code := apiclient.StatusCode(err); code != 0 {
		return fmt.Sprintf("%s failed with status %d", action, code)
	}
	return action + " failed"
}

type ctxKey struct{}

// WithGateway attaches g to ctx for request handlers.
func WithGateway(ctx context.Context, g *Gateway) context.Context {
	return context.WithValue(ctx, ctxKey{}, g)
}

func FromContext(ctx context.Context) (*Gateway, bool) {
	g, ok := ctx.Value(ctxKey{}).(*Gateway)
	return g, ok && g != nil
}
