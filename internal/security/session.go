package security

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"smartlocker-web/internal/auth"
	"smartlocker-web/internal/models"
)

const (
	sessionCookie = "smartlocker_session"
	clientCookie  = "smartlocker_client"
	flashCookie   = "smartlocker_flash"

	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUserData     = "user_data"
	keyClientID     = "client_id"

	sessionMaxAge = 7 * 24 * 60 * 60
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// CookieSessions keeps browser state in authenticated, encrypted cookies.
type CookieSessions struct {
	store *sessions.CookieStore
}

func NewCookieSessions(keys CookieKeys, secure bool) *CookieSessions {
	store := sessions.NewCookieStore(keys.HashKey, keys.BlockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(sessionMaxAge)
	return &CookieSessions{store: store}
}

// Bind returns the session Store of the browser behind r. Writes go to w as
// Set-Cookie headers, so Save and Clear must run before the body is written.
func (c *CookieSessions) Bind(w http.ResponseWriter, r *http.Request) auth.Store {
	return &cookieStore{sessions: c.store, w: w, r: r}
}

// ClientKey returns the opaque key identifying this browser to server-side
// session backends, issuing one on first use.
func (c *CookieSessions) ClientKey(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := c.store.Get(r, clientCookie)
	if err == nil {
		if id, ok := sess.Values[keyClientID].(string); ok && id != "" {
			return id, nil
		}
	}
	id := uuid.NewString()
	sess.Values[keyClientID] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

func (c *CookieSessions) AddFlash(w http.ResponseWriter, r *http.Request, kind, message string) error {
	sess, _ := c.store.Get(r, flashCookie)
	b, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return err
	}
	sess.AddFlash(string(b))
	return sess.Save(r, w)
}

// Flashes pops the pending flash messages.
func (c *CookieSessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := c.store.Get(r, flashCookie)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var f Flash
		if json.Unmarshal([]byte(s), &f) == nil {
			out = append(out, f)
		}
	}
	_ = sess.Save(r, w)
	return out
}

type cookieStore struct {
	sessions *sessions.CookieStore
	w        http.ResponseWriter
	r        *http.Request
}

// Load treats a cookie that fails to authenticate or decode as no session.
func (s *cookieStore) Load(ctx context.Context) (*models.Session, error) {
	sess, err := s.sessions.Get(s.r, sessionCookie)
	if err != nil {
		return nil, nil
	}
	access, _ := sess.Values[keyAccessToken].(string)
	refresh, _ := sess.Values[keyRefreshToken].(string)
	userData, _ := sess.Values[keyUserData].(string)
	if access == "" || userData == "" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(userData), &u); err != nil {
		return nil, nil
	}
	return &models.Session{AccessToken: access, RefreshToken: refresh, User: &u}, nil
}

func (s *cookieStore) Save(ctx context.Context, in *models.Session) error {
	if err := in.Validate(); err != nil {
		return err
	}
	userData, err := json.Marshal(in.User)
	if err != nil {
		return err
	}
	sess, _ := s.sessions.Get(s.r, sessionCookie)
	sess.Values[keyAccessToken] = in.AccessToken
	sess.Values[keyRefreshToken] = in.RefreshToken
	sess.Values[keyUserData] = string(userData)
	sess.Options.MaxAge = sessionMaxAge
	return sess.Save(s.r, s.w)
}

func (s *cookieStore) Clear(ctx context.Context) error {
	sess, _ := s.sessions.Get(s.r, sessionCookie)
	if sess == nil {
		return errors.New("cookie session unavailable")
	}
	delete(sess.Values, keyAccessToken)
	delete(sess.Values, keyRefreshToken)
	delete(sess.Values, keyUserData)
	sess.Options.MaxAge = -1
	return sess.Save(s.r, s.w)
}
