package session

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/iliyamo/school-behavior-tracker/internal/utils"
)

const (
	DefaultCookieName = "sid"
	DefaultTTL        = 24 * time.Hour
)

// ErrNoSession is returned by Load when the request carries no usable
// session cookie or the token is unknown to the store.
var ErrNoSession = errors.New("no session")

// Options configures the session cookie.
type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	SameSite   http.SameSite
	Secure     bool
}

// Manager issues, resolves, renews and destroys sessions.  The cookie value
// is the token signed with securecookie, so forged or tampered cookies never
// reach the store.
type Manager struct {
	store Store
	codec *securecookie.SecureCookie
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	hashKey := sha512.Sum512([]byte(opts.Secret))
	codec := securecookie.New(hashKey[:], nil)
	// Expiry is enforced by the store, not by the cookie timestamp.
	codec.MaxAge(0)
	return &Manager{store: store, codec: codec, opts: opts, now: time.Now}
}

// TTL is the rolling session lifetime.
func (m *Manager) TTL() time.Duration { return m.opts.TTL }

// Start binds a fresh token to userID and writes the cookie.  Any session
// already carried by r is destroyed first.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uint64) (string, error) {
	if old, err := m.token(r); err == nil {
		_ = m.store.Destroy(ctx, old)
	}
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", err
	}
	sess := Session{UserID: userID, CreatedAt: m.now().UTC()}
	if err := m.store.Set(ctx, token, sess, m.opts.TTL); err != nil {
		return "", err
	}
	if err := m.writeCookie(w, token); err != nil {
		return "", err
	}
	return token, nil
}

// Load resolves the request's cookie to a stored session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (string, Session, error) {
	token, err := m.token(r)
	if err != nil {
		return "", Session{}, ErrNoSession
	}
	sess, err := m.store.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return "", Session{}, ErrNoSession
	}
	if err != nil {
		return "", Session{}, err
	}
	return token, sess, nil
}

// Renew pushes the expiry of token another TTL into the future and reissues
// the cookie.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, token string) error {
	if err := m.store.Touch(ctx, token, m.opts.TTL); err != nil {
		return err
	}
	return m.writeCookie(w, token)
}

// Destroy removes the request's session, if any, and expires the cookie.
// It never fails because of a missing or invalid cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if token, terr := m.token(r); terr == nil {
		err = m.store.Destroy(ctx, token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	})
	return err
}

func (m *Manager) token(r *http.Request) (string, error) {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return "", err
	}
	var token string
	if err := m.codec.Decode(m.opts.CookieName, c.Value, &token); err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, token string) error {
	encoded, err := m.codec.Encode(m.opts.CookieName, token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.opts.TTL / time.Second),
		Expires:  m.now().Add(m.opts.TTL),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	})
	return nil
}
