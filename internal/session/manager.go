package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
)

const (
	defaultCookieName = "sf_session"
	defaultCookiePath = "/"
	defaultLifetime   = 30 * 24 * time.Hour
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Visitor is the anonymous identity persisted in the session cookie.
type Visitor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Locale    string    `json:"locale,omitempty"`
}

// Config controls cookie encoding.
type Config struct {
	CookieName   string
	HashKey      []byte
	BlockKey     []byte
	CookiePath   string
	CookieSecure bool
	Lifetime     time.Duration
	Now          func() time.Time
}

// Manager reads and writes the signed visitor cookie.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager. Empty keys are replaced with random ones,
// which invalidates cookies on restart.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.HashKey == nil {
		return nil, fmt.Errorf("%w: unable to generate hash key", ErrInvalidConfig)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, block)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime / time.Second))

	return &Manager{cfg: cfg, codec: codec, now: now}, nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load decodes the visitor from r. A missing or tampered cookie yields a new
// visitor and fresh=true.
func (m *Manager) Load(r *http.Request) (Visitor, bool) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.newVisitor(), true
	}
	var v Visitor
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &v); err != nil || strings.TrimSpace(v.ID) == "" {
		return m.newVisitor(), true
	}
	return v, false
}

// Save writes the visitor cookie.
func (m *Manager) Save(w http.ResponseWriter, v Visitor) error {
	encoded, err := m.codec.Encode(m.cfg.CookieName, v)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.cfg.Lifetime / time.Second),
		Expires:  m.now().Add(m.cfg.Lifetime).UTC(),
	})
	return nil
}

func (m *Manager) newVisitor() Visitor {
	now := m.now()
	return Visitor{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		CreatedAt: now.UTC(),
	}
}

// KeyFromString decodes a configured key. Values that are not valid base64 are used as raw bytes.
func KeyFromString(raw string) []byte {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if decoded, err := decodeBase64(raw); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(raw)
}
