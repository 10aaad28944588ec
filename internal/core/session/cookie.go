package session

import (
	"net/http"
	"strings"
	"time"
)

type SecureMode string

const (
	SecureAuto   SecureMode = "auto"
	SecureAlways SecureMode = "always"
	SecureNever  SecureMode = "never"
)

// State classifies the cookie carried by a request.
type State int

const (
	StateAbsent State = iota
	StateMalformed
	StateExpired
	StateValid
)

func (s State) String() string {
	switch s {
	case StateMalformed:
		return "malformed"
	case StateExpired:
		return "expired"
	case StateValid:
		return "valid"
	default:
		return "absent"
	}
}

// Invalid is true for a cookie that is present but unusable.
func (s State) Invalid() bool {
	return s == StateMalformed || s == StateExpired
}

type CodecConfig struct {
	CookieName string
	MaxAge     time.Duration
	SameSite   http.SameSite
	Secure     SecureMode
}

// Codec reads and writes the session cookie at the HTTP boundary.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

func NewCodec(cfg CodecConfig) *Codec {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if cfg.Secure == "" {
		cfg.Secure = SecureAuto
	}
	return &Codec{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the codec using now as its time source.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) CookieName() string { return c.cfg.CookieName }

func (c *Codec) MaxAge() time.Duration { return c.cfg.MaxAge }

func (c *Codec) Now() time.Time { return c.now() }

func (c *Codec) Expired(d Descriptor) bool {
	return d.Age(c.now()) >= c.cfg.MaxAge
}

// Read decodes the request cookie. The descriptor is returned for valid and
// expired cookies so callers can log who was bounced.
func (c *Codec) Read(r *http.Request) (State, *Descriptor) {
	cookie, err := r.Cookie(c.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return StateAbsent, nil
	}
	d, err := Decode(cookie.Value)
	if err != nil {
		return StateMalformed, nil
	}
	if c.Expired(*d) {
		return StateExpired, d
	}
	return StateValid, d
}

// Issue builds a fresh descriptor stamped with the codec clock.
func (c *Codec) Issue(d Descriptor) Descriptor {
	d.Timestamp = c.now().UnixMilli()
	return d
}

// Write sets the cookie. The cookie is readable by client scripts because
// client-side routing reads it; HttpOnly stays off.
func (c *Codec) Write(w http.ResponseWriter, r *http.Request, d Descriptor) error {
	value, err := Encode(d)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.cfg.MaxAge / time.Second),
		SameSite: c.cfg.SameSite,
		Secure:   c.secure(r),
	})
	return nil
}

func (c *Codec) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: c.cfg.SameSite,
		Secure:   c.secure(r),
	})
}

func (c *Codec) secure(r *http.Request) bool {
	switch c.cfg.Secure {
	case SecureAlways:
		return true
	case SecureNever:
		return false
	default:
		if r == nil {
			return false
		}
		return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	}
}

// ParseSameSite maps config values onto http.SameSite.
func ParseSameSite(s string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return 0, false
	}
}
