package httpapi

import (
	"net/http"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/config"
)

// CookieAdapter reads and writes the access-token cookie. The cookie is
// always HttpOnly; SameSite, Secure, domain and path come from config.
type CookieAdapter struct {
	cfg   config.CookieConfig
	codec *auth.Codec
}

// NewCookieAdapter constructs the adapter.
func NewCookieAdapter(cfg config.CookieConfig, codec *auth.Codec) *CookieAdapter {
	return &CookieAdapter{cfg: cfg, codec: codec}
}

// SetAccess installs the token cookie with a Max-Age equal to the access
// TTL for the principal kind.
func (a *CookieAdapter) SetAccess(w http.ResponseWriter, token string, kind auth.Kind) {
	ttl := a.codec.TTLFor(kind)
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.Name,
		Value:    token,
		Path:     a.cfg.Path,
		Domain:   a.cfg.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: a.cfg.SameSite,
	})
}

// Clear expires the cookie with matching path and domain so the browser
// actually drops it.
func (a *CookieAdapter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.Name,
		Value:    "",
		Path:     a.cfg.Path,
		Domain:   a.cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.Secure,
		SameSite: a.cfg.SameSite,
	})
}

// ReadToken returns the raw cookie value, or empty when absent.
func (a *CookieAdapter) ReadToken(r *http.Request) string {
	c, err := r.Cookie(a.cfg.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
