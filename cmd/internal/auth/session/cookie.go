package session

import (
	"net/http"
	"strings"
	"time"
)

// Cookies writes and reads the session cookie. Its attributes come from Config.
type Cookies struct {
	name     string
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewCookies builds a cookie helper from cfg.
func NewCookies(cfg Config) Cookies {
	path := cfg.CookiePath
	if path == "" {
		path = "/"
	}
	return Cookies{
		name:     cfg.CookieName,
		path:     path,
		domain:   cfg.CookieDomain,
		secure:   cfg.CookieSecure,
		sameSite: cfg.CookieSameSite,
	}
}

// Name returns the cookie name.
func (c Cookies) Name() string { return c.name }

// Cookie returns the http-only session cookie carrying tok.
func (c Cookies) Cookie(tok Token, now time.Time) *http.Cookie {
	maxAge := int(tok.Claims.ExpiresAt.Sub(now) / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     c.name,
		Value:    tok.Raw,
		Path:     c.path,
		Domain:   c.domain,
		Expires:  tok.Claims.ExpiresAt,
		MaxAge:   maxAge,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	}
}

// Set attaches the session cookie to w.
func (c Cookies) Set(w http.ResponseWriter, tok Token, now time.Time) {
	http.SetCookie(w, c.Cookie(tok, now))
}

// Clear expires the session cookie on the client.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     c.path,
		Domain:   c.domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite,
	})
}

// Read returns the raw token from the request cookie, or "" when absent.
func (c Cookies) Read(r *http.Request) string {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}
