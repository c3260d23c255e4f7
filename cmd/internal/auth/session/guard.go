package session

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/web"
)

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims attached by Guard.Require.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// Guard is the session interceptor pair: Require authenticates, Renew slides expiry.
type Guard struct {
	log       *slog.Logger
	issuer    *Issuer
	cookies   Cookies
	threshold time.Duration
	now       func() time.Time

	onReject func(TokenReason)
	onRenew  func()
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithClock overrides the time source. Tests use it to place "now" relative to expiry.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRejectHook is called once per refused request.
func WithRejectHook(fn func(TokenReason)) GuardOption {
	return func(g *Guard) { g.onReject = fn }
}

// WithRenewHook is called once per reissued token.
func WithRenewHook(fn func()) GuardOption {
	return func(g *Guard) { g.onRenew = fn }
}

// NewGuard builds a Guard. cfg supplies cookie attributes and the renewal threshold.
func NewGuard(log *slog.Logger, issuer *Issuer, cfg Config, opts ...GuardOption) *Guard {
	if log == nil {
		log = slog.Default()
	}
	g := &Guard{
		log:       log,
		issuer:    issuer,
		cookies:   NewCookies(cfg),
		threshold: cfg.RenewThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cookies exposes the cookie helper so login and logout write the same attributes.
func (g *Guard) Cookies() Cookies { return g.cookies }

// Require rejects requests without a valid session token. The next handler
// only runs with verified claims in its context.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.issuer.Verify(g.cookies.Read(r), g.now())
		if err != nil {
			reason, _ := ReasonOf(err)
			g.log.Info("auth.guard.reject",
				"reason", reason.String(),
				"method", r.Method,
				"path", r.URL.Path,
				"err", err,
			)
			if g.onReject != nil {
				g.onReject(reason)
			}
			web.WriteError(w, http.StatusUnauthorized, "", "authorization required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Renew reissues the session cookie when the token is close to expiry.
// The new cookie is added just before the response headers go out, so the
// handler's status and body are never altered. Without claims it does nothing.
func (g *Guard) Renew(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		rw := &renewingWriter{ResponseWriter: w}
		rw.beforeHeader = func() { g.renew(w, r, claims) }

		next.ServeHTTP(rw, r)
		rw.ensure()
	})
}

func (g *Guard) renew(w http.ResponseWriter, r *http.Request, c Claims) {
	now := g.now()
	if c.Remaining(now) >= g.threshold {
		return
	}

	tok, err := g.issuer.Issue(c.Principal(), now)
	if err != nil {
		g.log.Error("auth.guard.renew_failed", "path", r.URL.Path, "sub", c.Subject, "err", err)
		return
	}
	g.cookies.Set(w, tok, now)

	g.log.Debug("auth.guard.renew", "sub", c.Subject, "old_exp", c.ExpiresAt, "new_exp", tok.Claims.ExpiresAt)
	if g.onRenew != nil {
		g.onRenew()
	}
}

// renewingWriter runs beforeHeader exactly once, right before the first
// WriteHeader, Write, Flush or Hijack reaches the underlying writer.
type renewingWriter struct {
	http.ResponseWriter
	beforeHeader func()
	done         bool
}

func (w *renewingWriter) ensure() {
	if w.done {
		return
	}
	w.done = true
	w.beforeHeader()
}

func (w *renewingWriter) WriteHeader(code int) {
	w.ensure()
	w.ResponseWriter.WriteHeader(code)
}

func (w *renewingWriter) Write(p []byte) (int, error) {
	w.ensure()
	return w.ResponseWriter.Write(p)
}

func (w *renewingWriter) Flush() {
	w.ensure()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *renewingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.ensure()
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

func (w *renewingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
