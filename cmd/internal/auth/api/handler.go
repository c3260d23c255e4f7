// Package authapi serves login and logout for cookie-based sessions.
package authapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/web"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialValidator checks an identity+secret pair.
type CredentialValidator interface {
	Validate(ctx context.Context, username, secret string) (identity.Principal, error)
}

// Login outcomes passed to the login hook.
const (
	LoginSuccess     = "success"
	LoginFailed      = "failed"
	LoginRateLimited = "rate_limited"
	LoginError       = "error"
)

// Handler wires the login endpoints to the credential validator and token issuer.
type Handler struct {
	log *slog.Logger
	cfg Config

	validator CredentialValidator
	issuer    *session.Issuer
	cookies   session.Cookies

	// pool is optional; when set, login outcomes are written to the audit log.
	pool *pgxpool.Pool

	byIP   *failureWindow
	byUser *failureWindow

	now     func() time.Time
	onLogin func(outcome string)
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithAuditPool enables audit rows for login and logout.
func WithAuditPool(pool *pgxpool.Pool) HandlerOption {
	return func(h *Handler) { h.pool = pool }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLoginHook is called once per login attempt with its outcome.
func WithLoginHook(fn func(outcome string)) HandlerOption {
	return func(h *Handler) { h.onLogin = fn }
}

func NewHandler(log *slog.Logger, validator CredentialValidator, issuer *session.Issuer, cookies session.Cookies, cfg Config, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		log:       log,
		cfg:       cfg,
		validator: validator,
		issuer:    issuer,
		cookies:   cookies,
		byIP:      newFailureWindow(cfg.LoginIPMax, cfg.LoginIPWindow),
		byUser:    newFailureWindow(cfg.LoginUserMax, cfg.LoginUserWindow),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/userlogin", h.handleLogin)
	mux.HandleFunc("/userlogout", h.handleLogout)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := web.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", "identity and secret are required")
		return
	}
	req.Identity = strings.TrimSpace(req.Identity)
	if err := req.Validate(); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", "identity and secret are required")
		return
	}
	username := req.Identity

	ctx := r.Context()
	now := h.now().UTC()
	ip := web.ClientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	ipKey := ""
	if ip != nil {
		ipKey = ip.String()
	}
	userKey := identity.NormalizeUsername(username)

	// Throttle before touching the credential store.
	if blocked, retryAfter := h.byIP.blocked(ipKey, now); blocked {
		h.rateLimited(ctx, w, username, ip, ua, retryAfter)
		return
	}
	if blocked, retryAfter := h.byUser.blocked(userKey, now); blocked {
		h.rateLimited(ctx, w, username, ip, ua, retryAfter)
		return
	}

	p, err := h.validator.Validate(ctx, username, req.Secret)
	if err != nil {
		if identity.IsAuth(err) {
			h.byIP.record(ipKey, now)
			h.byUser.record(userKey, now)
			h.log.Info("auth.login.fail", "identity", username, "ip", ipKey, "err", err)
			h.auditLoginFailed(ctx, username, ip, ua, "invalid_credentials")
			h.outcome(LoginFailed)
			web.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.validate.fail", "identity", username, "err", err)
		h.outcome(LoginError)
		web.WriteInternal(w)
		return
	}

	tok, err := h.issuer.Issue(p, now)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "identity", p.Username, "err", err)
		h.outcome(LoginError)
		web.WriteInternal(w)
		return
	}

	h.byUser.reset(userKey)
	h.cookies.Set(w, tok, now)
	h.log.Info("auth.login.success", "identity", p.Username, "role", p.Role, "ip", ipKey, "exp", tok.Claims.ExpiresAt)
	h.auditLoginSuccess(ctx, p.Username, ip, ua, tok.Claims.ID)
	h.outcome(LoginSuccess)

	web.WriteJSON(w, http.StatusOK, loginResponse{Message: msgLoginOK, Role: p.Role.String()})
}

func (h *Handler) rateLimited(ctx context.Context, w http.ResponseWriter, username string, ip net.IP, ua string, retryAfter time.Duration) {
	h.log.Warn("auth.login.rate_limited", "identity", username, "ip", ip, "retry_after", retryAfter)
	h.auditLoginRateLimited(ctx, username, ip, ua, retryAfter)
	h.outcome(LoginRateLimited)
	writeRateLimited(w, retryAfter)
}

// handleLogout expires the session cookie. Tokens are stateless, so there is
// nothing to revoke server side.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.MethodNotAllowed(w, http.MethodPost)
		return
	}

	if claims, err := h.issuer.Verify(h.cookies.Read(r), h.now()); err == nil {
		ip := web.ClientIP(r, h.cfg.TrustProxy)
		h.log.Info("auth.logout", "identity", claims.Subject)
		h.auditLogout(r.Context(), claims.Subject, ip, strings.TrimSpace(r.UserAgent()))
	}

	h.cookies.Clear(w)
	web.WriteJSON(w, http.StatusOK, web.Status{Status: true, Message: "User Logged-out Successfully."})
}

func (h *Handler) outcome(o string) {
	if h.onLogin != nil {
		h.onLogin(o)
	}
}
