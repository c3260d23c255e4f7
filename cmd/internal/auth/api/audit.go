package authapi

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity/ids"
)

func (h *Handler) auditLoginFailed(ctx context.Context, identifier string, ip net.IP, ua, reason string) {
	h.insertAudit(ctx, "auth.login.failed", identifier, ip, ua, map[string]any{
		"reason": reason,
	})
}

func (h *Handler) auditLoginSuccess(ctx context.Context, identifier string, ip net.IP, ua, jti string) {
	h.insertAudit(ctx, "auth.login.success", identifier, ip, ua, map[string]any{
		"jti": jti,
	})
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, identifier string, ip net.IP, ua string, retryAfter time.Duration) {
	h.insertAudit(ctx, "auth.login.rate_limited", identifier, ip, ua, map[string]any{
		"retry_after_s": int64(retryAfter.Seconds()),
	})
}

func (h *Handler) auditLogout(ctx context.Context, identifier string, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.logout", identifier, ip, ua, nil)
}

// insertAudit is best effort: a failed insert is logged and never fails the request.
func (h *Handler) insertAudit(ctx context.Context, action, identifier string, ip net.IP, ua string, meta map[string]any) {
	if h == nil || h.pool == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	now := h.now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		h.log.Error("auth.audit.id.fail", "err", err, "action", action)
		return
	}

	var ipVal any
	if ip != nil {
		ipVal = ip.String()
	}

	metaVal := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metaVal = string(b)
		}
	}

	_, err = h.pool.Exec(ctx, `
		INSERT INTO scribe.audit_log (
			id, action, username, ip, user_agent, meta, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`, id, action, trimOrNil(identifier), ipVal, trimOrNil(ua), metaVal, now)
	if err != nil {
		h.log.Error("auth.audit.insert.fail", "err", err, "action", action)
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
