// Package modapi exposes the moderation workflow over HTTP.
package modapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/web"
)

// Handler serves the dictionary moderation routes. Every route expects
// session claims in the request context.
type Handler struct {
	log          *slog.Logger
	wf           *moderation.Workflow
	maxBodyBytes int64
}

func NewHandler(log *slog.Logger, wf *moderation.Workflow, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = web.DefaultMaxBodyBytes
	}
	return &Handler{log: log, wf: wf, maxBodyBytes: maxBodyBytes}
}

// Register mounts the routes on mux, each wrapped by protect.
func (h *Handler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	if h == nil || mux == nil {
		return
	}
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("/addwords", protect(http.HandlerFunc(h.handleAccept)))
	mux.Handle("/rejectwords", protect(http.HandlerFunc(h.handleReject)))
	mux.Handle("/updatedict", protect(http.HandlerFunc(h.handleSubmit)))
	mux.Handle("/temptable", protect(http.HandlerFunc(h.handleStaged)))
	mux.Handle("/viewdict", protect(http.HandlerFunc(h.handlePublished)))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "accept", h.wf.Accept, msgAcceptOK, msgAcceptFail)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject", h.wf.Reject, msgRejectOK, msgRejectFail)
}

type decideFunc func(ctx context.Context, actor string, ids []string) (moderation.BatchResult, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, action string, fn decideFunc, okMsg, failMsg string) {
	if r.Method != http.MethodPost {
		web.MethodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req decideRequest
	if err := web.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", failMsg)
		return
	}
	if err := req.Validate(); err != nil {
		h.log.Info("moderation."+action+".invalid", "actor", actor, "err", err)
		web.WriteError(w, http.StatusBadRequest, "invalid_request", failMsg)
		return
	}

	res, err := fn(r.Context(), actor, req.IDs)
	switch {
	case err == nil:
	case moderation.IsInvalidInput(err):
		h.log.Info("moderation."+action+".invalid", "actor", actor, "err", err)
		web.WriteError(w, http.StatusBadRequest, "invalid_request", failMsg)
		return
	default:
		h.log.Error("moderation."+action+".fail", "actor", actor, "err", err)
		web.WriteInternal(w)
		return
	}

	switch {
	case res.OK:
		if n := res.Failed(); n > 0 {
			h.log.Warn("moderation."+action+".partial", "actor", actor, "succeeded", res.Succeeded(), "failed", n)
		}
		web.WriteJSON(w, http.StatusOK, decideResponse{
			Status:  true,
			Message: okMsg,
			Results: toResultViews(res.Results),
		})
	case res.Failed() > 0:
		// Nothing was committed.
		h.log.Error("moderation."+action+".fail", "actor", actor, "failed", res.Failed())
		web.WriteInternal(w)
	default:
		web.WriteJSON(w, http.StatusConflict, decideResponse{
			Status:  false,
			Message: failMsg,
			Results: toResultViews(res.Results),
		})
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.MethodNotAllowed(w, http.MethodPost)
		return
	}
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := web.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", msgSubmitFail)
		return
	}
	if err := req.Validate(); err != nil {
		h.log.Info("moderation.submit.invalid", "actor", actor, "err", err)
		web.WriteError(w, http.StatusBadRequest, "invalid_request", msgSubmitFail)
		return
	}

	entries, err := h.wf.Submit(r.Context(), actor, req.Words)
	switch {
	case err == nil:
		web.WriteJSON(w, http.StatusOK, entriesResponse{Status: true, Message: msgSubmitOK, Data: entries})
	case moderation.IsInvalidInput(err):
		h.log.Info("moderation.submit.invalid", "actor", actor, "err", err)
		web.WriteError(w, http.StatusBadRequest, "invalid_request", msgSubmitFail)
	default:
		h.log.Error("moderation.submit.fail", "actor", actor, "err", err)
		web.WriteInternal(w)
	}
}

func (h *Handler) handleStaged(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "moderation.list_staged.fail", h.wf.ListStaged)
}

func (h *Handler) handlePublished(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "moderation.list_published.fail", h.wf.ListPublished)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, failEvent string, fn func(context.Context) ([]moderation.Entry, error)) {
	if r.Method != http.MethodGet {
		web.MethodNotAllowed(w, http.MethodGet)
		return
	}
	entries, err := fn(r.Context())
	if err != nil {
		h.log.Error(failEvent, "err", err)
		web.WriteInternal(w)
		return
	}
	web.WriteJSON(w, http.StatusOK, entriesResponse{Status: true, Data: entries})
}

func actorFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := session.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		web.WriteError(w, http.StatusUnauthorized, "", "authorization required")
		return "", false
	}
	return claims.Subject, true
}
