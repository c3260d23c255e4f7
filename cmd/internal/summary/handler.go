package summary

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/web"
)

const msgBadData = "Data is not provided or not in required format (string)"

// Handler serves POST /summary.
type Handler struct {
	log          *slog.Logger
	t            Transformer
	maxBodyBytes int64
}

func NewHandler(log *slog.Logger, t Transformer, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = web.DefaultMaxBodyBytes
	}
	return &Handler{log: log, t: t, maxBodyBytes: maxBodyBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if err := web.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", msgBadData)
		return
	}

	text, ok := stringField(req.Data)
	if !ok {
		web.WriteError(w, http.StatusBadRequest, "invalid_request", msgBadData)
		return
	}

	out, err := h.t.Transform(r.Context(), text)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			web.WriteError(w, http.StatusBadRequest, "invalid_request", msgBadData)
			return
		}
		h.log.Error("summary.transform.fail", "err", err)
		web.WriteInternal(w)
		return
	}

	web.WriteJSON(w, http.StatusOK, struct {
		Output string `json:"output"`
	}{Output: out})
}

func stringField(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
