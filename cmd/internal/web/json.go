package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds request bodies when a handler does not configure its own limit.
const DefaultMaxBodyBytes int64 = 1 << 20

// Status is the envelope every non-login endpoint answers with.
// Code is a stable machine-readable reason and is omitted on success.
type Status struct {
	Status  bool   `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status. Responses are never cached.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a failed Status envelope. msg must be a fixed, client-safe string.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, Status{Status: false, Code: code, Message: msg})
}

// WriteInternal writes the generic 500 response. The cause is expected to be logged by the caller.
func WriteInternal(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
}

// ErrEmptyBody is returned by DecodeJSON for a missing body.
var ErrEmptyBody = errors.New("empty body")

// DecodeJSON strictly decodes exactly one JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer func() { _ = r.Body.Close() }()

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}

// MethodNotAllowed answers 405 with the Allow header set.
func MethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
