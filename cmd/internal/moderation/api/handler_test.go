package modapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withActor(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.WithClaims(r.Context(), session.Claims{Subject: name, Role: identity.RoleModerator})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	return newTestMuxWithStore(t, moderation.NewMemoryStore())
}

func newTestMuxWithStore(t *testing.T, st moderation.Store) *http.ServeMux {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	wf := moderation.NewWorkflow(st, log)
	mux := http.NewServeMux()
	NewHandler(log, wf, 0).Register(mux, withActor("mod1"))
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func stagedIDs(t *testing.T, h http.Handler) []string {
	t.Helper()
	_, body := do(t, h, http.MethodGet, "/temptable", "")
	data, _ := body["data"].([]any)
	ids := make([]string, 0, len(data))
	for _, d := range data {
		ids = append(ids, d.(map[string]any)["id"].(string))
	}
	return ids
}

func TestSubmitThenAccept(t *testing.T) {
	mux := newTestMux(t)

	rec, body := do(t, mux, http.MethodPost, "/updatedict", `{"words":["glossary",{"word":"lemma","definition":"base form"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "Request sent to update dictionary.", body["message"])

	ids := stagedIDs(t, mux)
	require.Len(t, ids, 2)

	rec, body = do(t, mux, http.MethodPost, "/addwords", `{"ids":["`+ids[0]+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Word(s) added to the dictionary.", body["message"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "published", results[0].(map[string]any)["status"])

	_, body = do(t, mux, http.MethodGet, "/viewdict", "")
	assert.Len(t, body["data"], 1)
	assert.Len(t, stagedIDs(t, mux), 1)
}

func TestRejectConflictReturns409WithPerIDResults(t *testing.T) {
	mux := newTestMux(t)
	do(t, mux, http.MethodPost, "/updatedict", `{"words":["ephemeral"]}`)
	ids := stagedIDs(t, mux)
	require.Len(t, ids, 1)

	rec, body := do(t, mux, http.MethodPost, "/rejectwords", `{"ids":["`+ids[0]+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Word(s) removed from the dictionary.", body["message"])

	rec, body = do(t, mux, http.MethodPost, "/rejectwords", `{"ids":["`+ids[0]+`","missing"]}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, "Word(s) can not be removed from the dictionary.", body["message"])

	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "conflict", results[0].(map[string]any)["code"])
	assert.Equal(t, "rejected", results[0].(map[string]any)["status"])
	assert.Equal(t, "not_found", results[1].(map[string]any)["code"])
}

func TestValidationErrorsUseFixedMessages(t *testing.T) {
	mux := newTestMux(t)

	cases := []struct {
		path, body, msg string
	}{
		{"/updatedict", `{"words":[]}`, "Request can not be sent."},
		{"/updatedict", `{"words":[42]}`, "Request can not be sent."},
		{"/updatedict", `not json`, "Request can not be sent."},
		{"/updatedict", `{"words":["   "]}`, "Request can not be sent."},
		{"/updatedict", `{"words":["` + strings.Repeat("w", moderation.MaxWordRunes+1) + `"]}`, "Request can not be sent."},
		{"/addwords", `{"ids":[]}`, "Word(s) can not be added to the dictionary."},
		{"/rejectwords", `{"ids":[" "]}`, "Word(s) can not be removed from the dictionary."},
	}
	for _, tc := range cases {
		rec, body := do(t, mux, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path+" "+tc.body)
		assert.Equal(t, "invalid_request", body["code"])
		assert.Equal(t, tc.msg, body["message"])
	}
}

// brokenStore fails Transition for one id after the others commit.
type brokenStore struct {
	*moderation.MemoryStore
	failID string
}

func (b brokenStore) Transition(ctx context.Context, in moderation.TransitionInput) (moderation.Entry, error) {
	if b.failID == "" || in.ID == b.failID {
		return moderation.Entry{}, errors.New("db down")
	}
	return b.MemoryStore.Transition(ctx, in)
}

func TestAcceptReportsCommittedIDsDespiteStorageFailure(t *testing.T) {
	mem := moderation.NewMemoryStore()
	seed := newTestMuxWithStore(t, mem)
	do(t, seed, http.MethodPost, "/updatedict", `{"words":["one","two"]}`)
	ids := stagedIDs(t, seed)
	require.Len(t, ids, 2)

	mux := newTestMuxWithStore(t, brokenStore{MemoryStore: mem, failID: ids[1]})
	rec, body := do(t, mux, http.MethodPost, "/addwords", `{"ids":["`+ids[0]+`","`+ids[1]+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["status"])

	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]any)["ok"])
	assert.Equal(t, "published", results[0].(map[string]any)["status"])
	assert.Equal(t, false, results[1].(map[string]any)["ok"])
	assert.Equal(t, "failed", results[1].(map[string]any)["code"])
	assert.NotContains(t, rec.Body.String(), "db down")

	_, body = do(t, mux, http.MethodGet, "/viewdict", "")
	assert.Len(t, body["data"], 1)
}

func TestAcceptWithNothingCommittedIsInternalError(t *testing.T) {
	mem := moderation.NewMemoryStore()
	seed := newTestMuxWithStore(t, mem)
	do(t, seed, http.MethodPost, "/updatedict", `{"words":["one"]}`)
	ids := stagedIDs(t, seed)
	require.Len(t, ids, 1)

	mux := newTestMuxWithStore(t, brokenStore{MemoryStore: mem})
	rec, body := do(t, mux, http.MethodPost, "/addwords", `{"ids":["`+ids[0]+`"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", body["message"])
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t)

	rec, _ := do(t, mux, http.MethodGet, "/addwords", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec, _ = do(t, mux, http.MethodPost, "/viewdict", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMissingClaimsIsUnauthorized(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewHandler(log, moderation.NewWorkflow(moderation.NewMemoryStore(), log), 0).Register(mux, nil)

	rec, body := do(t, mux, http.MethodPost, "/updatedict", `{"words":["x"]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authorization required", body["message"])
}
