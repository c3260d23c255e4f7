package summary

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transcript = `The patient reports chest pain since Monday. The weather was nice.
Chest pain worsens on exertion and the patient reports shortness of breath.
We discussed lunch. An ECG is ordered to evaluate the chest pain.`

func TestExtractive_KeepsTopSentencesInOrder(t *testing.T) {
	out, err := Extractive{Sentences: 2}.Transform(context.Background(), transcript)
	require.NoError(t, err)

	assert.NotContains(t, out, "weather")
	assert.NotContains(t, out, "lunch")
	assert.Equal(t, 2, strings.Count(out, "."))

	first := strings.Index(out, "Monday")
	second := strings.Index(out, "ECG")
	if first >= 0 && second >= 0 {
		assert.Less(t, first, second, "original order preserved")
	}
}

func TestExtractive_ShortTextReturnedWhole(t *testing.T) {
	out, err := Extractive{}.Transform(context.Background(), "One line only.")
	require.NoError(t, err)
	assert.Equal(t, "One line only.", out)
}

func TestExtractive_Empty(t *testing.T) {
	_, err := Extractive{}.Transform(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Dr. Smith arrived.Then left! Done?\nNew line")
	assert.Equal(t, []string{"Dr.", "Smith arrived.Then left!", "Done?", "New line"}, got)
}

func TestRemote_Transform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Data string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"output": "sum:" + in.Data})
	}))
	defer srv.Close()

	rem, err := NewRemote(srv.URL, time.Second)
	require.NoError(t, err)

	out, err := rem.Transform(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "sum:hello", out)
}

func TestRemote_Errors(t *testing.T) {
	_, err := NewRemote("ftp://nope", 0)
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rem, err := NewRemote(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = rem.Transform(context.Background(), "hello")
	assert.Error(t, err)
}

type stubTransformer struct {
	out string
	err error
}

func (s stubTransformer) Transform(context.Context, string) (string, error) { return s.out, s.err }

func serve(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary", strings.NewReader(body)))
	return rec
}

func TestHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, stubTransformer{out: "short"}, 0)

	rec := serve(h, `{"data":"long text"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"output":"short"}`, rec.Body.String())

	for _, body := range []string{`{}`, `{"data":42}`, `{"data":null}`, `{"data":["a"]}`, ``} {
		rec = serve(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), msgBadData)
	}
}

func TestHandler_InternalErrorHidesCause(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(log, stubTransformer{err: errors.New("secret upstream detail")}, 0)

	rec := serve(h, `{"data":"text"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret upstream detail")
	assert.Contains(t, rec.Body.String(), "internal error")
}
