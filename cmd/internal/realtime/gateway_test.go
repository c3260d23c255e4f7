package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/auth/session"
	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSubject(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithClaims(r.Context(), session.Claims{Subject: name, Role: identity.RoleModerator})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readEnv(t *testing.T, ctx context.Context, conn *websocket.Conn) Envelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestGateway_StreamsModerationEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OriginRequired = false
	gw := NewGateway(quietLog(), nil, cfg)

	srv := httptest.NewServer(withSubject("alice", gw))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ready := readEnv(t, ctx, conn)
	require.Equal(t, TypeReady, ready.Type)
	var rp ReadyPayload
	require.NoError(t, json.Unmarshal(ready.Payload, &rp))
	assert.Equal(t, "alice", rp.Subject)
	assert.NotEmpty(t, rp.SessionID)

	require.Eventually(t, func() bool { return gw.Hub().Len() == 1 }, time.Second, 10*time.Millisecond)

	gw.Hub().Publish(moderation.Event{
		Type:  moderation.EventStaged,
		Entry: moderation.Entry{ID: "e1", Word: "lemma", Status: moderation.StatusStaged},
		Actor: "bob",
		At:    time.Now(),
	})
	ev := readEnv(t, ctx, conn)
	assert.Equal(t, TypeEntryStaged, ev.Type)

	ping, err := json.Marshal(Envelope{V: ProtocolVersion, Type: TypePing, TS: time.Now()})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, ping))
	assert.Equal(t, TypePong, readEnv(t, ctx, conn).Type)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	bad := readEnv(t, ctx, conn)
	assert.Equal(t, TypeError, bad.Type)
}

func TestGateway_RequiresClaims(t *testing.T) {
	gw := NewGateway(quietLog(), nil, DefaultConfig())
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateway_RejectsDisallowedOrigin(t *testing.T) {
	gw := NewGateway(quietLog(), nil, DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "https://evil.example")
	req = req.WithContext(session.WithClaims(req.Context(), session.Claims{Subject: "alice"}))

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOriginHelpers(t *testing.T) {
	assert.Equal(t, "localhost", originHostOnly("http://localhost:5173"))
	assert.Equal(t, "example.com", originHostOnly("Example.com:443"))
	assert.Equal(t, []string{"127.0.0.1", "localhost"}, deriveOriginPatterns([]string{"http://localhost", "http://127.0.0.1:3000", "*"}))
}
