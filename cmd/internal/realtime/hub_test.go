package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHub_PublishFansOut(t *testing.T) {
	h := NewHub(quietLog())
	a := NewClient("alice", "s1", 4)
	b := NewClient("bob", "s2", 4)
	h.Join(a)
	h.Join(b)
	require.Equal(t, 2, h.Len())

	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	h.Publish(moderation.Event{
		Type:  moderation.EventPublished,
		Entry: moderation.Entry{ID: "e1", Word: "lemma", Status: moderation.StatusPublished},
		Actor: "mod1",
		At:    at,
	})

	for _, c := range []*Client{a, b} {
		select {
		case env := <-c.Send:
			assert.Equal(t, TypeEntryPublished, env.Type)
			assert.Equal(t, ProtocolVersion, env.V)
			assert.Equal(t, at, env.TS)
			assert.NotEmpty(t, env.ID)

			var p EntryPayload
			require.NoError(t, json.Unmarshal(env.Payload, &p))
			assert.Equal(t, "e1", p.Entry.ID)
			assert.Equal(t, "mod1", p.Actor)
		default:
			t.Fatalf("client %s got nothing", c.SessionID)
		}
	}
}

func TestHub_DropsOnBackpressure(t *testing.T) {
	h := NewHub(quietLog())
	c := NewClient("alice", "s1", 1)
	h.Join(c)

	h.Broadcast(Envelope{Type: "x"})
	h.Broadcast(Envelope{Type: "y"})

	assert.Len(t, c.Send, 1)
	assert.Equal(t, uint64(1), h.Dropped())
}

func TestHub_LeaveClosesClientAndStopsDelivery(t *testing.T) {
	h := NewHub(quietLog())
	c := NewClient("alice", "s1", 4)
	h.Join(c)
	h.Leave("s1")

	select {
	case <-c.Done():
	default:
		t.Fatal("client not closed on leave")
	}

	h.Broadcast(Envelope{Type: "x"})
	assert.Empty(t, c.Send)
	assert.Zero(t, h.Len())
}

func TestFrameLimiter_SlidingWindow(t *testing.T) {
	rl := newFrameLimiter(2, time.Second)
	now := time.Unix(1000, 0)

	assert.True(t, rl.allow(now))
	assert.True(t, rl.allow(now.Add(100*time.Millisecond)))
	assert.False(t, rl.allow(now.Add(200*time.Millisecond)))
	assert.True(t, rl.allow(now.Add(1000*time.Millisecond)))
	// The window now holds +100ms and +1000ms.
	assert.False(t, rl.allow(now.Add(1050*time.Millisecond)))
	assert.True(t, rl.allow(now.Add(1100*time.Millisecond)))
}

func TestClient_OfferAfterClose(t *testing.T) {
	c := NewClient("alice", "s1", 2)
	assert.True(t, c.Offer(Envelope{Type: "x"}))
	c.Close()
	c.Close()
	assert.False(t, c.Offer(Envelope{Type: "y"}))
	assert.Len(t, c.Send, 1)
}

func TestFrameLimiter_Defaults(t *testing.T) {
	rl := newFrameLimiter(0, 0)
	assert.Len(t, rl.stamps, rateLimitEvents)
	assert.Equal(t, rateLimitWindow, rl.window)
}
