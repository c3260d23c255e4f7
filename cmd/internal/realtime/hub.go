package realtime

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/moderation"
)

// Hub fans moderation events out to every connected feed client.
//
// Join and Leave are safe under concurrent Broadcast. Broadcast never blocks:
// a client whose queue is full misses the envelope.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	members map[string]*Client

	dropped atomic.Uint64
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		members: make(map[string]*Client),
	}
}

func (h *Hub) Join(client *Client) {
	if h == nil || client == nil || client.SessionID == "" {
		return
	}

	h.mu.Lock()
	h.members[client.SessionID] = client
	n := len(h.members)
	h.mu.Unlock()

	h.log.Info("feed.member.join", "session_id", client.SessionID, "subject", client.Subject, "members", n)
}

// Leave removes the client and then closes it, so no broadcaster still holds
// it while its goroutines wind down.
func (h *Hub) Leave(sessionID string) {
	if h == nil || sessionID == "" {
		return
	}

	h.mu.Lock()
	cl := h.members[sessionID]
	delete(h.members, sessionID)
	h.mu.Unlock()

	if cl != nil {
		cl.Close()
	}

	h.log.Info("feed.member.leave", "session_id", sessionID)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Dropped returns how many envelopes were discarded under backpressure.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) Broadcast(env Envelope) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, m := range h.members {
		if !m.Offer(env) {
			select {
			case <-m.Done():
			default:
				h.dropped.Add(1)
			}
		}
	}
}

// Publish implements moderation.Notifier.
func (h *Hub) Publish(ev moderation.Event) {
	h.Broadcast(newEnvelope(string(ev.Type), EntryPayload{Entry: ev.Entry, Actor: ev.Actor}, ev.At))
}
