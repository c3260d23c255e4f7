package realtime

import (
	"sync"
	"time"
)

// Client is one connected feed subscriber.
//
// Send is never closed; done tells the connection goroutines to stop.
type Client struct {
	SessionID string
	Subject   string
	Joined    time.Time
	Send      chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(subject, sessionID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = minSendQueueSize
	}
	return &Client{
		SessionID: sessionID,
		Subject:   subject,
		Joined:    time.Now().UTC(),
		Send:      make(chan Envelope, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Offer queues env without blocking. It reports false when the client is
// closing or its queue is full.
func (c *Client) Offer(env Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- env:
		return true
	default:
		return false
	}
}

// Done is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
