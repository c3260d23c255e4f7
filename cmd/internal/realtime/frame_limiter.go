package realtime

import "time"

// frameLimiter admits at most limit inbound frames per window for one
// connection. Admitted timestamps live in a fixed ring, oldest at head.
// It is owned by the read loop and is not safe for concurrent use.
type frameLimiter struct {
	stamps []time.Time
	head   int
	n      int
	window time.Duration
}

func newFrameLimiter(limit int, window time.Duration) *frameLimiter {
	if limit <= 0 {
		limit = rateLimitEvents
	}
	if window <= 0 {
		window = rateLimitWindow
	}
	return &frameLimiter{stamps: make([]time.Time, limit), window: window}
}

// allow records a frame at now and reports whether it fits the budget.
// Refused frames are not recorded.
func (l *frameLimiter) allow(now time.Time) bool {
	size := len(l.stamps)
	if l.n < size {
		l.stamps[(l.head+l.n)%size] = now
		l.n++
		return true
	}
	if now.Sub(l.stamps[l.head]) < l.window {
		return false
	}
	// The oldest frame left the window; its slot becomes the newest.
	l.stamps[l.head] = now
	l.head = (l.head + 1) % size
	return true
}
