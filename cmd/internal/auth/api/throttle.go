package authapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/web"
)

// failureWindow counts failed logins per key over a sliding window.
type failureWindow struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
}

func newFailureWindow(limit int, window time.Duration) *failureWindow {
	return &failureWindow{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// blocked reports whether key has reached the limit at now, and for how long.
func (f *failureWindow) blocked(key string, now time.Time) (bool, time.Duration) {
	if f == nil || f.limit <= 0 || key == "" {
		return false, 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ev := f.pruneLocked(key, now)
	if len(ev) < f.limit {
		return false, 0
	}
	retry := ev[0].Add(f.window).Sub(now)
	if retry < time.Second {
		retry = time.Second
	}
	return true, retry
}

func (f *failureWindow) record(key string, now time.Time) {
	if f == nil || f.limit <= 0 || key == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.events[key] = append(f.pruneLocked(key, now), now)
}

func (f *failureWindow) reset(key string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	delete(f.events, key)
	f.mu.Unlock()
}

func (f *failureWindow) pruneLocked(key string, now time.Time) []time.Time {
	cut := now.Add(-f.window)
	ev := f.events[key]
	dst := ev[:0]
	for _, t := range ev {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	if len(dst) == 0 {
		delete(f.events, key)
		return nil
	}
	f.events[key] = dst
	return dst
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Round(time.Second)/time.Second), 10))
	}
	web.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
