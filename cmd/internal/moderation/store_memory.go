package moderation

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. A single mutex makes each transition a
// check-and-set.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]ChangeRequest
	entries  map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]ChangeRequest),
		entries:  make(map[string]Entry),
	}
}

func (s *MemoryStore) CreateRequest(ctx context.Context, req ChangeRequest, entries []Entry) error {
	const op = "moderation.MemoryStore.CreateRequest"
	if err := ctx.Err(); err != nil {
		return storage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; ok {
		return storage(op, errDuplicateID)
	}
	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			return storage(op, errDuplicateID)
		}
	}

	s.requests[req.ID] = req
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

func (s *MemoryStore) Transition(ctx context.Context, in TransitionInput) (Entry, error) {
	const op = "moderation.MemoryStore.Transition"
	if err := ctx.Err(); err != nil {
		return Entry{}, storage(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[in.ID]
	if !ok {
		return Entry{}, NotFoundError{Op: op, ID: in.ID}
	}
	if e.Status != in.From {
		return Entry{}, ConflictError{Op: op, ID: in.ID, Status: e.Status}
	}

	e.Status = in.To
	e.DecidedBy = in.Actor
	e.DecidedAt = in.At.UTC()
	s.entries[in.ID] = e
	return e, nil
}

// lookup returns the entry with id, or NotFoundError.
func (s *MemoryStore) lookup(ctx context.Context, id string) (Entry, error) {
	const op = "moderation.MemoryStore.lookup"
	if err := ctx.Err(); err != nil {
		return Entry{}, storage(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, NotFoundError{Op: op, ID: id}
	}
	return e, nil
}

func (s *MemoryStore) ListStaged(ctx context.Context) ([]Entry, error) {
	out, err := s.list(ctx, "moderation.MemoryStore.ListStaged", StatusStaged)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListPublished(ctx context.Context) ([]Entry, error) {
	out, err := s.list(ctx, "moderation.MemoryStore.ListPublished", StatusPublished)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Word != out[j].Word {
			return out[i].Word < out[j].Word
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) list(ctx context.Context, op string, status Status) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage(op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}
