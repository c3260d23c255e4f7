package moderation

import (
	"context"
	"errors"
	"time"
)

var errDuplicateID = errors.New("duplicate id")

// TransitionInput describes one compare-and-set on an entry's status.
type TransitionInput struct {
	ID    string
	From  Status
	To    Status
	Actor string
	At    time.Time
}

// Store persists change requests and entries.
//
// Transition must be atomic: it moves the entry only if its status still
// equals From, returning ConflictError (with the current status) otherwise
// and NotFoundError when the id is unknown.
type Store interface {
	CreateRequest(ctx context.Context, req ChangeRequest, entries []Entry) error
	Transition(ctx context.Context, in TransitionInput) (Entry, error)

	// ListStaged orders by SubmittedAt, then ID.
	ListStaged(ctx context.Context) ([]Entry, error)
	// ListPublished orders by Word, then ID.
	ListPublished(ctx context.Context) ([]Entry, error)
}
