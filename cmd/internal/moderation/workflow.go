package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/identity/ids"
)

// DefaultMaxBatch caps words per submission and ids per decision.
const DefaultMaxBatch = 500

// EventType names a moderation event on the live feed.
type EventType string

const (
	EventStaged    EventType = "entry.staged"
	EventPublished EventType = "entry.published"
	EventRejected  EventType = "entry.rejected"
)

// Event is emitted after every successful submit or transition.
type Event struct {
	Type  EventType
	Entry Entry
	Actor string
	At    time.Time
}

// Notifier receives workflow events. Publish must not block.
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Publish(ev Event) { f(ev) }

// Result is the outcome for one id of a batch decision.
type Result struct {
	ID     string
	OK     bool
	Status Status // status after the call; empty when the id is unknown
	Err    error  // ConflictError, NotFoundError or a storage OpError when OK is false
}

// BatchResult is the outcome of Accept or Reject. OK is true iff at least
// one entry transitioned.
type BatchResult struct {
	OK      bool
	Results []Result
}

// Failed counts the ids whose decision hit a storage error. Their state is
// unknown to the caller and a retry is safe.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.OK && IsStorage(r.Err) {
			n++
		}
	}
	return n
}

// Succeeded counts the entries that transitioned.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK {
			n++
		}
	}
	return n
}

// Workflow drives entries through staged -> published | rejected.
type Workflow struct {
	store    Store
	log      *slog.Logger
	now      func() time.Time
	notifier Notifier
	maxBatch int
}

// Option configures a Workflow.
type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

func WithMaxBatch(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxBatch = n
		}
	}
}

func NewWorkflow(store Store, log *slog.Logger, opts ...Option) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	w := &Workflow{
		store:    store,
		log:      log,
		now:      time.Now,
		maxBatch: DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit stages one entry per word under a new change request. Duplicates are kept.
func (w *Workflow) Submit(ctx context.Context, actor string, words []WordInput) ([]Entry, error) {
	const op = "moderation.Submit"

	actor = strings.TrimSpace(actor)
	switch {
	case actor == "":
		return nil, invalid(op, "actor is required")
	case len(words) == 0:
		return nil, invalid(op, "no words")
	case len(words) > w.maxBatch:
		return nil, invalid(op, "too many words")
	}

	now := w.now().UTC()
	reqID, err := ids.NewULID(now)
	if err != nil {
		return nil, OpError{Op: op, Kind: ErrStorage, Msg: "id generation", Err: err}
	}
	req := ChangeRequest{ID: reqID, SubmittedBy: actor, SubmittedAt: now}

	entries := make([]Entry, 0, len(words))
	for _, in := range words {
		word, err := in.normalized()
		if err != nil {
			return nil, invalid(op, err.Error())
		}
		id, err := ids.NewULID(now)
		if err != nil {
			return nil, OpError{Op: op, Kind: ErrStorage, Msg: "id generation", Err: err}
		}
		entries = append(entries, Entry{
			ID:          id,
			RequestID:   reqID,
			Word:        word.Word,
			Definition:  word.Definition,
			Status:      StatusStaged,
			SubmittedBy: actor,
			SubmittedAt: now,
		})
	}

	if err := w.store.CreateRequest(ctx, req, entries); err != nil {
		return nil, asStorage(op, err)
	}

	w.log.Info("moderation.submit", "actor", actor, "request_id", reqID, "words", len(entries))
	for _, e := range entries {
		w.emit(EventStaged, e, actor, now)
	}
	return entries, nil
}

// Accept publishes each staged id.
func (w *Workflow) Accept(ctx context.Context, actor string, entryIDs []string) (BatchResult, error) {
	return w.decide(ctx, "moderation.Accept", actor, entryIDs, StatusPublished)
}

// Reject rejects each staged id.
func (w *Workflow) Reject(ctx context.Context, actor string, entryIDs []string) (BatchResult, error) {
	return w.decide(ctx, "moderation.Reject", actor, entryIDs, StatusRejected)
}

func (w *Workflow) decide(ctx context.Context, op, actor string, entryIDs []string, to Status) (BatchResult, error) {
	actor = strings.TrimSpace(actor)
	switch {
	case actor == "":
		return BatchResult{}, invalid(op, "actor is required")
	case len(entryIDs) == 0:
		return BatchResult{}, invalid(op, "no ids")
	case len(entryIDs) > w.maxBatch:
		return BatchResult{}, invalid(op, "too many ids")
	}
	clean := make([]string, len(entryIDs))
	for i, id := range entryIDs {
		clean[i] = strings.TrimSpace(id)
		if clean[i] == "" {
			return BatchResult{}, invalid(op, "blank id")
		}
	}
	if !CanTransition(StatusStaged, to) {
		return BatchResult{}, invalid(op, "illegal target status")
	}

	action := strings.ToLower(strings.TrimPrefix(op, "moderation."))

	now := w.now().UTC()
	out := BatchResult{Results: make([]Result, 0, len(clean))}

	for _, id := range clean {
		if err := ctx.Err(); err != nil {
			out.Results = append(out.Results, Result{ID: id, Err: storage(op, err)})
			continue
		}
		if !ids.Valid(id) {
			out.Results = append(out.Results, Result{ID: id, Err: NotFoundError{Op: op, ID: id}})
			continue
		}

		e, err := w.store.Transition(ctx, TransitionInput{ID: id, From: StatusStaged, To: to, Actor: actor, At: now})
		if err != nil {
			var ce ConflictError
			switch {
			case errors.As(err, &ce):
				w.log.Info("moderation."+action+".conflict", "actor", actor, "id", id, "status", ce.Status)
				out.Results = append(out.Results, Result{ID: id, Status: ce.Status, Err: err})
			case IsNotFound(err):
				w.log.Info("moderation."+action+".not_found", "actor", actor, "id", id)
				out.Results = append(out.Results, Result{ID: id, Err: err})
			default:
				// Earlier ids may already be committed, so keep going and
				// report this one as failed.
				err = asStorage(op, err)
				w.log.Error("moderation."+action+".store_fail", "actor", actor, "id", id, "err", err)
				out.Results = append(out.Results, Result{ID: id, Err: err})
			}
			continue
		}

		out.OK = true
		out.Results = append(out.Results, Result{ID: id, OK: true, Status: e.Status})
		w.emit(eventFor(e.Status), e, actor, now)
	}

	w.log.Info("moderation."+action,
		"actor", actor,
		"requested", len(clean),
		"succeeded", out.Succeeded(),
		"failed", out.Failed(),
	)
	return out, nil
}

// ListStaged returns entries awaiting a decision, oldest first.
func (w *Workflow) ListStaged(ctx context.Context) ([]Entry, error) {
	out, err := w.store.ListStaged(ctx)
	if err != nil {
		return nil, asStorage("moderation.ListStaged", err)
	}
	return out, nil
}

// ListPublished returns the live dictionary ordered by word.
func (w *Workflow) ListPublished(ctx context.Context) ([]Entry, error) {
	out, err := w.store.ListPublished(ctx)
	if err != nil {
		return nil, asStorage("moderation.ListPublished", err)
	}
	return out, nil
}

func (w *Workflow) emit(t EventType, e Entry, actor string, at time.Time) {
	if w.notifier == nil {
		return
	}
	w.notifier.Publish(Event{Type: t, Entry: e, Actor: actor, At: at})
}

func eventFor(s Status) EventType {
	if s == StatusRejected {
		return EventRejected
	}
	return EventPublished
}

func asStorage(op string, err error) error {
	if IsStorage(err) {
		return err
	}
	return storage(op, err)
}
