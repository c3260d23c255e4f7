package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/dbx"

	"github.com/jackc/pgx/v5"
)

// SQLStore persists entries in PostgreSQL through database/sql and the pgx driver.
// The *sql.DB is owned by the caller.
type SQLStore struct {
	db       *sql.DB
	requests string
	entries  string
}

var sqlIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewSQLStore binds the store to db and schema (default "scribe").
func NewSQLStore(db *sql.DB, schema string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("moderation: nil db")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "scribe"
	}
	if !sqlIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("moderation: invalid schema identifier")
	}
	return &SQLStore{
		db:       db,
		requests: pgx.Identifier{schema, "change_requests"}.Sanitize(),
		entries:  pgx.Identifier{schema, "dictionary_entries"}.Sanitize(),
	}, nil
}

const entryColumns = `id, request_id, word, definition, status, submitted_by, submitted_at, decided_by, decided_at`

// CreateRequest inserts the request and its entries in one transaction.
func (s *SQLStore) CreateRequest(ctx context.Context, req ChangeRequest, entries []Entry) error {
	const op = "moderation.SQLStore.CreateRequest"

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+s.requests+` (id, submitted_by, submitted_at) VALUES ($1, $2, $3)`,
			req.ID, req.SubmittedBy, req.SubmittedAt,
		); err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO `+s.entries+` (id, request_id, word, definition, status, submitted_by, submitted_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.ID, e.RequestID, e.Word, e.Definition, string(e.Status), e.SubmittedBy, e.SubmittedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storage(op, err)
	}
	return nil
}

// Transition is a conditional UPDATE ... RETURNING. Only when no row comes
// back does a second read tell an unknown id from one that already left From.
func (s *SQLStore) Transition(ctx context.Context, in TransitionInput) (Entry, error) {
	const op = "moderation.SQLStore.Transition"

	row := s.db.QueryRowContext(ctx,
		`UPDATE `+s.entries+`
		    SET status = $2, decided_by = $3, decided_at = $4
		  WHERE id = $1 AND status = $5
		RETURNING `+entryColumns,
		in.ID, string(in.To), in.Actor, in.At.UTC(), string(in.From),
	)
	e, err := scanEntry(row)
	switch {
	case err == nil:
		return e, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Entry{}, storage(op, err)
	}

	cur, err := s.get(ctx, s.db, op, in.ID)
	if err != nil {
		return Entry{}, err
	}
	return Entry{}, ConflictError{Op: op, ID: in.ID, Status: cur.Status}
}

func (s *SQLStore) ListStaged(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, "moderation.SQLStore.ListStaged", StatusStaged, "submitted_at, id")
}

func (s *SQLStore) ListPublished(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, "moderation.SQLStore.ListPublished", StatusPublished, "word, id")
}

func (s *SQLStore) get(ctx context.Context, q dbx.DBTX, op, id string) (Entry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM `+s.entries+` WHERE id = $1`, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, NotFoundError{Op: op, ID: id}
		}
		return Entry{}, storage(op, err)
	}
	return e, nil
}

func (s *SQLStore) list(ctx context.Context, op string, status Status, orderBy string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM `+s.entries+` WHERE status = $1 ORDER BY `+orderBy, string(status))
	if err != nil {
		return nil, storage(op, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storage(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage(op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e         Entry
		status    string
		decidedBy sql.NullString
		decidedAt sql.NullTime
	)
	if err := sc.Scan(&e.ID, &e.RequestID, &e.Word, &e.Definition, &status,
		&e.SubmittedBy, &e.SubmittedAt, &decidedBy, &decidedAt); err != nil {
		return Entry{}, err
	}

	e.Status = Status(status)
	if !e.Status.IsValid() {
		return Entry{}, fmt.Errorf("unknown status %q", status)
	}
	e.SubmittedAt = e.SubmittedAt.UTC()
	if decidedBy.Valid {
		e.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		e.DecidedAt = decidedAt.Time.UTC()
	}
	return e, nil
}
