package moderation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStoreWithMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st, err := NewSQLStore(db, "")
	require.NoError(t, err)
	return st, mock
}

var entryCols = []string{"id", "request_id", "word", "definition", "status", "submitted_by", "submitted_at", "decided_by", "decided_at"}

func TestNewSQLStore_RejectsBadSchema(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(db, `bad"schema`)
	assert.Error(t, err)

	_, err = NewSQLStore(nil, "scribe")
	assert.Error(t, err)
}

func TestSQLStore_CreateRequest_Transactional(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "scribe"\."change_requests"`).
		WithArgs("r1", "editor1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "scribe"\."dictionary_entries"`).
		WithArgs("e1", "r1", "word", "", "staged", "editor1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.CreateRequest(context.Background(),
		ChangeRequest{ID: "r1", SubmittedBy: "editor1", SubmittedAt: now},
		[]Entry{{ID: "e1", RequestID: "r1", Word: "word", Status: StatusStaged, SubmittedBy: "editor1", SubmittedAt: now}},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CreateRequest_RollsBackOnEntryFailure(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "scribe"\."change_requests"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "scribe"\."dictionary_entries"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := st.CreateRequest(context.Background(),
		ChangeRequest{ID: "r1", SubmittedBy: "editor1", SubmittedAt: now},
		[]Entry{{ID: "e1", RequestID: "r1", Word: "w", Status: StatusStaged, SubmittedBy: "editor1", SubmittedAt: now}},
	)
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

const updateEntrySQL = `UPDATE "scribe"\."dictionary_entries"\s+SET status = \$2, decided_by = \$3, decided_at = \$4\s+WHERE id = \$1 AND status = \$5\s+RETURNING id, request_id`

func TestSQLStore_Transition_Success(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	// The committed row comes back from RETURNING; no follow-up read.
	mock.ExpectQuery(updateEntrySQL).
		WithArgs("e1", "published", "mod1", now, "staged").
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e1", "r1", "word", "", "published", "editor1", now, "mod1", now))

	e, err := st.Transition(context.Background(), TransitionInput{ID: "e1", From: StatusStaged, To: StatusPublished, Actor: "mod1", At: now})
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, e.Status)
	assert.Equal(t, "mod1", e.DecidedBy)
	assert.Equal(t, now, e.DecidedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Transition_Conflict(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(updateEntrySQL).
		WillReturnRows(sqlmock.NewRows(entryCols))
	mock.ExpectQuery(`SELECT .* FROM "scribe"\."dictionary_entries" WHERE id = \$1`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e1", "r1", "word", "", "rejected", "editor1", now, "mod2", now))

	_, err := st.Transition(context.Background(), TransitionInput{ID: "e1", From: StatusStaged, To: StatusPublished, Actor: "mod1", At: now})
	var ce ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StatusRejected, ce.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Transition_NotFound(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)

	mock.ExpectQuery(updateEntrySQL).
		WillReturnRows(sqlmock.NewRows(entryCols))
	mock.ExpectQuery(`SELECT .* FROM "scribe"\."dictionary_entries" WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := st.Transition(context.Background(), TransitionInput{ID: "nope", From: StatusStaged, To: StatusRejected, Actor: "mod1", At: time.Now()})
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Transition_UpdateError(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)

	mock.ExpectQuery(updateEntrySQL).WillReturnError(errors.New("conn refused"))

	_, err := st.Transition(context.Background(), TransitionInput{ID: "e1", From: StatusStaged, To: StatusRejected, Actor: "mod1", At: time.Now()})
	assert.True(t, IsStorage(err))
	require.NoError(t, mock.ExpectationsWereMet(), "no existence read after a failed update")
}

func TestSQLStore_ListOrdering(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE status = \$1 ORDER BY submitted_at, id`).
		WithArgs("staged").
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e1", "r1", "b", "", "staged", "editor1", now, nil, nil).
			AddRow("e2", "r1", "a", "", "staged", "editor1", now, nil, nil))
	mock.ExpectQuery(`WHERE status = \$1 ORDER BY word, id`).
		WithArgs("published").
		WillReturnRows(sqlmock.NewRows(entryCols))

	staged, err := st.ListStaged(context.Background())
	require.NoError(t, err)
	require.Len(t, staged, 2)
	assert.Empty(t, staged[0].DecidedBy)
	assert.True(t, staged[0].DecidedAt.IsZero())

	published, err := st.ListPublished(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, published)
	assert.Empty(t, published)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ListRejectsUnknownStatus(t *testing.T) {
	st, mock := newSQLStoreWithMock(t)
	mock.ExpectQuery(`ORDER BY word, id`).
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow("e1", "r1", "a", "", "archived", "editor1", time.Now(), nil, nil))

	_, err := st.ListPublished(context.Background())
	assert.True(t, IsStorage(err))
}
