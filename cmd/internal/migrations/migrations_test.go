package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsInit(t *testing.T) {
	b, err := fs.ReadFile(FS(), "00001_init.sql")
	require.NoError(t, err)

	body := string(b)
	require.True(t, strings.HasPrefix(body, "-- +goose Up"))
	for _, table := range []string{"scribe.users", "scribe.change_requests", "scribe.dictionary_entries", "scribe.audit_log"} {
		require.Contains(t, body, "CREATE TABLE "+table)
	}
	require.Contains(t, body, "-- +goose Down")
}

func TestUp_DelegatesToGoose(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		require.Same(t, db, got)
		gotDir = dir
		return nil
	}

	require.NoError(t, Up(context.Background(), db))
	require.Equal(t, ".", gotDir)
}

func TestUp_PropagatesError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	require.ErrorIs(t, Up(context.Background(), db), boom)
}
