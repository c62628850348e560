package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE session (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAccessToken, "A1"))
	v, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A1", v)

	require.NoError(t, r.Set(ctx, KeyAccessToken, "A2"))
	v, err = r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", v, "upsert replaces the value")
}

func TestGet_MissingKeyIsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestDeleteAndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyUserID, "u1"))
	require.NoError(t, r.Set(ctx, KeyEmail, "a@x.io"))

	require.NoError(t, r.Delete(ctx, KeyUserID))
	v, err := r.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, r.Clear(ctx))
	v, err = r.Get(ctx, KeyEmail)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.Get(context.Background(), KeyEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get session[email]")

	err = r.Set(context.Background(), KeyEmail, "x")
	require.Error(t, err)
}
