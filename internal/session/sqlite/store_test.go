package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/flowdecoder/internal/session"
)

var _ session.Backend = (*Store)(nil)

func TestStore_SetGetPreservesTypes(t *testing.T) {
	store, err := NewInMemory("s1")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, map[string]any{
		session.KeyCurrentText: "{\n    \"a\": 1\n}",
		session.KeyIsDecoded:   true,
	}))

	got, err := store.Get(ctx, session.Keys())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		session.KeyCurrentText: "{\n    \"a\": 1\n}",
		session.KeyIsDecoded:   true,
	}, got)
}

func TestStore_SetOverwrites(t *testing.T) {
	store, err := NewInMemory("s1")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, map[string]any{session.KeyCurrentText: "a"}))
	require.NoError(t, store.Set(ctx, map[string]any{session.KeyCurrentText: "b"}))

	got, err := store.Get(ctx, []string{session.KeyCurrentText})
	require.NoError(t, err)
	assert.Equal(t, "b", got[session.KeyCurrentText])
}

func TestStore_ClearOnlyTouchesNamespace(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	mine, err := newWithDB(db, "mine")
	require.NoError(t, err)
	theirs, err := newWithDB(db, "theirs")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mine.Set(ctx, map[string]any{session.KeyCurrentText: "x", "scratch": "y"}))
	require.NoError(t, theirs.Set(ctx, map[string]any{session.KeyCurrentText: "z"}))

	require.NoError(t, mine.Clear(ctx))

	got, err := mine.Get(ctx, []string{session.KeyCurrentText, "scratch"})
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := theirs.Get(ctx, []string{session.KeyCurrentText})
	require.NoError(t, err)
	assert.Equal(t, "z", other[session.KeyCurrentText])
}

func TestStore_PruneRemovesIdleNamespaces(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	old, err := newWithDB(db, "old")
	require.NoError(t, err)
	old.now = func() time.Time { return base.Add(-48 * time.Hour) }
	current, err := newWithDB(db, "current")
	require.NoError(t, err)
	current.now = func() time.Time { return base }

	ctx := context.Background()
	require.NoError(t, old.Set(ctx, map[string]any{session.KeyCurrentText: "stale"}))
	require.NoError(t, current.Set(ctx, map[string]any{session.KeyCurrentText: "fresh"}))

	n, err := current.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := old.Get(ctx, []string{session.KeyCurrentText})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_FileBackedSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := New(path, "s1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, map[string]any{session.KeyHasResult: true}))
	require.NoError(t, store.Close())

	reopened, err := New(path, "s1", time.Hour)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, []string{session.KeyHasResult})
	require.NoError(t, err)
	assert.Equal(t, true, got[session.KeyHasResult])
}

func TestStore_EmptyNamespaceRejected(t *testing.T) {
	_, err := NewInMemory("  ")
	require.Error(t, err)
}

func TestStore_ClosedStoreErrors(t *testing.T) {
	store, err := NewInMemory("s1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get(context.Background(), session.Keys())
	assert.Error(t, err)
	assert.Error(t, store.Set(context.Background(), map[string]any{"k": "v"}))
	assert.NoError(t, store.Close())
}

func TestStore_BacksSessionManager(t *testing.T) {
	store, err := NewInMemory("s1")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	m, err := session.NewManager(store, session.Options{})
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, session.Partial{
		CurrentText: session.Text("formatted"),
		IsDecoded:   session.Flag(true),
		HasResult:   session.Flag(true),
	}))

	fresh, err := session.NewManager(store, session.Options{})
	require.NoError(t, err)
	st, err := fresh.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.State{CurrentText: "formatted", IsDecoded: true, HasResult: true}, st)
}
