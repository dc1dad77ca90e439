package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/checkpoint"
)

func newSQLiteStore(t *testing.T) *checkpoint.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	store, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newSQLiteStore(t)

	require.NoError(t, store.Save("s-1", 1, []byte("one")))
	require.NoError(t, store.Save("s-1", 5, []byte("five")))
	require.NoError(t, store.Save("s-2", 1, []byte("other")))

	step, data, err := store.Load("s-1")
	require.NoError(t, err)
	assert.Equal(t, 5, step)
	assert.Equal(t, []byte("five"), data)

	data, err = store.LoadStep("s-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newSQLiteStore(t)

	_, _, err := store.Load("missing")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	_, err = store.LoadStep("s-1", 99)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	store := newSQLiteStore(t)

	require.NoError(t, store.Save("s-1", 1, []byte("a")))
	require.NoError(t, store.Save("s-1", 1, []byte("b")))

	_, data, err := store.Load("s-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	infos, err := store.List("s-1")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	store, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("s-1", 3, []byte("durable")))
	require.NoError(t, store.Close())

	reopened, err := checkpoint.NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	step, data, err := reopened.Load("s-1")
	require.NoError(t, err)
	assert.Equal(t, 3, step)
	assert.Equal(t, []byte("durable"), data)
}

func TestSQLiteStore_SessionsAndDelete(t *testing.T) {
	store := newSQLiteStore(t)

	require.NoError(t, store.Save("s-b", 1, []byte("x")))
	require.NoError(t, store.Save("s-a", 1, []byte("y")))

	sessions, err := store.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"s-a", "s-b"}, sessions)

	require.NoError(t, store.DeleteSession("s-a"))
	_, _, err = store.Load("s-a")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestSQLiteStore_Closed(t *testing.T) {
	store := newSQLiteStore(t)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Save("s-1", 1, []byte("a")), checkpoint.ErrStoreClosed)
}
