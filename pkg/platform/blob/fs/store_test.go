package fs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/pkg/platform/blob/core"
	"travelkeep/pkg/platform/sentinel"
)

func TestStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, core.DriverFilesystem, store.Driver())

	_, err = store.Put(ctx, "audit_logs/2026/01/02/evt-1.json", strings.NewReader(`{"id":"evt-1"}`), core.PutOptions{ContentType: "application/json"})
	require.NoError(t, err)
	_, err = store.Put(ctx, "audit_logs/2026/01/03/evt-2.json", strings.NewReader(`{"id":"evt-2"}`), core.PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "exports/audit_log_s1.json", strings.NewReader(`{}`), core.PutOptions{})
	require.NoError(t, err)

	info, rc, err := store.Get(ctx, "audit_logs/2026/01/02/evt-1.json")
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "application/json", info.ContentType)
	assert.Equal(t, int64(14), info.Size)

	list, err := store.List(ctx, "audit_logs/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "audit_logs/2026/01/02/evt-1.json", list[0].Key)
	assert.Equal(t, "audit_logs/2026/01/03/evt-2.json", list[1].Key)
}

func TestStore_CreateOnly(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "a/b.json", strings.NewReader("first"), core.PutOptions{})
	require.NoError(t, err)
	_, err = store.Put(ctx, "a/b.json", strings.NewReader("second"), core.PutOptions{})
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	data, err := core.ReadAll(ctx, store, "a/b.json")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStore_RejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "  ", "../escape", "/abs", "x.meta"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{})
		assert.Error(t, err, "key %q", key)
	}

	_, _, err = store.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
