package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeDeliversImmediately(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "users/u1", map[string]any{"id": "u1", "name": "Amira"}))

	var got json.RawMessage
	calls := 0
	unsub, err := b.Subscribe("users", func(raw json.RawMessage) {
		got = raw
		calls++
	})
	require.NoError(t, err)
	defer unsub()

	require.Equal(t, 1, calls, "initial snapshot delivered on subscribe")
	var coll map[string]map[string]any
	require.NoError(t, json.Unmarshal(got, &coll))
	assert.Equal(t, "Amira", coll["u1"]["name"])
}

func TestSubscribeSeesEveryChange(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	var snapshots []json.RawMessage
	unsub, err := b.Subscribe("users", func(raw json.RawMessage) {
		snapshots = append(snapshots, raw)
	})
	require.NoError(t, err)
	defer unsub()

	assert.Nil(t, snapshots[0], "empty collection delivers nil")

	require.NoError(t, b.Write(ctx, "users/u1", map[string]any{"id": "u1"}))
	require.NoError(t, b.Patch(ctx, "users/u1", map[string]any{"name": "Amira"}))
	require.Len(t, snapshots, 3)

	var coll map[string]map[string]any
	require.NoError(t, json.Unmarshal(snapshots[2], &coll))
	assert.Equal(t, "Amira", coll["u1"]["name"])
	assert.Equal(t, "u1", coll["u1"]["id"], "patch merges, never replaces")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBackend()

	calls := 0
	unsub, err := b.Subscribe("users", func(json.RawMessage) { calls++ })
	require.NoError(t, err)
	unsub()

	require.NoError(t, b.Write(context.Background(), "users/u1", map[string]any{"id": "u1"}))
	assert.Equal(t, 1, calls, "only the initial delivery")
}

func TestAppendGeneratesIDs(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	id1, err := b.Append(ctx, "orders", map[string]any{"total": 500})
	require.NoError(t, err)
	id2, err := b.Append(ctx, "orders", map[string]any{"total": 900})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	raw, err := b.ReadOnce(ctx, "orders/"+id1)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, id1, doc["id"], "generated key doubles as the id field")
	assert.EqualValues(t, 500, doc["total"])
}

func TestAppendToNestedField(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "restaurants/r1", map[string]any{"id": "r1"}))

	id, err := b.Append(ctx, "restaurants/r1/reviews", map[string]any{"rating": 5})
	require.NoError(t, err)
	_, err = b.Append(ctx, "restaurants/r1/reviews", map[string]any{"rating": 3})
	require.NoError(t, err)

	raw, err := b.ReadOnce(ctx, "restaurants/r1/reviews")
	require.NoError(t, err)
	var reviews []map[string]any
	require.NoError(t, json.Unmarshal(raw, &reviews))
	require.Len(t, reviews, 2)
	assert.Equal(t, id, reviews[0]["id"])
}

func TestWriteNestedFieldOverwrites(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "restaurants/r1", map[string]any{"id": "r1", "name": "Shawarma House"}))
	require.NoError(t, b.Write(ctx, "restaurants/r1/menu", []map[string]any{{"id": "m1", "price": 900}}))

	raw, err := b.ReadOnce(ctx, "restaurants/r1/menu")
	require.NoError(t, err)
	var menu []map[string]any
	require.NoError(t, json.Unmarshal(raw, &menu))
	require.Len(t, menu, 1)

	// The sibling fields are untouched
	raw, err = b.ReadOnce(ctx, "restaurants/r1")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Shawarma House", doc["name"])
}

func TestReadOnceAbsent(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	raw, err := b.ReadOnce(ctx, "users/nope")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestBadPaths(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	assert.ErrorIs(t, b.Write(ctx, "a/b/c/d", nil), ErrBadPath)
	assert.ErrorIs(t, b.Patch(ctx, "users", map[string]any{}), ErrBadPath)
	_, err := b.Append(ctx, "users/u1", map[string]any{})
	assert.ErrorIs(t, err, ErrBadPath)
}
