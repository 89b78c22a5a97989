package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	snap := json.RawMessage(`{"u1":{"id":"u1","name":"Amira"}}`)
	require.NoError(t, cache.Store("users", snap))

	got, err := cache.Load("users")
	require.NoError(t, err)
	assert.JSONEq(t, string(snap), string(got))
}

func TestFileCacheLoadAbsent(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	got, err := cache.Load("orders")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileCacheNilClears(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Store("users", json.RawMessage(`{}`)))
	require.NoError(t, cache.Store("users", nil))

	got, err := cache.Load("users")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing an already-absent file is fine
	require.NoError(t, cache.Store("users", nil))
}
