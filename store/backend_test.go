package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend refuses everything, standing in for an unreachable store.
type failingBackend struct{}

var errDown = errors.New("connection refused")

func (failingBackend) Subscribe(string, SnapshotFunc) (func(), error) { return nil, errDown }
func (failingBackend) Write(context.Context, string, any) error { return errDown }
func (failingBackend) Patch(context.Context, string, map[string]any) error {
	return errDown
}
func (failingBackend) Append(context.Context, string, any) (string, error) { return "", errDown }
func (failingBackend) ReadOnce(context.Context, string) (json.RawMessage, error) {
	return nil, errDown
}
func (failingBackend) Close() error { return nil }

func TestParsePath(t *testing.T) {
	ref, err := parsePath("users")
	require.NoError(t, err)
	assert.Equal(t, pathRef{Collection: "users"}, ref)

	ref, err = parsePath("orders/o1")
	require.NoError(t, err)
	assert.Equal(t, pathRef{Collection: "orders", EntityID: "o1"}, ref)

	ref, err = parsePath("restaurants/r1/menu")
	require.NoError(t, err)
	assert.Equal(t, pathRef{Collection: "restaurants", EntityID: "r1", Field: "menu"}, ref)

	_, err = parsePath("")
	assert.ErrorIs(t, err, ErrBadPath)
	_, err = parsePath("a/b/c/d")
	assert.ErrorIs(t, err, ErrBadPath)
}
