// Package store implements the path-addressed backing store contract and the
// in-memory entity snapshots kept live on top of it.
//
// Values live under hierarchical string paths: the top-level collections
// "users", "restaurants" and "orders", entity paths such as "orders/{id}",
// and the nested fields "restaurants/{id}/menu" and
// "restaurants/{id}/reviews". Subscribers always receive the FULL value of a
// top-level collection on every change, never a diff.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means a referenced entity id is absent from the current
	// snapshot. The operation is aborted with no partial write.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backing store cannot be reached. Reads fall
	// back to the last cached snapshot; writes are best-effort only.
	ErrUnavailable = errors.New("backing store unavailable")
	// ErrBadPath means a store path did not parse.
	ErrBadPath = errors.New("malformed store path")
)

// Collections addressed at the top level.
const (
	CollectionUsers       = "users"
	CollectionRestaurants = "restaurants"
	CollectionOrders      = "orders"
)

// SnapshotFunc receives the full JSON value of a collection. A nil value
// means the collection is absent.
type SnapshotFunc func(value json.RawMessage)

// Backend is the backing store collaborator. Implementations provide
// last-write-wins semantics per path; there is no transaction primitive.
type Backend interface {
	// Subscribe registers fn for a top-level collection. fn is invoked once
	// immediately with the current value (nil if absent) and again whenever
	// anything beneath the collection changes.
	Subscribe(collection string, fn SnapshotFunc) (unsubscribe func(), err error)
	// Write fully overwrites the value at path.
	Write(ctx context.Context, path string, value any) error
	// Patch shallow-merges only the named fields into the entity at path,
	// creating the entity when absent.
	Patch(ctx context.Context, path string, fields map[string]any) error
	// Append inserts value under a newly generated unique key beneath path
	// and returns that key. The generated key is also set as the value's
	// "id" field.
	Append(ctx context.Context, path string, value any) (string, error)
	// ReadOnce returns the current value at path, nil when absent.
	ReadOnce(ctx context.Context, path string) (json.RawMessage, error)
	Close() error
}

// pathRef is a parsed store path.
type pathRef struct {
	Collection string
	EntityID   string
	Field      string
}

func parsePath(path string) (pathRef, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return pathRef{}, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		return pathRef{Collection: parts[0]}, nil
	case 2:
		return pathRef{Collection: parts[0], EntityID: parts[1]}, nil
	case 3:
		return pathRef{Collection: parts[0], EntityID: parts[1], Field: parts[2]}, nil
	}
	return pathRef{}, fmt.Errorf("%w: %q", ErrBadPath, path)
}

// toDoc round-trips a value through JSON into a generic document.
func toDoc(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalize round-trips an arbitrary value through JSON so documents hold
// only generic JSON types regardless of what callers pass in.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
