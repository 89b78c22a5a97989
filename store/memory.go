package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend is a process-local Backend used in tests and ephemeral
// deployments. Snapshot fan-out is synchronous: by the time a write call
// returns, every subscriber has seen the new collection value.
type MemoryBackend struct {
	mu      sync.Mutex
	data    map[string]map[string]map[string]any // collection → id → document
	subs    map[string]map[int]SnapshotFunc
	nextSub int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]map[string]map[string]any),
		subs: make(map[string]map[int]SnapshotFunc),
	}
}

func (b *MemoryBackend) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	b.mu.Lock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]SnapshotFunc)
	}
	id := b.nextSub
	b.nextSub++
	b.subs[collection][id] = fn
	snap := b.snapshotLocked(collection)
	b.mu.Unlock()

	fn(snap)
	return func() {
		b.mu.Lock()
		delete(b.subs[collection], id)
		b.mu.Unlock()
	}, nil
}

func (b *MemoryBackend) Write(_ context.Context, path string, value any) error {
	ref, err := parsePath(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	switch {
	case ref.EntityID == "":
		// Whole-collection overwrite.
		raw, merr := json.Marshal(value)
		if merr == nil {
			var coll map[string]map[string]any
			merr = json.Unmarshal(raw, &coll)
			if merr == nil {
				b.data[ref.Collection] = coll
			}
		}
		if merr != nil {
			b.mu.Unlock()
			return fmt.Errorf("write %s: %w", path, merr)
		}
	case ref.Field == "":
		doc, derr := toDoc(value)
		if derr != nil {
			b.mu.Unlock()
			return fmt.Errorf("write %s: %w", path, derr)
		}
		b.ensureCollection(ref.Collection)[ref.EntityID] = doc
	default:
		val, nerr := normalize(value)
		if nerr != nil {
			b.mu.Unlock()
			return fmt.Errorf("write %s: %w", path, nerr)
		}
		coll := b.ensureCollection(ref.Collection)
		if coll[ref.EntityID] == nil {
			coll[ref.EntityID] = make(map[string]any)
		}
		coll[ref.EntityID][ref.Field] = val
	}
	b.publishLocked(ref.Collection)
	return nil
}

func (b *MemoryBackend) Patch(_ context.Context, path string, fields map[string]any) error {
	ref, err := parsePath(path)
	if err != nil {
		return err
	}
	if ref.EntityID == "" || ref.Field != "" {
		return fmt.Errorf("%w: patch wants an entity path, got %q", ErrBadPath, path)
	}
	norm, err := toDoc(fields)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}

	b.mu.Lock()
	coll := b.ensureCollection(ref.Collection)
	if coll[ref.EntityID] == nil {
		coll[ref.EntityID] = make(map[string]any)
	}
	for k, v := range norm {
		coll[ref.EntityID][k] = v
	}
	b.publishLocked(ref.Collection)
	return nil
}

func (b *MemoryBackend) Append(_ context.Context, path string, value any) (string, error) {
	ref, err := parsePath(path)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	b.mu.Lock()
	switch {
	case ref.EntityID == "":
		doc, derr := toDoc(value)
		if derr != nil {
			b.mu.Unlock()
			return "", fmt.Errorf("append %s: %w", path, derr)
		}
		doc["id"] = id
		b.ensureCollection(ref.Collection)[id] = doc
	case ref.Field != "":
		doc, derr := toDoc(value)
		if derr != nil {
			b.mu.Unlock()
			return "", fmt.Errorf("append %s: %w", path, derr)
		}
		doc["id"] = id
		coll := b.ensureCollection(ref.Collection)
		if coll[ref.EntityID] == nil {
			coll[ref.EntityID] = make(map[string]any)
		}
		list, _ := coll[ref.EntityID][ref.Field].([]any)
		coll[ref.EntityID][ref.Field] = append(list, doc)
	default:
		b.mu.Unlock()
		return "", fmt.Errorf("%w: cannot append to entity path %q", ErrBadPath, path)
	}
	b.publishLocked(ref.Collection)
	return id, nil
}

func (b *MemoryBackend) ReadOnce(_ context.Context, path string) (json.RawMessage, error) {
	ref, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case ref.EntityID == "":
		return b.snapshotLocked(ref.Collection), nil
	case ref.Field == "":
		doc, ok := b.data[ref.Collection][ref.EntityID]
		if !ok {
			return nil, nil
		}
		return json.Marshal(doc)
	default:
		doc, ok := b.data[ref.Collection][ref.EntityID]
		if !ok {
			return nil, nil
		}
		val, ok := doc[ref.Field]
		if !ok {
			return nil, nil
		}
		return json.Marshal(val)
	}
}

func (b *MemoryBackend) Close() error { return nil }

func (b *MemoryBackend) ensureCollection(collection string) map[string]map[string]any {
	if b.data[collection] == nil {
		b.data[collection] = make(map[string]map[string]any)
	}
	return b.data[collection]
}

func (b *MemoryBackend) snapshotLocked(collection string) json.RawMessage {
	coll, ok := b.data[collection]
	if !ok || len(coll) == 0 {
		return nil
	}
	raw, err := json.Marshal(coll)
	if err != nil {
		return nil
	}
	return raw
}

// publishLocked fans the new collection snapshot out to subscribers and
// releases the backend mutex. Callbacks run outside the lock so a
// subscriber may call back into the backend.
func (b *MemoryBackend) publishLocked(collection string) {
	snap := b.snapshotLocked(collection)
	fns := make([]SnapshotFunc, 0, len(b.subs[collection]))
	for _, fn := range b.subs[collection] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
