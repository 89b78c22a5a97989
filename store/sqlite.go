package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// storeEntry is one persisted document: a single entity JSON blob keyed by
// collection and id.
type storeEntry struct {
	Collection string `gorm:"primaryKey;size:32"`
	EntityID   string `gorm:"primaryKey;size:64"`
	Value      string
}

func (storeEntry) TableName() string { return "store_entries" }

// SQLiteBackend is the default single-node Backend: documents in a sqlite
// file, subscriber fan-out in process. Like the in-memory backend, fan-out
// is synchronous with the write.
type SQLiteBackend struct {
	db *gorm.DB

	mu      sync.Mutex
	subs    map[string]map[int]SnapshotFunc
	nextSub int
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&storeEntry{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &SQLiteBackend{
		db:   db,
		subs: make(map[string]map[int]SnapshotFunc),
	}, nil
}

func (b *SQLiteBackend) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	snap, err := b.snapshot(context.Background(), collection)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]SnapshotFunc)
	}
	id := b.nextSub
	b.nextSub++
	b.subs[collection][id] = fn
	b.mu.Unlock()

	fn(snap)
	return func() {
		b.mu.Lock()
		delete(b.subs[collection], id)
		b.mu.Unlock()
	}, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, path string, value any) error {
	ref, err := parsePath(path)
	if err != nil {
		return err
	}
	switch {
	case ref.EntityID == "":
		if err := b.replaceCollection(ctx, ref.Collection, value); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	case ref.Field == "":
		raw, merr := json.Marshal(value)
		if merr != nil {
			return fmt.Errorf("write %s: %w", path, merr)
		}
		if err := b.upsert(ctx, ref.Collection, ref.EntityID, string(raw)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	default:
		if err := b.mutateDoc(ctx, ref, func(doc map[string]any) error {
			val, nerr := normalize(value)
			if nerr != nil {
				return nerr
			}
			doc[ref.Field] = val
			return nil
		}); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return b.publish(ctx, ref.Collection)
}

func (b *SQLiteBackend) Patch(ctx context.Context, path string, fields map[string]any) error {
	ref, err := parsePath(path)
	if err != nil {
		return err
	}
	if ref.EntityID == "" || ref.Field != "" {
		return fmt.Errorf("%w: patch wants an entity path, got %q", ErrBadPath, path)
	}
	if err := b.mutateDoc(ctx, ref, func(doc map[string]any) error {
		norm, nerr := toDoc(fields)
		if nerr != nil {
			return nerr
		}
		for k, v := range norm {
			doc[k] = v
		}
		return nil
	}); err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	return b.publish(ctx, ref.Collection)
}

func (b *SQLiteBackend) Append(ctx context.Context, path string, value any) (string, error) {
	ref, err := parsePath(path)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	doc, err := toDoc(value)
	if err != nil {
		return "", fmt.Errorf("append %s: %w", path, err)
	}
	doc["id"] = id

	switch {
	case ref.EntityID == "":
		raw, merr := json.Marshal(doc)
		if merr != nil {
			return "", fmt.Errorf("append %s: %w", path, merr)
		}
		if err := b.upsert(ctx, ref.Collection, id, string(raw)); err != nil {
			return "", fmt.Errorf("append %s: %w", path, err)
		}
	case ref.Field != "":
		if err := b.mutateDoc(ctx, ref, func(entity map[string]any) error {
			list, _ := entity[ref.Field].([]any)
			entity[ref.Field] = append(list, doc)
			return nil
		}); err != nil {
			return "", fmt.Errorf("append %s: %w", path, err)
		}
	default:
		return "", fmt.Errorf("%w: cannot append to entity path %q", ErrBadPath, path)
	}
	if err := b.publish(ctx, ref.Collection); err != nil {
		return "", err
	}
	return id, nil
}

func (b *SQLiteBackend) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	ref, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if ref.EntityID == "" {
		return b.snapshot(ctx, ref.Collection)
	}

	var entry storeEntry
	err = b.db.WithContext(ctx).
		Where("collection = ? AND entity_id = ?", ref.Collection, ref.EntityID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if ref.Field == "" {
		return json.RawMessage(entry.Value), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(entry.Value), &doc); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc[ref.Field], nil
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *SQLiteBackend) upsert(ctx context.Context, collection, id, value string) error {
	entry := storeEntry{Collection: collection, EntityID: id, Value: value}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
}

// mutateDoc loads the entity document (empty when absent), applies mutate
// and stores it back.
func (b *SQLiteBackend) mutateDoc(ctx context.Context, ref pathRef, mutate func(map[string]any) error) error {
	doc := make(map[string]any)
	var entry storeEntry
	err := b.db.WithContext(ctx).
		Where("collection = ? AND entity_id = ?", ref.Collection, ref.EntityID).
		First(&entry).Error
	if err == nil {
		if uerr := json.Unmarshal([]byte(entry.Value), &doc); uerr != nil {
			return uerr
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := mutate(doc); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return b.upsert(ctx, ref.Collection, ref.EntityID, string(raw))
}

func (b *SQLiteBackend) replaceCollection(ctx context.Context, collection string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var coll map[string]json.RawMessage
	if err := json.Unmarshal(raw, &coll); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&storeEntry{}).Error; err != nil {
			return err
		}
		for id, doc := range coll {
			entry := storeEntry{Collection: collection, EntityID: id, Value: string(doc)}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SQLiteBackend) snapshot(ctx context.Context, collection string) (json.RawMessage, error) {
	var entries []storeEntry
	if err := b.db.WithContext(ctx).Where("collection = ?", collection).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", collection, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	coll := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		coll[e.EntityID] = json.RawMessage(e.Value)
	}
	return json.Marshal(coll)
}

func (b *SQLiteBackend) publish(ctx context.Context, collection string) error {
	snap, err := b.snapshot(ctx, collection)
	if err != nil {
		return err
	}
	b.mu.Lock()
	fns := make([]SnapshotFunc, 0, len(b.subs[collection]))
	for _, fn := range b.subs[collection] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
	return nil
}
