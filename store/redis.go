package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisKeyPrefix     = "akly:"
	redisChangeChannel = "akly:changes"
	redisPingTimeout   = 5 * time.Second
)

// RedisBackend is the multi-process Backend: documents in Redis keys
// ("akly:<collection>:<id>"), change fan-out over a pub/sub channel. Unlike
// the in-process backends, snapshot delivery is asynchronous: writes become
// visible to subscribers whenever the change message arrives, with no
// ordering guarantee between rapid writes to different paths.
type RedisBackend struct {
	client *redis.Client
	log    zerolog.Logger
	pubsub *redis.PubSub
	cancel context.CancelFunc

	mu      sync.Mutex
	subs    map[string]map[int]SnapshotFunc
	nextSub int
}

func NewRedisBackend(ctx context.Context, addr string, db int, log zerolog.Logger) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	loopCtx, stop := context.WithCancel(context.Background())
	b := &RedisBackend{
		client: client,
		log:    log.With().Str("component", "redis_store").Logger(),
		pubsub: client.Subscribe(loopCtx, redisChangeChannel),
		cancel: stop,
		subs:   make(map[string]map[int]SnapshotFunc),
	}
	go b.changeLoop(loopCtx)
	return b, nil
}

// changeLoop fans snapshots out to local subscribers whenever any process
// publishes a change for a collection.
func (b *RedisBackend) changeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-b.pubsub.Channel():
			if !ok {
				return
			}
			b.fanout(ctx, msg.Payload)
		}
	}
}

func (b *RedisBackend) fanout(ctx context.Context, collection string) {
	snap, err := b.snapshot(ctx, collection)
	if err != nil {
		b.log.Error().Err(err).Str("collection", collection).Msg("snapshot rebuild failed")
		return
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
}

func (b *RedisBackend) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
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

func (b *RedisBackend) Write(ctx context.Context, path string, value any) error {
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
		if err := b.client.Set(ctx, b.key(ref.Collection, ref.EntityID), raw, 0).Err(); err != nil {
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
	return b.announce(ctx, ref.Collection)
}

func (b *RedisBackend) Patch(ctx context.Context, path string, fields map[string]any) error {
	ref, err := parsePath(path)
	if err != nil {
		return err
	}
	if ref.EntityID == "" || ref.Field != "" {
		return fmt.Errorf("%w: patch wants an entity path, got %q", ErrBadPath, path)
	}
	// Read-modify-write: a concurrent patch to the same document can be
	// lost (last-write-wins).
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
	return b.announce(ctx, ref.Collection)
}

func (b *RedisBackend) Append(ctx context.Context, path string, value any) (string, error) {
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
		if err := b.client.Set(ctx, b.key(ref.Collection, id), raw, 0).Err(); err != nil {
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
	if err := b.announce(ctx, ref.Collection); err != nil {
		return "", err
	}
	return id, nil
}

func (b *RedisBackend) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	ref, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if ref.EntityID == "" {
		return b.snapshot(ctx, ref.Collection)
	}

	raw, err := b.client.Get(ctx, b.key(ref.Collection, ref.EntityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if ref.Field == "" {
		return raw, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc[ref.Field], nil
}

func (b *RedisBackend) Close() error {
	b.cancel()
	_ = b.pubsub.Close()
	return b.client.Close()
}

func (b *RedisBackend) key(collection, id string) string {
	return redisKeyPrefix + collection + ":" + id
}

func (b *RedisBackend) mutateDoc(ctx context.Context, ref pathRef, mutate func(map[string]any) error) error {
	doc := make(map[string]any)
	raw, err := b.client.Get(ctx, b.key(ref.Collection, ref.EntityID)).Bytes()
	if err == nil {
		if uerr := json.Unmarshal(raw, &doc); uerr != nil {
			return uerr
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	if err := mutate(doc); err != nil {
		return err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key(ref.Collection, ref.EntityID), out, 0).Err()
}

func (b *RedisBackend) replaceCollection(ctx context.Context, collection string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var coll map[string]json.RawMessage
	if err := json.Unmarshal(raw, &coll); err != nil {
		return err
	}

	keys, err := b.collectionKeys(ctx, collection)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := b.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	pipe := b.client.Pipeline()
	for id, doc := range coll {
		pipe.Set(ctx, b.key(collection, id), []byte(doc), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *RedisBackend) collectionKeys(ctx context.Context, collection string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, redisKeyPrefix+collection+":*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (b *RedisBackend) snapshot(ctx context.Context, collection string) (json.RawMessage, error) {
	keys, err := b.collectionKeys(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", collection, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", collection, err)
	}

	coll := make(map[string]json.RawMessage, len(keys))
	for i, key := range keys {
		s, ok := values[i].(string)
		if !ok {
			continue // expired between scan and mget
		}
		id := strings.TrimPrefix(key, redisKeyPrefix+collection+":")
		coll[id] = json.RawMessage(s)
	}
	return json.Marshal(coll)
}

func (b *RedisBackend) announce(ctx context.Context, collection string) error {
	return b.client.Publish(ctx, redisChangeChannel, collection).Err()
}
