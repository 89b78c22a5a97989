package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amiratheer/aklyplus/models"
)

// EntityStore keeps the latest known snapshot of users, restaurants and
// orders, fed by backing-store subscriptions. Writes are forwarded verbatim
// to the backend and are NOT applied optimistically: the local snapshot only
// changes when the next subscription push arrives, so a write followed by an
// immediate read is not guaranteed to observe the write.
type EntityStore struct {
	backend Backend
	cache   *FileCache
	log     zerolog.Logger

	mu          sync.RWMutex
	users       map[string]models.User
	restaurants map[string]models.Restaurant
	orders      []models.Order // sorted by CreatedAt descending
	degraded    bool

	lmu       sync.Mutex
	listeners map[int]func([]models.Order)
	nextID    int

	unsubs []func()
}

// NewEntityStore subscribes to the three collections and blocks until the
// initial snapshots (or the cached fallbacks) are in place. When a
// subscription cannot be established the store starts in degraded mode:
// stale cached reads, best-effort writes.
func NewEntityStore(backend Backend, cache *FileCache, log zerolog.Logger) (*EntityStore, error) {
	s := &EntityStore{
		backend:     backend,
		cache:       cache,
		log:         log.With().Str("component", "entity_store").Logger(),
		users:       make(map[string]models.User),
		restaurants: make(map[string]models.Restaurant),
		listeners:   make(map[int]func([]models.Order)),
	}

	for _, sub := range []struct {
		collection string
		apply      func(json.RawMessage)
	}{
		{CollectionUsers, s.applyUsers},
		{CollectionRestaurants, s.applyRestaurants},
		{CollectionOrders, s.applyOrders},
	} {
		unsub, err := backend.Subscribe(sub.collection, sub.apply)
		if err != nil {
			s.log.Warn().Err(err).Str("collection", sub.collection).
				Msg("subscription failed, falling back to cached snapshot")
			s.degradeWith(sub.collection, sub.apply)
			continue
		}
		s.unsubs = append(s.unsubs, unsub)
	}
	return s, nil
}

// degradeWith loads the last cached snapshot for a collection and marks the
// store degraded.
func (s *EntityStore) degradeWith(collection string, apply func(json.RawMessage)) {
	s.mu.Lock()
	s.degraded = true
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	raw, err := s.cache.Load(collection)
	if err != nil {
		s.log.Error().Err(err).Str("collection", collection).Msg("cached snapshot unreadable")
		return
	}
	apply(raw)
}

// Close tears down all subscriptions. Must be called on session end so stale
// callbacks stop being applied.
func (s *EntityStore) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// Degraded reports whether the store is serving stale cached snapshots.
func (s *EntityStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// ── snapshot application ──────────────────────────────────────────────

func (s *EntityStore) applyUsers(raw json.RawMessage) {
	users, ok := decodeCollection[models.User](s.log, CollectionUsers, raw)
	if !ok {
		return
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	s.cacheSnapshot(CollectionUsers, raw)
}

func (s *EntityStore) applyRestaurants(raw json.RawMessage) {
	restaurants, ok := decodeCollection[models.Restaurant](s.log, CollectionRestaurants, raw)
	if !ok {
		return
	}
	s.mu.Lock()
	s.restaurants = restaurants
	s.mu.Unlock()
	s.cacheSnapshot(CollectionRestaurants, raw)
}

func (s *EntityStore) applyOrders(raw json.RawMessage) {
	byID, ok := decodeCollection[models.Order](s.log, CollectionOrders, raw)
	if !ok {
		return
	}
	orders := make([]models.Order, 0, len(byID))
	for _, o := range byID {
		orders = append(orders, o)
	}
	// Most recent first on every snapshot delivery.
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	s.cacheSnapshot(CollectionOrders, raw)

	s.lmu.Lock()
	fns := make([]func([]models.Order), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(orders)
	}
}

func decodeCollection[T any](log zerolog.Logger, collection string, raw json.RawMessage) (map[string]T, bool) {
	out := make(map[string]T)
	if len(raw) == 0 || string(raw) == "null" {
		return out, true
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("snapshot decode failed, keeping previous")
		return nil, false
	}
	return out, true
}

func (s *EntityStore) cacheSnapshot(collection string, raw json.RawMessage) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(collection, raw); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("snapshot cache write failed")
	}
}

// OnOrders registers fn to run on every order-snapshot delivery, invoking it
// once immediately with the current snapshot. Returns an unregister func.
func (s *EntityStore) OnOrders(fn func([]models.Order)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()

	fn(s.Orders())
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// ── reads ─────────────────────────────────────────────────────────────

func (s *EntityStore) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *EntityStore) Restaurants() []models.Restaurant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	restaurants := make([]models.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		restaurants = append(restaurants, r)
	}
	sort.Slice(restaurants, func(i, j int) bool { return restaurants[i].ID < restaurants[j].ID })
	return restaurants
}

func (s *EntityStore) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *EntityStore) UserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *EntityStore) UserByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *EntityStore) RestaurantByID(id string) (models.Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	return r, ok
}

func (s *EntityStore) RestaurantByOwner(ownerID string) (models.Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.restaurants {
		if r.OwnerID == ownerID {
			return r, true
		}
	}
	return models.Restaurant{}, false
}

func (s *EntityStore) OrderByID(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// ── writes (forwarded to the backend, eventually visible) ─────────────

func (s *EntityStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if !models.ValidRole(u.Role) {
		return models.User{}, fmt.Errorf("unknown role %q", u.Role)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := s.backend.Write(ctx, CollectionUsers+"/"+u.ID, u); err != nil {
		return models.User{}, s.writeErr(err)
	}
	return u, nil
}

func (s *EntityStore) CreateRestaurant(ctx context.Context, r models.Restaurant) (models.Restaurant, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Menu == nil {
		r.Menu = []models.MenuItem{}
	}
	if r.Reviews == nil {
		r.Reviews = []models.Review{}
	}
	if r.OrderHistory == nil {
		r.OrderHistory = []models.DailyStat{}
	}
	if err := s.backend.Write(ctx, CollectionRestaurants+"/"+r.ID, r); err != nil {
		return models.Restaurant{}, s.writeErr(err)
	}
	return r, nil
}

func (s *EntityStore) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	id, err := s.backend.Append(ctx, CollectionOrders, o)
	if err != nil {
		return models.Order{}, s.writeErr(err)
	}
	o.ID = id
	return o, nil
}

func (s *EntityStore) AppendReview(ctx context.Context, restaurantID string, rev models.Review) (string, error) {
	if _, ok := s.RestaurantByID(restaurantID); !ok {
		return "", fmt.Errorf("restaurant %s: %w", restaurantID, ErrNotFound)
	}
	id, err := s.backend.Append(ctx, CollectionRestaurants+"/"+restaurantID+"/reviews", rev)
	if err != nil {
		return "", s.writeErr(err)
	}
	return id, nil
}

func (s *EntityStore) PatchOrder(ctx context.Context, id string, p OrderPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.OrderByID(id); !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err := s.backend.Patch(ctx, CollectionOrders+"/"+id, p.Fields()); err != nil {
		return s.writeErr(err)
	}
	return nil
}

func (s *EntityStore) PatchRestaurant(ctx context.Context, id string, p RestaurantPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.RestaurantByID(id); !ok {
		return fmt.Errorf("restaurant %s: %w", id, ErrNotFound)
	}
	if err := s.backend.Patch(ctx, CollectionRestaurants+"/"+id, p.Fields()); err != nil {
		return s.writeErr(err)
	}
	return nil
}

func (s *EntityStore) PatchUser(ctx context.Context, id string, p UserPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, ok := s.UserByID(id); !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err := s.backend.Patch(ctx, CollectionUsers+"/"+id, p.Fields()); err != nil {
		return s.writeErr(err)
	}
	return nil
}

// WriteMenu replaces a restaurant's whole menu, the one nested path the
// owner dashboard writes as a unit.
func (s *EntityStore) WriteMenu(ctx context.Context, restaurantID string, menu []models.MenuItem) error {
	if _, ok := s.RestaurantByID(restaurantID); !ok {
		return fmt.Errorf("restaurant %s: %w", restaurantID, ErrNotFound)
	}
	if err := (RestaurantPatch{Menu: menu}).Validate(); err != nil {
		return err
	}
	if menu == nil {
		menu = []models.MenuItem{}
	}
	if err := s.backend.Write(ctx, CollectionRestaurants+"/"+restaurantID+"/menu", menu); err != nil {
		return s.writeErr(err)
	}
	return nil
}

func (s *EntityStore) writeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
