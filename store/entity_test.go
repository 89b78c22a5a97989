package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiratheer/aklyplus/models"
)

func newTestStore(t *testing.T) *EntityStore {
	t.Helper()
	s, err := NewEntityStore(NewMemoryBackend(), nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestCreateAndReadUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, models.User{
		Name:  "Amira",
		Email: "amira@example.com",
		Role:  models.RoleCustomer,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, ok := s.UserByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Amira", got.Name)

	got, ok = s.UserByEmail("amira@example.com")
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(context.Background(), models.User{Name: "x", Role: "SUPERVISOR"})
	assert.Error(t, err)
}

func TestCreateRestaurantDefaults(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateRestaurant(context.Background(), models.Restaurant{Name: "Shawarma House", OwnerID: "o1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotNil(t, created.Menu)
	assert.NotNil(t, created.Reviews)
	assert.NotNil(t, created.OrderHistory)

	got, ok := s.RestaurantByOwner("o1")
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)
}

func TestOrdersSortedMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.CreateOrder(ctx, models.Order{
			RestaurantID: "r1",
			CustomerID:   "c1",
			Status:       models.StatusPending,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	orders := s.Orders()
	require.Len(t, orders, 3)
	assert.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))
	assert.True(t, orders[1].CreatedAt.After(orders[2].CreatedAt))
}

func TestPatchOrderVisibleAfterFanout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateOrder(ctx, models.Order{
		RestaurantID: "r1",
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	accepted := models.StatusAccepted
	require.NoError(t, s.PatchOrder(ctx, created.ID, OrderPatch{Status: &accepted}))

	got, ok := s.OrderByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, "r1", got.RestaurantID, "unpatched fields survive")
}

func TestPatchUnknownEntity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := models.StatusAccepted
	assert.ErrorIs(t, s.PatchOrder(ctx, "nope", OrderPatch{Status: &st}), ErrNotFound)

	fee := 100
	assert.ErrorIs(t, s.PatchRestaurant(ctx, "nope", RestaurantPatch{TotalDebt: &fee}), ErrNotFound)

	name := "x"
	assert.ErrorIs(t, s.PatchUser(ctx, "nope", UserPatch{Name: &name}), ErrNotFound)
}

func TestWriteMenuReplacesWholeMenu(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := s.CreateRestaurant(ctx, models.Restaurant{
		Name: "Shawarma House",
		Menu: []models.MenuItem{{ID: "m1", Name: "Kebab", Price: 900}},
	})
	require.NoError(t, err)

	menu := []models.MenuItem{
		{ID: "m2", Name: "Falafel", Price: 400},
		{ID: "m3", Name: "Hummus", Price: 300},
	}
	require.NoError(t, s.WriteMenu(ctx, r.ID, menu))

	got, ok := s.RestaurantByID(r.ID)
	require.True(t, ok)
	require.Len(t, got.Menu, 2)
	assert.Equal(t, "m2", got.Menu[0].ID)
	assert.Equal(t, "Shawarma House", got.Name, "sibling fields untouched")
}

func TestAppendReview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := s.CreateRestaurant(ctx, models.Restaurant{Name: "Shawarma House"})
	require.NoError(t, err)

	id, err := s.AppendReview(ctx, r.ID, models.Review{CustomerID: "c1", Rating: 5, Comment: "excellent"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, _ := s.RestaurantByID(r.ID)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, id, got.Reviews[0].ID)
	assert.Equal(t, 5, got.Reviews[0].Rating)

	_, err = s.AppendReview(ctx, "nope", models.Review{Rating: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOnOrdersListener(t *testing.T) {
	s := newTestStore(t)

	var deliveries [][]models.Order
	unsub := s.OnOrders(func(orders []models.Order) {
		deliveries = append(deliveries, orders)
	})
	defer unsub()

	require.Len(t, deliveries, 1, "immediate delivery on registration")
	assert.Empty(t, deliveries[0])

	_, err := s.CreateOrder(context.Background(), models.Order{
		RestaurantID: "r1",
		Status:       models.StatusPending,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	require.Len(t, deliveries, 2)
	assert.Len(t, deliveries[1], 1)
}

func TestDegradedModeServesCache(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	// First store run over a live backend populates the cache.
	backend := NewMemoryBackend()
	live, err := NewEntityStore(backend, cache, zerolog.Nop())
	require.NoError(t, err)
	_, err = live.CreateRestaurant(context.Background(), models.Restaurant{ID: "r1", Name: "Shawarma House"})
	require.NoError(t, err)
	live.Close()

	// Second run cannot subscribe and falls back to the cached snapshot.
	degraded, err := NewEntityStore(failingBackend{}, cache, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(degraded.Close)

	assert.True(t, degraded.Degraded())
	got, ok := degraded.RestaurantByID("r1")
	require.True(t, ok)
	assert.Equal(t, "Shawarma House", got.Name)
}
