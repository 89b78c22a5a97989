package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiratheer/aklyplus/billing"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/store"
)

type engineFixture struct {
	store      *store.EntityStore
	engine     *Engine
	restaurant models.Restaurant
	order      models.Order
}

// newEngineFixture builds an engine over an in-memory backend with one
// restaurant and one pending order. Memory fan-out is synchronous, so every
// write is visible in the snapshot before the call returns.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewEntityStore(store.NewMemoryBackend(), nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	restaurant, err := s.CreateRestaurant(ctx, models.Restaurant{
		Name:               "Shawarma House",
		OwnerID:            "owner-1",
		LastResetTimestamp: time.Now().UTC(),
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	order, err := s.CreateOrder(ctx, models.Order{
		RestaurantID: restaurant.ID,
		CustomerID:   "cust-1",
		CustomerName: "Amira",
		Status:       models.StatusPending,
		Total:        1200,
		CreatedAt:    now,
		History:      []models.StatusChange{{Status: models.StatusPending, Time: now}},
	})
	require.NoError(t, err)

	ledger := billing.NewLedger(s, 250, zerolog.Nop())
	return &engineFixture{
		store:      s,
		engine:     NewEngine(s, ledger, zerolog.Nop()),
		restaurant: restaurant,
		order:      order,
	}
}

func (f *engineFixture) actor(role models.UserRole, userID string) Actor {
	return Actor{UserID: userID, Role: role, RestaurantID: f.restaurant.ID}
}

func TestFullLifecycle(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	owner := f.actor(models.RoleOwner, "owner-1")
	kitchen := f.actor(models.RoleKitchen, "cook-1")
	driver := f.actor(models.RoleDelivery, "driver-1")

	updated, err := f.engine.Transition(ctx, f.order.ID, models.StatusAccepted, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)
	assert.Len(t, updated.History, 2)

	// Acceptance accrued the fee to the restaurant ledger
	r, ok := f.store.RestaurantByID(f.restaurant.ID)
	require.True(t, ok)
	assert.Equal(t, 1, r.DailyOrderCount)
	assert.Equal(t, 250, r.TotalDebt)

	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusPreparing, kitchen)
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusPrepared, kitchen)
	require.NoError(t, err)

	updated, err = f.engine.Transition(ctx, f.order.ID, models.StatusDelivering, driver)
	require.NoError(t, err)
	assert.Equal(t, "driver-1", updated.AssignedDriverID)

	updated, err = f.engine.Transition(ctx, f.order.ID, models.StatusDelivered, driver)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)
	assert.Len(t, updated.History, 6)

	// History order matches the path taken
	final, ok := f.store.OrderByID(f.order.ID)
	require.True(t, ok)
	var path []models.OrderStatus
	for _, h := range final.History {
		path = append(path, h.Status)
	}
	assert.Equal(t, []models.OrderStatus{
		models.StatusPending, models.StatusAccepted, models.StatusPreparing,
		models.StatusPrepared, models.StatusDelivering, models.StatusDelivered,
	}, path)
}

func TestRejectionAccruesNothing(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Transition(context.Background(), f.order.ID, models.StatusRejected, f.actor(models.RoleOwner, "owner-1"))
	require.NoError(t, err)

	r, ok := f.store.RestaurantByID(f.restaurant.ID)
	require.True(t, ok)
	assert.Zero(t, r.DailyOrderCount)
	assert.Zero(t, r.TotalDebt)
}

func TestInvalidTransitionLeavesOrderUntouched(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Transition(context.Background(), f.order.ID, models.StatusDelivered, f.actor(models.RoleOwner, "owner-1"))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order, ok := f.store.OrderByID(f.order.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Len(t, order.History, 1)

	r, _ := f.store.RestaurantByID(f.restaurant.ID)
	assert.Zero(t, r.TotalDebt)
}

func TestStaffCannotTouchOtherRestaurantsOrders(t *testing.T) {
	f := newEngineFixture(t)

	outsider := Actor{UserID: "owner-2", Role: models.RoleOwner, RestaurantID: "some-other-restaurant"}
	_, err := f.engine.Transition(context.Background(), f.order.ID, models.StatusAccepted, outsider)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOnlyAssignedDriverDelivers(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	owner := f.actor(models.RoleOwner, "owner-1")
	_, err := f.engine.Transition(ctx, f.order.ID, models.StatusAccepted, owner)
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusPrepared, owner)
	require.NoError(t, err)
	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusDelivering, f.actor(models.RoleDelivery, "driver-1"))
	require.NoError(t, err)

	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusDelivered, f.actor(models.RoleDelivery, "driver-2"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.engine.Transition(ctx, f.order.ID, models.StatusDelivered, f.actor(models.RoleDelivery, "driver-1"))
	assert.NoError(t, err)
}

func TestUnknownOrder(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Transition(context.Background(), "nope", models.StatusAccepted, f.actor(models.RoleOwner, "owner-1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
