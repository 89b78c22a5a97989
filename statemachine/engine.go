package statemachine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/amiratheer/aklyplus/billing"
	"github.com/amiratheer/aklyplus/metrics"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/store"
)

// ErrForbidden means the actor may not touch this order (wrong restaurant,
// not the assigned driver, and so on).
var ErrForbidden = errors.New("forbidden")

// Actor identifies who is requesting a transition.
type Actor struct {
	UserID       string
	Role         models.UserRole
	RestaurantID string
}

// Engine validates and applies order status transitions and triggers the
// billing side effect on acceptance.
type Engine struct {
	store  *store.EntityStore
	ledger *billing.Ledger
	log    zerolog.Logger
}

func NewEngine(s *store.EntityStore, ledger *billing.Ledger, log zerolog.Logger) *Engine {
	return &Engine{
		store:  s,
		ledger: ledger,
		log:    log.With().Str("component", "lifecycle").Logger(),
	}
}

// Transition moves an order to newStatus on behalf of actor. On success the
// status change and a history entry are written through the store and the
// updated order is returned. Failed validation short-circuits before any
// write: the order is left untouched.
//
// Acceptance additionally accrues the per-order fee to the owning
// restaurant's ledger. The accrual and the status write are two independent
// backing-store writes; there is no transaction between them.
func (e *Engine) Transition(ctx context.Context, orderID string, newStatus models.OrderStatus, actor Actor) (models.Order, error) {
	order, ok := e.store.OrderByID(orderID)
	if !ok {
		metrics.TransitionErrorsTotal.WithLabelValues("not_found").Inc()
		return models.Order{}, fmt.Errorf("order %s: %w", orderID, store.ErrNotFound)
	}

	if actor.Role.IsStaff() && order.RestaurantID != actor.RestaurantID {
		metrics.TransitionErrorsTotal.WithLabelValues("forbidden").Inc()
		return models.Order{}, fmt.Errorf("%w: order %s belongs to another restaurant", ErrForbidden, orderID)
	}

	if err := CanTransition(order.Status, newStatus, actor.Role); err != nil {
		metrics.TransitionErrorsTotal.WithLabelValues("invalid_transition").Inc()
		return models.Order{}, err
	}

	patch := store.OrderPatch{
		Status:  &newStatus,
		History: append(append([]models.StatusChange{}, order.History...), models.StatusChange{Status: newStatus, Time: time.Now().UTC()}),
	}

	if newStatus == models.StatusDelivering {
		if actor.UserID == "" {
			return models.Order{}, fmt.Errorf("%w: delivering requires a driver", ErrForbidden)
		}
		patch.AssignedDriverID = &actor.UserID
	}
	if newStatus == models.StatusDelivered && order.AssignedDriverID != actor.UserID && actor.Role == models.RoleDelivery {
		metrics.TransitionErrorsTotal.WithLabelValues("forbidden").Inc()
		return models.Order{}, fmt.Errorf("%w: not the assigned driver for order %s", ErrForbidden, orderID)
	}

	if newStatus == models.StatusAccepted {
		if err := e.ledger.Accrue(ctx, order.RestaurantID); err != nil {
			return models.Order{}, fmt.Errorf("accrue for restaurant %s: %w", order.RestaurantID, err)
		}
	}

	if err := e.store.PatchOrder(ctx, orderID, patch); err != nil {
		return models.Order{}, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(newStatus)).Inc()
	e.log.Info().
		Str("order_id", orderID).
		Str("from", string(order.Status)).
		Str("to", string(newStatus)).
		Str("actor", actor.UserID).
		Str("role", string(actor.Role)).
		Msg("order transitioned")

	// Local view of the applied change; the snapshot catches up on the
	// next subscription push.
	order.Status = newStatus
	order.History = patch.History
	if patch.AssignedDriverID != nil {
		order.AssignedDriverID = *patch.AssignedDriverID
	}
	return order, nil
}
