package statemachine

import (
	"errors"
	"fmt"

	"github.com/amiratheer/aklyplus/models"
)

// ErrInvalidTransition means the requested status is not reachable from the
// order's current status. The order is left unchanged.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition defines a valid state change and which role can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// validTransitions is the authoritative state machine definition.
// "preparing" is an optional kitchen-side granularity step between accepted
// and prepared; the kitchen may mark an accepted order prepared directly.
var validTransitions = []Transition{
	// Owner decides the fate of a pending order
	{From: models.StatusPending, To: models.StatusAccepted, Actor: models.RoleOwner},
	{From: models.StatusPending, To: models.StatusRejected, Actor: models.RoleOwner},
	// Kitchen works the order (owner can drive these too)
	{From: models.StatusAccepted, To: models.StatusPreparing, Actor: models.RoleKitchen},
	{From: models.StatusAccepted, To: models.StatusPreparing, Actor: models.RoleOwner},
	{From: models.StatusAccepted, To: models.StatusPrepared, Actor: models.RoleKitchen},
	{From: models.StatusAccepted, To: models.StatusPrepared, Actor: models.RoleOwner},
	{From: models.StatusPreparing, To: models.StatusPrepared, Actor: models.RoleKitchen},
	{From: models.StatusPreparing, To: models.StatusPrepared, Actor: models.RoleOwner},
	// Driver takes over
	{From: models.StatusPrepared, To: models.StatusDelivering, Actor: models.RoleDelivery},
	{From: models.StatusDelivering, To: models.StatusDelivered, Actor: models.RoleDelivery},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

// Lookup maps for O(1) validation
var (
	transitionMap = func() map[transitionKey]bool {
		m := make(map[transitionKey]bool)
		for _, t := range validTransitions {
			m[transitionKey{t.From, t.To, t.Actor}] = true
		}
		return m
	}()
	edgeMap = func() map[transitionKey]bool {
		m := make(map[transitionKey]bool)
		for _, t := range validTransitions {
			m[transitionKey{From: t.From, To: t.To}] = true
		}
		return m
	}()
)

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether the given role can move an order from one
// state to another. Admins may drive any edge of the graph; the graph itself
// is never bypassed.
func CanTransition(from, to models.OrderStatus, role models.UserRole) error {
	if role == models.RoleAdmin {
		if edgeMap[transitionKey{From: from, To: to}] {
			return nil
		}
	} else if transitionMap[transitionKey{From: from, To: to, Actor: role}] {
		return nil
	}
	return fmt.Errorf("%w: %s → %s is not allowed for role %s (valid next states from %s: %s)",
		ErrInvalidTransition, from, to, role, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllTransitions returns the full state machine for documentation
func AllTransitions() []Transition {
	return validTransitions
}
