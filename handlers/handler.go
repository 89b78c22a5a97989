package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/amiratheer/aklyplus/billing"
	"github.com/amiratheer/aklyplus/config"
	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/statemachine"
	"github.com/amiratheer/aklyplus/store"
)

// Handler carries the explicitly constructed collaborators every endpoint
// needs. No package-level state: the store client has a defined lifecycle
// owned by main.
type Handler struct {
	cfg    *config.Config
	store  *store.EntityStore
	engine *statemachine.Engine
	ledger *billing.Ledger
	log    zerolog.Logger
}

func New(cfg *config.Config, s *store.EntityStore, engine *statemachine.Engine, ledger *billing.Ledger, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  s,
		engine: engine,
		ledger: ledger,
		log:    log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) actor(c *gin.Context) statemachine.Actor {
	return statemachine.Actor{
		UserID:       middleware.GetUserID(c),
		Role:         middleware.GetRole(c),
		RestaurantID: middleware.GetRestaurantID(c),
	}
}

// respondError maps domain errors onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, statemachine.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, statemachine.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backing store unavailable, serving cached data only"})
	default:
		h.log.Error().Err(err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// transition applies one order-status change on behalf of the caller. An
// invalid transition returns 422 with the set of valid next states.
func (h *Handler) transition(c *gin.Context, orderID string, newStatus models.OrderStatus) {
	order, err := h.engine.Transition(c.Request.Context(), orderID, newStatus, h.actor(c))
	if err != nil {
		if errors.Is(err, statemachine.ErrInvalidTransition) {
			current, _ := h.store.OrderByID(orderID)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":             "Invalid state transition",
				"current_status":    current.Status,
				"requested":         newStatus,
				"reason":            err.Error(),
				"valid_next_states": statemachine.ValidTransitionsFrom(current.Status),
			})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}
