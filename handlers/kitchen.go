package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/projection"
)

// GetKitchenQueue returns the accepted and preparing orders for the kitchen
// staff's restaurant
func (h *Handler) GetKitchenQueue(c *gin.Context) {
	view := projection.Project(models.RoleKitchen, middleware.GetUserID(c), middleware.GetRestaurantID(c),
		h.store.Users(), h.store.Restaurants(), h.store.Orders())
	c.JSON(http.StatusOK, gin.H{"count": len(view.Orders), "orders": view.Orders})
}

// MarkPreparing moves an accepted order into preparation
func (h *Handler) MarkPreparing(c *gin.Context) {
	h.transition(c, c.Param("id"), models.StatusPreparing)
}

// MarkPrepared marks an order as ready for pickup
func (h *Handler) MarkPrepared(c *gin.Context) {
	h.transition(c, c.Param("id"), models.StatusPrepared)
}
