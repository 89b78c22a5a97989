package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/projection"
)

// GetAvailableOrders returns prepared orders ready for pickup plus the
// driver's own active deliveries
func (h *Handler) GetAvailableOrders(c *gin.Context) {
	view := projection.Project(models.RoleDelivery, middleware.GetUserID(c), middleware.GetRestaurantID(c),
		h.store.Users(), h.store.Restaurants(), h.store.Orders())

	available := []models.Order{}
	mine := []models.Order{}
	for _, o := range view.Orders {
		if o.Status == models.StatusPrepared {
			available = append(available, o)
		} else {
			mine = append(mine, o)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"available":         available,
		"active_deliveries": mine,
	})
}

// GetMyDeliveries returns every order this driver has ever carried
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	driverID := middleware.GetUserID(c)
	deliveries := []models.Order{}
	for _, o := range h.store.Orders() {
		if o.AssignedDriverID == driverID {
			deliveries = append(deliveries, o)
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(deliveries), "deliveries": deliveries})
}

// ClaimOrder assigns a prepared order to the calling driver and starts the
// delivery
func (h *Handler) ClaimOrder(c *gin.Context) {
	h.transition(c, c.Param("id"), models.StatusDelivering)
}

// CompleteDelivery marks the driver's own delivery as delivered
func (h *Handler) CompleteDelivery(c *gin.Context) {
	h.transition(c, c.Param("id"), models.StatusDelivered)
}
