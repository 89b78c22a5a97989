package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiratheer/aklyplus/metrics"
	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/projection"
)

type PlaceOrderRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	Notes        string `json:"notes"`
	// Address overrides the profile delivery address for this order only.
	Address string `json:"address"`
	Items   []struct {
		MenuItemID string `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1"`
}

// PlaceOrder creates a new order (customer only). Item prices and customer
// contact details are snapshotted into the order; the total is computed here
// once and never recomputed.
func (h *Handler) PlaceOrder(c *gin.Context) {
	customer, ok := h.store.UserByID(middleware.GetUserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant, ok := h.store.RestaurantByID(req.RestaurantID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	var items []models.OrderItem
	for _, reqItem := range req.Items {
		menuItem, ok := restaurant.MenuItemByID(reqItem.MenuItemID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Menu item not found: " + reqItem.MenuItemID})
			return
		}
		items = append(items, models.OrderItem{MenuItem: menuItem, Quantity: reqItem.Quantity})
	}

	address := req.Address
	if address == "" {
		address = customer.Address
	}
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery address required"})
		return
	}

	now := time.Now().UTC()
	order := models.Order{
		RestaurantID:    restaurant.ID,
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerAddress: address,
		CustomerPhone:   customer.Phone,
		Items:           items,
		Notes:           req.Notes,
		Total:           models.OrderTotal(items),
		Status:          models.StatusPending,
		CreatedAt:       now,
		History:         []models.StatusChange{{Status: models.StatusPending, Time: now}},
	}

	created, err := h.store.CreateOrder(c.Request.Context(), order)
	if err != nil {
		h.respondError(c, err)
		return
	}
	metrics.OrdersPlacedTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   created,
	})
}

// GetMyOrders returns all orders for the logged-in customer, most recent
// first.
func (h *Handler) GetMyOrders(c *gin.Context) {
	view := projection.Project(models.RoleCustomer, middleware.GetUserID(c), "",
		h.store.Users(), h.store.Restaurants(), h.store.Orders())
	c.JSON(http.StatusOK, gin.H{"count": len(view.Orders), "orders": view.Orders})
}

// GetOrderDetail returns a single order's full detail with history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	order, ok := h.store.OrderByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.CustomerID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// AddReview appends a review to a restaurant
func (h *Handler) AddReview(c *gin.Context) {
	customer, ok := h.store.UserByID(middleware.GetUserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.store.AppendReview(c.Request.Context(), c.Param("id"), models.Review{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Rating:       req.Rating,
		Comment:      req.Comment,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review added", "review_id": id})
}
