package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiratheer/aklyplus/statemachine"
)

// ListRestaurants returns the full catalog for browsing
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants := h.store.Restaurants()
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
		"degraded":    h.store.Degraded(),
	})
}

// GetRestaurant returns a single restaurant
func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, ok := h.store.RestaurantByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns a restaurant's menu
func (h *Handler) GetMenu(c *gin.Context) {
	restaurant, ok := h.store.RestaurantByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"menu":       restaurant.Menu,
	})
}

// GetReviews returns a restaurant's reviews
func (h *Handler) GetReviews(c *gin.Context) {
	restaurant, ok := h.store.RestaurantByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant.Name,
		"count":      len(restaurant.Reviews),
		"reviews":    restaurant.Reviews,
	})
}

// GetStateMachineInfo documents the order lifecycle for API consumers
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transitions": statemachine.AllTransitions(),
		"terminal":    []string{"delivered", "rejected"},
	})
}
