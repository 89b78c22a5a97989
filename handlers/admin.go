package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
	"github.com/amiratheer/aklyplus/projection"
	"github.com/amiratheer/aklyplus/store"
)

// GetAllUsers returns every account, credentials stripped
func (h *Handler) GetAllUsers(c *gin.Context) {
	view := projection.Project(models.RoleAdmin, middleware.GetUserID(c), "",
		h.store.Users(), h.store.Restaurants(), h.store.Orders())

	users := view.Staff
	if role := c.Query("role"); role != "" {
		filtered := users[:0:0]
		for _, u := range users {
			if string(u.Role) == role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// GetAllRestaurants returns every restaurant with billing state. Reading
// the platform overview advances each restaurant's lazy rollover.
func (h *Handler) GetAllRestaurants(c *gin.Context) {
	now := time.Now()
	for _, r := range h.store.Restaurants() {
		if _, err := h.ledger.Rollover(c.Request.Context(), r.ID, now); err != nil {
			h.respondError(c, err)
			return
		}
	}
	restaurants := h.store.Restaurants()
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetAllOrders returns every order on the platform
func (h *Handler) GetAllOrders(c *gin.Context) {
	orders := h.store.Orders()
	if status := c.Query("status"); status != "" {
		filtered := orders[:0:0]
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

type CreateOwnerRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	RestaurantName string `json:"restaurant_name" binding:"required"`
	Cuisine        string `json:"cuisine"`
	Image          string `json:"image"`
}

// CreateOwner onboards a restaurant: one OWNER account and its restaurant
// record, created as a pair.
func (h *Handler) CreateOwner(c *gin.Context) {
	var req CreateOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, exists := h.store.UserByEmail(req.Email); exists {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// The restaurant id is fixed up front so the owner account can carry it.
	restaurantID := uuid.NewString()

	owner, err := h.store.CreateUser(c.Request.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleOwner,
		RestaurantID: restaurantID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	restaurant, err := h.store.CreateRestaurant(c.Request.Context(), models.Restaurant{
		ID:                 restaurantID,
		Name:               req.RestaurantName,
		Cuisine:            req.Cuisine,
		Image:              req.Image,
		OwnerID:            owner.ID,
		LastResetTimestamp: time.Now().UTC(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant onboarded",
		"owner":      owner.Sanitized(),
		"restaurant": restaurant,
	})
}

// ResetRestaurantDebt clears a restaurant's accumulated platform debt after
// settlement
func (h *Handler) ResetRestaurantDebt(c *gin.Context) {
	restaurantID := c.Param("id")
	if err := h.ledger.ResetDebt(c.Request.Context(), restaurantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Debt reset", "restaurant_id": restaurantID})
}

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// ForceOrderStatus lets the admin drive any single lifecycle edge for
// support interventions. The transition graph still applies.
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, c.Param("id"), req.Status)
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ResetUserPassword sets a new password on any account
func (h *Handler) ResetUserPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	hashStr := string(hash)
	if err := h.store.PatchUser(c.Request.Context(), c.Param("id"), store.UserPatch{PasswordHash: &hashStr}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GetBillingOverview aggregates billing across all restaurants
func (h *Handler) GetBillingOverview(c *gin.Context) {
	now := time.Now()
	for _, r := range h.store.Restaurants() {
		if _, err := h.ledger.Rollover(c.Request.Context(), r.ID, now); err != nil {
			h.respondError(c, err)
			return
		}
	}

	type row struct {
		RestaurantID    string `json:"restaurant_id"`
		Name            string `json:"name"`
		DailyOrderCount int    `json:"daily_order_count"`
		TotalDebt       int    `json:"total_debt"`
	}

	rows := []row{}
	totalDebt := 0
	for _, r := range h.store.Restaurants() {
		rows = append(rows, row{
			RestaurantID:    r.ID,
			Name:            r.Name,
			DailyOrderCount: r.DailyOrderCount,
			TotalDebt:       r.TotalDebt,
		})
		totalDebt += r.TotalDebt
	}

	c.JSON(http.StatusOK, gin.H{
		"fee_per_order": h.ledger.Fee(),
		"total_debt":    totalDebt,
		"restaurants":   rows,
	})
}
