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

// ownRestaurant resolves the caller's restaurant by ownership.
func (h *Handler) ownRestaurant(c *gin.Context) (models.Restaurant, bool) {
	restaurant, ok := h.store.RestaurantByOwner(middleware.GetUserID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant found for your account"})
		return models.Restaurant{}, false
	}
	return restaurant, true
}

// GetMyRestaurant returns the owner's restaurant with its billing state.
// The daily-counter rollover is evaluated lazily here: reading the billing
// summary is what advances the 03:00 boundary.
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	rolled, err := h.ledger.Rollover(c.Request.Context(), restaurant.ID, time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if rolled {
		if fresh, ok := h.store.RestaurantByID(restaurant.ID); ok {
			restaurant = fresh
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
		"billing": gin.H{
			"daily_order_count": restaurant.DailyOrderCount,
			"total_debt":        restaurant.TotalDebt,
			"fee_per_order":     h.ledger.Fee(),
			"order_history":     restaurant.OrderHistory,
		},
	})
}

type UpdateRestaurantRequest struct {
	Name           *string `json:"name"`
	Cuisine        *string `json:"cuisine"`
	Image          *string `json:"image"`
	IsFreeDelivery *bool   `json:"is_free_delivery"`
}

// UpdateRestaurant patches presentational restaurant fields. Billing
// counters are never writable through this endpoint.
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := store.RestaurantPatch{
		Name:           req.Name,
		Cuisine:        req.Cuisine,
		Image:          req.Image,
		IsFreeDelivery: req.IsFreeDelivery,
	}
	if err := h.store.PatchRestaurant(c.Request.Context(), restaurant.ID, patch); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated"})
}

// ── Menu management ────────────────────────────────────────────────────

type MenuItemRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Price         int    `json:"price" binding:"required,min=1"`
	DiscountPrice *int   `json:"discount_price"`
	Category      string `json:"category"`
	Image         string `json:"image"`
}

func (r MenuItemRequest) toItem(id string) models.MenuItem {
	return models.MenuItem{
		ID:            id,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		Category:      r.Category,
		Image:         r.Image,
	}
}

// AddMenuItem appends one item to the owner's menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := req.toItem(uuid.NewString())
	menu := append(append([]models.MenuItem{}, restaurant.Menu...), item)
	if err := h.store.WriteMenu(c.Request.Context(), restaurant.ID, menu); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem replaces one item on the owner's menu
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	itemID := c.Param("itemId")
	menu := append([]models.MenuItem{}, restaurant.Menu...)
	found := false
	for i, existing := range menu {
		if existing.ID == itemID {
			menu[i] = req.toItem(itemID)
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	if err := h.store.WriteMenu(c.Request.Context(), restaurant.ID, menu); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated"})
}

// DeleteMenuItem removes one item from the owner's menu
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	itemID := c.Param("itemId")
	menu := make([]models.MenuItem, 0, len(restaurant.Menu))
	found := false
	for _, existing := range restaurant.Menu {
		if existing.ID == itemID {
			found = true
			continue
		}
		menu = append(menu, existing)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}

	if err := h.store.WriteMenu(c.Request.Context(), restaurant.ID, menu); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// ── Staff management ───────────────────────────────────────────────────

// GetStaff lists the kitchen and delivery users of the owner's restaurant
func (h *Handler) GetStaff(c *gin.Context) {
	view := projection.Project(models.RoleOwner, middleware.GetUserID(c), middleware.GetRestaurantID(c),
		h.store.Users(), h.store.Restaurants(), h.store.Orders())
	c.JSON(http.StatusOK, gin.H{"count": len(view.Staff), "staff": view.Staff})
}

type CreateStaffRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
}

// CreateStaff creates a KITCHEN or DELIVERY user bound to the owner's
// restaurant
func (h *Handler) CreateStaff(c *gin.Context) {
	restaurant, ok := h.ownRestaurant(c)
	if !ok {
		return
	}

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != models.RoleKitchen && req.Role != models.RoleDelivery {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Staff role must be KITCHEN or DELIVERY"})
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

	user, err := h.store.CreateUser(c.Request.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		RestaurantID: restaurant.ID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Staff account created", "user": user.Sanitized()})
}

// ── Order management ───────────────────────────────────────────────────

// GetRestaurantOrders returns all orders for the owner's restaurant
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	view := projection.Project(models.RoleOwner, middleware.GetUserID(c), middleware.GetRestaurantID(c),
		h.store.Users(), h.store.Restaurants(), h.store.Orders())

	orders := view.Orders
	if status := c.Query("status"); status != "" {
		filtered := orders[:0:0]
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	// Dashboard summary: counts grouped by status
	summary := map[string]int{}
	for _, o := range view.Orders {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles the owner's state transitions (accept, reject,
// kitchen stages)
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, c.Param("id"), req.Status)
}
