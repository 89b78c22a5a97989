package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/amiratheer/aklyplus/handlers"
	"github.com/amiratheer/aklyplus/middleware"
	"github.com/amiratheer/aklyplus/models"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, jwtSecret string) {
	auth := middleware.AuthRequired([]byte(jwtSecret))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)
		public.GET("/restaurants/:id/reviews", h.GetReviews)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(auth)
	{
		authed.GET("/profile", h.GetProfile)
		authed.PUT("/profile/password", h.ChangePassword)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(auth, middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/orders", h.PlaceOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.POST("/restaurants/:id/reviews", h.AddReview)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	owner := r.Group("/api/owner")
	owner.Use(auth, middleware.RoleRequired(models.RoleOwner))
	{
		// Restaurant management
		owner.GET("/restaurant", h.GetMyRestaurant)
		owner.PUT("/restaurant", h.UpdateRestaurant)

		// Menu management
		owner.POST("/menu", h.AddMenuItem)
		owner.PUT("/menu/:itemId", h.UpdateMenuItem)
		owner.DELETE("/menu/:itemId", h.DeleteMenuItem)

		// Staff management
		owner.GET("/staff", h.GetStaff)
		owner.POST("/staff", h.CreateStaff)

		// Order management
		owner.GET("/orders", h.GetRestaurantOrders)
		owner.PUT("/orders/:id/status", h.UpdateOrderStatus)
	}

	// ── Kitchen routes ─────────────────────────────────────────────
	kitchen := r.Group("/api/kitchen")
	kitchen.Use(auth, middleware.RoleRequired(models.RoleKitchen, models.RoleOwner))
	{
		kitchen.GET("/orders", h.GetKitchenQueue)
		kitchen.PUT("/orders/:id/preparing", h.MarkPreparing)
		kitchen.PUT("/orders/:id/prepared", h.MarkPrepared)
	}

	// ── Driver routes ──────────────────────────────────────────────
	driver := r.Group("/api/driver")
	driver.Use(auth, middleware.RoleRequired(models.RoleDelivery))
	{
		driver.GET("/orders/available", h.GetAvailableOrders)
		driver.GET("/orders/my-deliveries", h.GetMyDeliveries)
		driver.PUT("/orders/:id/claim", h.ClaimOrder)
		driver.PUT("/orders/:id/deliver", h.CompleteDelivery)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(auth, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.GetAllUsers)
		admin.PUT("/users/:id/password", h.ResetUserPassword)
		admin.GET("/restaurants", h.GetAllRestaurants)
		admin.POST("/restaurants", h.CreateOwner)
		admin.GET("/orders", h.GetAllOrders)
		admin.PUT("/orders/:id/status", h.ForceOrderStatus)
		admin.GET("/billing", h.GetBillingOverview)
		admin.POST("/billing/:id/reset", h.ResetRestaurantDebt)
	}
}
