package models

import "time"

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleOwner    UserRole = "OWNER"
	RoleKitchen  UserRole = "KITCHEN"
	RoleDelivery UserRole = "DELIVERY"
	RoleCustomer UserRole = "CUSTOMER"
)

// ValidRole reports whether r is one of the five known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleKitchen, RoleDelivery, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether the role is bound to a restaurant. Staff users
// must carry a RestaurantID referencing an existing restaurant.
func (r UserRole) IsStaff() bool {
	return r == RoleOwner || r == RoleKitchen || r == RoleDelivery
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         UserRole  `json:"role"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	RestaurantID string    `json:"restaurantId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sanitized returns a copy safe to hand back to API clients: the credential
// hash is stripped (omitempty drops it from the JSON body entirely).
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
