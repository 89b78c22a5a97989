// Package projection derives the slice of shared state a given role is
// allowed to see. It is a pure filter over the entity snapshots: no
// mutation, identical inputs always yield identical views.
package projection

import "github.com/amiratheer/aklyplus/models"

// View is what a session sees after role-scoped filtering.
type View struct {
	Orders      []models.Order      `json:"orders"`
	Restaurants []models.Restaurant `json:"restaurants"`
	Menu        []models.MenuItem   `json:"menu,omitempty"`
	Staff       []models.User       `json:"staff,omitempty"`
}

// Project filters the full snapshots down to what (role, userID,
// restaurantID) may see:
//
//	ADMIN     everything
//	OWNER     own restaurant, its orders and its staff
//	KITCHEN   own restaurant's orders currently in the kitchen
//	DELIVERY  own restaurant's prepared orders plus own active deliveries
//	CUSTOMER  own orders and the full catalog for browsing
func Project(role models.UserRole, userID, restaurantID string,
	users []models.User, restaurants []models.Restaurant, orders []models.Order) View {

	switch role {
	case models.RoleAdmin:
		return View{
			Orders:      append([]models.Order{}, orders...),
			Restaurants: append([]models.Restaurant{}, restaurants...),
			Staff:       sanitizeUsers(users),
		}

	case models.RoleOwner:
		own, ok := ownRestaurant(userID, restaurants)
		if !ok {
			return View{Orders: []models.Order{}, Restaurants: []models.Restaurant{}}
		}
		return View{
			Orders:      filterOrders(orders, func(o models.Order) bool { return o.RestaurantID == own.ID }),
			Restaurants: []models.Restaurant{own},
			Menu:        append([]models.MenuItem{}, own.Menu...),
			Staff:       restaurantStaff(users, own.ID),
		}

	case models.RoleKitchen:
		return View{
			Orders: filterOrders(orders, func(o models.Order) bool {
				// accepted and preparing are both "in kitchen"
				return o.RestaurantID == restaurantID &&
					(o.Status == models.StatusAccepted || o.Status == models.StatusPreparing)
			}),
			Restaurants: []models.Restaurant{},
		}

	case models.RoleDelivery:
		return View{
			Orders: filterOrders(orders, func(o models.Order) bool {
				if o.RestaurantID != restaurantID {
					return false
				}
				return o.Status == models.StatusPrepared ||
					(o.Status == models.StatusDelivering && o.AssignedDriverID == userID)
			}),
			Restaurants: []models.Restaurant{},
		}

	case models.RoleCustomer:
		return View{
			Orders:      filterOrders(orders, func(o models.Order) bool { return o.CustomerID == userID }),
			Restaurants: append([]models.Restaurant{}, restaurants...),
		}
	}
	return View{Orders: []models.Order{}, Restaurants: []models.Restaurant{}}
}

func ownRestaurant(ownerID string, restaurants []models.Restaurant) (models.Restaurant, bool) {
	for _, r := range restaurants {
		if r.OwnerID == ownerID {
			return r, true
		}
	}
	return models.Restaurant{}, false
}

func filterOrders(orders []models.Order, keep func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// restaurantStaff returns the kitchen and delivery users bound to a
// restaurant, credentials stripped.
func restaurantStaff(users []models.User, restaurantID string) []models.User {
	out := []models.User{}
	for _, u := range users {
		if u.RestaurantID == restaurantID && (u.Role == models.RoleKitchen || u.Role == models.RoleDelivery) {
			out = append(out, u.Sanitized())
		}
	}
	return out
}

func sanitizeUsers(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}
