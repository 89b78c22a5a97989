package store

import (
	"fmt"
	"time"

	"github.com/amiratheer/aklyplus/models"
)

// Typed patches are the only partial updates the entity store dispatches.
// Each emits just the fields that were explicitly set, keeping the blast
// radius of every write as narrow as possible under last-write-wins.

// OrderPatch updates a subset of an order's mutable fields.
type OrderPatch struct {
	Status           *models.OrderStatus
	AssignedDriverID *string
	History          []models.StatusChange
}

func (p OrderPatch) Validate() error {
	if p.Status != nil && !models.ValidStatus(*p.Status) {
		return fmt.Errorf("order patch: unknown status %q", *p.Status)
	}
	return nil
}

func (p OrderPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.AssignedDriverID != nil {
		fields["assignedDriverId"] = *p.AssignedDriverID
	}
	if p.History != nil {
		fields["history"] = p.History
	}
	return fields
}

// RestaurantPatch updates a subset of a restaurant's mutable fields.
type RestaurantPatch struct {
	Name               *string
	Cuisine            *string
	Image              *string
	IsFreeDelivery     *bool
	Menu               []models.MenuItem
	DailyOrderCount    *int
	TotalDebt          *int
	OrderHistory       []models.DailyStat
	LastResetTimestamp *time.Time
}

func (p RestaurantPatch) Validate() error {
	if p.DailyOrderCount != nil && *p.DailyOrderCount < 0 {
		return fmt.Errorf("restaurant patch: negative dailyOrderCount %d", *p.DailyOrderCount)
	}
	if p.TotalDebt != nil && *p.TotalDebt < 0 {
		return fmt.Errorf("restaurant patch: negative totalDebt %d", *p.TotalDebt)
	}
	for _, item := range p.Menu {
		if item.Price <= 0 {
			return fmt.Errorf("restaurant patch: menu item %q needs a positive price", item.Name)
		}
		if item.DiscountPrice != nil && *item.DiscountPrice >= item.Price {
			return fmt.Errorf("restaurant patch: menu item %q discount must be below the regular price", item.Name)
		}
	}
	return nil
}

func (p RestaurantPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Cuisine != nil {
		fields["cuisine"] = *p.Cuisine
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	if p.IsFreeDelivery != nil {
		fields["isFreeDelivery"] = *p.IsFreeDelivery
	}
	if p.Menu != nil {
		fields["menu"] = p.Menu
	}
	if p.DailyOrderCount != nil {
		fields["dailyOrderCount"] = *p.DailyOrderCount
	}
	if p.TotalDebt != nil {
		fields["totalDebt"] = *p.TotalDebt
	}
	if p.OrderHistory != nil {
		fields["orderHistory"] = p.OrderHistory
	}
	if p.LastResetTimestamp != nil {
		fields["lastResetTimestamp"] = p.LastResetTimestamp.Format(time.RFC3339Nano)
	}
	return fields
}

// UserPatch updates a subset of a user's mutable fields. Role and email are
// deliberately not patchable.
type UserPatch struct {
	Name         *string
	PasswordHash *string
	Address      *string
	Phone        *string
}

func (p UserPatch) Validate() error {
	if p.PasswordHash != nil && *p.PasswordHash == "" {
		return fmt.Errorf("user patch: empty password hash")
	}
	return nil
}

func (p UserPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.PasswordHash != nil {
		fields["passwordHash"] = *p.PasswordHash
	}
	if p.Address != nil {
		fields["address"] = *p.Address
	}
	if p.Phone != nil {
		fields["phone"] = *p.Phone
	}
	return fields
}
