package models

import "time"

type Restaurant struct {
	ID                 string      `json:"id"`
	OwnerID            string      `json:"ownerId"`
	Name               string      `json:"name"`
	Cuisine            string      `json:"cuisine"`
	Image              string      `json:"image,omitempty"`
	Menu               []MenuItem  `json:"menu"`
	Reviews            []Review    `json:"reviews"`
	IsFreeDelivery     bool        `json:"isFreeDelivery"`
	DailyOrderCount    int         `json:"dailyOrderCount"`
	TotalDebt          int         `json:"totalDebt"`
	OrderHistory       []DailyStat `json:"orderHistory"`
	LastResetTimestamp time.Time   `json:"lastResetTimestamp"`
}

// MenuItemByID looks up a menu item on this restaurant.
func (r Restaurant) MenuItemByID(id string) (MenuItem, bool) {
	for _, item := range r.Menu {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// MenuItem prices are in minor currency units (e.g. fils / cents).
type MenuItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int    `json:"price"`
	DiscountPrice *int   `json:"discountPrice,omitempty"`
	Category      string `json:"category"`
	Image         string `json:"image,omitempty"`
}

// EffectivePrice is the discount price when set, the regular price otherwise.
func (m MenuItem) EffectivePrice() int {
	if m.DiscountPrice != nil {
		return *m.DiscountPrice
	}
	return m.Price
}

// Review is an append-only child of a restaurant.
type Review struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DailyStat is one archived business day of order volume.
type DailyStat struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
