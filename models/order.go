package models

import "time"

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusRejected   OrderStatus = "rejected"
	StatusPreparing  OrderStatus = "preparing"
	StatusPrepared   OrderStatus = "prepared"
	StatusDelivering OrderStatus = "delivering"
	StatusDelivered  OrderStatus = "delivered"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusPreparing,
		StatusPrepared, StatusDelivering, StatusDelivered:
		return true
	}
	return false
}

// Terminal reports whether no further transition is valid from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected
}

type Order struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	CustomerID   string `json:"customerId"`
	// Contact fields are captured at order-creation time, not live-linked
	// to the customer profile.
	CustomerName     string         `json:"customerName"`
	CustomerAddress  string         `json:"customerAddress"`
	CustomerPhone    string         `json:"customerPhone"`
	Items            []OrderItem    `json:"items"`
	Notes            string         `json:"notes,omitempty"`
	Total            int            `json:"total"`
	Status           OrderStatus    `json:"status"`
	AssignedDriverID string         `json:"assignedDriverId,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	History          []StatusChange `json:"history"`
}

// OrderItem snapshots the menu item as it was when the order was placed.
type OrderItem struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// StatusChange is one entry in an order's append-only status log.
type StatusChange struct {
	Status OrderStatus `json:"status"`
	Time   time.Time   `json:"time"`
}

// OrderTotal computes the order total from its items: quantity times the
// effective (possibly discounted) unit price. Computed once at creation;
// later menu edits never change an existing order's total.
func OrderTotal(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity * it.EffectivePrice()
	}
	return total
}
