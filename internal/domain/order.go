package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment state of a placed order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// StatusEvent is one entry in an order's status history.
type StatusEvent struct {
	Status  OrderStatus `json:"status"`
	At      time.Time   `json:"at"`
	Message string      `json:"message,omitempty"`
}

// Order is a placed purchase: the cart lines captured at checkout time plus
// fulfillment tracking state.
type Order struct {
	ID                string          `json:"id"`
	UserID            int64           `json:"userId"`
	Items             []CartItem      `json:"items"`
	Total             decimal.Decimal `json:"total"`
	Status            OrderStatus     `json:"status"`
	StatusHistory     []StatusEvent   `json:"statusHistory"`
	PlacedAt          time.Time       `json:"placedAt"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}
