package orders

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrNothingToCheckout = errors.New("cart is empty, nothing to checkout")
)

// DeliveryEstimate is how far out the estimated delivery date is set when an
// order is placed.
const DeliveryEstimate = 7 * 24 * time.Hour

// Tracker keeps placed orders per user, with a status history per order.
// State is in-memory and session-scoped, like the cart mirror.
type Tracker struct {
	mu     sync.RWMutex
	orders map[int64][]*domain.Order // userID -> orders in placement order
}

func NewTracker() *Tracker {
	return &Tracker{orders: make(map[int64][]*domain.Order)}
}

// Place records a new order from the given cart lines. The lines are copied;
// the caller's cart can be cleared afterwards without affecting the order.
func (t *Tracker) Place(userID int64, items []domain.CartItem, total decimal.Decimal) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, ErrNothingToCheckout
	}
	now := time.Now()
	order := &domain.Order{
		ID:     "ORD-" + uuid.NewString(),
		UserID: userID,
		Items:  append([]domain.CartItem(nil), items...),
		Total:  total,
		Status: domain.OrderPending,
		StatusHistory: []domain.StatusEvent{{
			Status:  domain.OrderPending,
			At:      now,
			Message: "order placed",
		}},
		PlacedAt:          now,
		EstimatedDelivery: now.Add(DeliveryEstimate),
	}

	t.mu.Lock()
	t.orders[userID] = append(t.orders[userID], order)
	t.mu.Unlock()
	return *order, nil
}

// Advance moves an order to the next status, enforcing the legal transitions:
// Pending -> Processing -> Shipped -> Delivered, with Cancelled reachable from
// any non-terminal status.
func (t *Tracker) Advance(userID int64, orderID string, status domain.OrderStatus, message string) (domain.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order, err := t.findLocked(userID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !legalTransition(order.Status, status) {
		return domain.Order{}, fmt.Errorf("%s -> %s: %w", order.Status, status, ErrIllegalTransition)
	}
	if message == "" {
		message = fmt.Sprintf("order status updated to %s", status)
	}
	order.Status = status
	order.StatusHistory = append(order.StatusHistory, domain.StatusEvent{
		Status:  status,
		At:      time.Now(),
		Message: message,
	})
	return *order, nil
}

// Orders lists the user's orders in placement order.
func (t *Tracker) Orders(userID int64) []domain.Order {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Order, 0, len(t.orders[userID]))
	for _, order := range t.orders[userID] {
		out = append(out, *order)
	}
	return out
}

// Order fetches one order by id.
func (t *Tracker) Order(userID int64, orderID string) (domain.Order, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	order, err := t.findLocked(userID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return *order, nil
}

func (t *Tracker) findLocked(userID int64, orderID string) (*domain.Order, error) {
	for _, order := range t.orders[userID] {
		if order.ID == orderID {
			return order, nil
		}
	}
	return nil, ErrOrderNotFound
}

func legalTransition(from, to domain.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == domain.OrderCancelled {
		return true
	}
	switch from {
	case domain.OrderPending:
		return to == domain.OrderProcessing
	case domain.OrderProcessing:
		return to == domain.OrderShipped
	case domain.OrderShipped:
		return to == domain.OrderDelivered
	}
	return false
}
