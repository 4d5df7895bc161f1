package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []domain.CartItem {
	return []domain.CartItem{
		{CartItemID: 1, VariationID: 7, Quantity: 2, UnitPrice: decimal.NewFromInt(10), LineTotal: decimal.NewFromInt(20)},
		{CartItemID: 2, VariationID: 8, Quantity: 1, UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5)},
	}
}

func TestPlace(t *testing.T) {
	tracker := NewTracker()

	order, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.ID, "ORD-"))
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Len(t, order.Items, 2)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, domain.OrderPending, order.StatusHistory[0].Status)
	assert.WithinDuration(t, time.Now().Add(DeliveryEstimate), order.EstimatedDelivery, time.Minute)
}

func TestPlace_EmptyCart(t *testing.T) {
	tracker := NewTracker()
	_, err := tracker.Place(1, nil, decimal.Zero)
	require.ErrorIs(t, err, ErrNothingToCheckout)
}

func TestPlace_CopiesItems(t *testing.T) {
	tracker := NewTracker()
	items := testItems()
	order, err := tracker.Place(1, items, decimal.NewFromInt(25))
	require.NoError(t, err)

	items[0].Quantity = 99 // simulates the cart being mutated after checkout
	got, err := tracker.Order(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestAdvance_HappyPath(t *testing.T) {
	tracker := NewTracker()
	order, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)

	for _, status := range []domain.OrderStatus{
		domain.OrderProcessing,
		domain.OrderShipped,
		domain.OrderDelivered,
	} {
		order, err = tracker.Advance(1, order.ID, status, "")
		require.NoError(t, err)
		assert.Equal(t, status, order.Status)
	}

	require.Len(t, order.StatusHistory, 4)
	assert.True(t, order.Status.Terminal())
}

func TestAdvance_IllegalTransitions(t *testing.T) {
	tracker := NewTracker()
	order, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)

	_, err = tracker.Advance(1, order.ID, domain.OrderShipped, "")
	require.ErrorIs(t, err, ErrIllegalTransition, "pending cannot skip to shipped")

	_, err = tracker.Advance(1, order.ID, domain.OrderDelivered, "")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestAdvance_CancelFromAnyNonTerminal(t *testing.T) {
	tracker := NewTracker()
	order, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)
	_, err = tracker.Advance(1, order.ID, domain.OrderProcessing, "")
	require.NoError(t, err)

	cancelled, err := tracker.Advance(1, order.ID, domain.OrderCancelled, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.StatusHistory[len(cancelled.StatusHistory)-1].Message)

	// Terminal orders accept no further transitions, cancellation included.
	_, err = tracker.Advance(1, order.ID, domain.OrderCancelled, "")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestAdvance_UnknownOrder(t *testing.T) {
	tracker := NewTracker()
	_, err := tracker.Advance(1, "ORD-missing", domain.OrderProcessing, "")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrders_PerUserInPlacementOrder(t *testing.T) {
	tracker := NewTracker()
	first, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)
	second, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)
	_, err = tracker.Place(2, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)

	got := tracker.Orders(1)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)

	assert.Empty(t, tracker.Orders(3))
}

func TestOrder_ScopedToUser(t *testing.T) {
	tracker := NewTracker()
	order, err := tracker.Place(1, testItems(), decimal.NewFromInt(25))
	require.NoError(t, err)

	_, err = tracker.Order(2, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound, "orders are not visible across users")
}
