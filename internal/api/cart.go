package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
)

// CartClient is the typed wrapper over the remote cart resource. Every
// mutation returns the canonical post-mutation state reported by the server,
// never an echo of the request.
type CartClient struct {
	c *Client
}

func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

type addItemRequest struct {
	VariationID int64 `json:"variationId"`
	Quantity    int   `json:"quantity"`
}

type updateQuantityRequest struct {
	CartItemID int64 `json:"cartItemId"`
	Quantity   int   `json:"quantity"`
}

// Add puts quantity units of a variation into the cart and returns the
// resulting line, which may be a merge into an existing line for the same
// variation.
func (cc *CartClient) Add(ctx context.Context, variationID int64, quantity int) (domain.CartItem, error) {
	var item domain.CartItem
	err := cc.c.do(ctx, http.MethodPost, "/api/cart/add", addItemRequest{
		VariationID: variationID,
		Quantity:    quantity,
	}, &item)
	return item, err
}

// Items fetches the full cart snapshot.
func (cc *CartClient) Items(ctx context.Context) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := cc.c.do(ctx, http.MethodGet, "/api/cart/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets the line's quantity. A zero quantity deletes the line
// server-side and yields a nil item.
func (cc *CartClient) UpdateQuantity(ctx context.Context, cartItemID int64, quantity int) (*domain.CartItem, error) {
	var raw json.RawMessage
	err := cc.c.do(ctx, http.MethodPut, "/api/cart/update-quantity", updateQuantityRequest{
		CartItemID: cartItemID,
		Quantity:   quantity,
	}, &raw)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var item domain.CartItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode updated cart item: %v: %w", err, ErrTransport)
	}
	return &item, nil
}

// Remove deletes the line.
func (cc *CartClient) Remove(ctx context.Context, cartItemID int64) error {
	return cc.c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/cart/remove/%d", cartItemID), nil, nil)
}

// Clear empties the whole cart.
func (cc *CartClient) Clear(ctx context.Context) error {
	return cc.c.do(ctx, http.MethodDelete, "/api/cart/clear", nil, nil)
}

// Summary fetches the server-computed totals pair.
func (cc *CartClient) Summary(ctx context.Context) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := cc.c.do(ctx, http.MethodGet, "/api/cart/summary", nil, &summary)
	return summary, err
}
