package domain

import "github.com/shopspring/decimal"

// CartItem is one line of a user's cart. The server assigns CartItemID on
// creation and keeps it stable across quantity updates. Display fields are a
// denormalized snapshot taken at fetch time and may go stale; AvailableStock
// in particular is advisory only.
type CartItem struct {
	CartItemID     int64           `json:"cartItemId"`
	VariationID    int64           `json:"variationId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	LineTotal      decimal.Decimal `json:"totalPrice"`
	ProductName    string          `json:"productName,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	AvailableStock int             `json:"availableStock,omitempty"`
}

// CartSummary is the server-computed totals pair returned by the summary
// endpoint. Local totals are always recomputed from items instead.
type CartSummary struct {
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// StockCheck reports whether a requested quantity fits within available stock.
type StockCheck struct {
	Sufficient     bool `json:"hasSufficientStock"`
	AvailableStock int  `json:"availableStock"`
}
