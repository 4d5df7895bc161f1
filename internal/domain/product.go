package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CategoryID  int64           `json:"categoryId,omitempty"`
}

// Variation is a purchasable configuration of a product (size + color).
// AvailableStock is the stock level at snapshot time.
type Variation struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"productId"`
	Size           string `json:"size,omitempty"`
	Color          string `json:"color,omitempty"`
	AvailableStock int    `json:"availableStock"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
