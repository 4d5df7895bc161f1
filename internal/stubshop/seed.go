package stubshop

import (
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedDemo fills the store with a small catalog and one demo account, enough
// to click through the whole cart flow against the stub shop.
func SeedDemo(store *Store) {
	store.AddUser(User{
		ID:        1,
		Email:     "demo@example.com",
		Password:  "password123",
		FirstName: "Demo",
		LastName:  "User",
		Role:      "customer",
	})

	store.AddCategory(domain.Category{ID: 1, Name: "Shirts"})
	store.AddCategory(domain.Category{ID: 2, Name: "Shoes"})

	store.AddProduct(
		domain.Product{ID: 1, Name: "Linen Shirt", Price: decimal.RequireFromString("39.90"), CategoryID: 1},
		domain.Variation{ID: 11, Size: "M", Color: "White", AvailableStock: 12},
		domain.Variation{ID: 12, Size: "L", Color: "White", AvailableStock: 7},
		domain.Variation{ID: 13, Size: "M", Color: "Navy", AvailableStock: 2},
	)
	store.AddProduct(
		domain.Product{ID: 2, Name: "Canvas Sneaker", Price: decimal.RequireFromString("59.00"), CategoryID: 2},
		domain.Variation{ID: 21, Size: "42", Color: "Black", AvailableStock: 5},
		domain.Variation{ID: 22, Size: "43", Color: "Black", AvailableStock: 0},
	)
}
