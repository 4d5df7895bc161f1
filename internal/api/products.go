package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
)

// ProductClient reads the catalog. Catalog data is server-owned and read-only
// from this side.
type ProductClient struct {
	c *Client
}

func NewProductClient(c *Client) *ProductClient {
	return &ProductClient{c: c}
}

func (pc *ProductClient) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := pc.c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (pc *ProductClient) Product(ctx context.Context, productID int64) (domain.Product, error) {
	var product domain.Product
	err := pc.c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil, &product)
	return product, err
}

func (pc *ProductClient) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	var products []domain.Product
	path := fmt.Sprintf("/api/products?category=%d", categoryID)
	if err := pc.c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// VariationsByProduct lists the size/color configurations of one product.
func (pc *ProductClient) VariationsByProduct(ctx context.Context, productID int64) ([]domain.Variation, error) {
	var variations []domain.Variation
	path := fmt.Sprintf("/api/product_variations/by-product/%d", productID)
	if err := pc.c.do(ctx, http.MethodGet, path, nil, &variations); err != nil {
		return nil, err
	}
	return variations, nil
}

func (pc *ProductClient) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := pc.c.do(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
