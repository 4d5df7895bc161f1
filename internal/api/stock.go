package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// StockClient answers read-only stock questions. Failures must be treated as
// "assume insufficient" by callers; stock checks never fail open. Concurrent
// identical lookups are collapsed into one request.
type StockClient struct {
	c   *Client
	sfg singleflight.Group
}

func NewStockClient(c *Client) *StockClient {
	return &StockClient{c: c}
}

// Get returns the available stock for a variation.
func (sc *StockClient) Get(ctx context.Context, variationID int64) (int, error) {
	v, err, _ := sc.sfg.Do(fmt.Sprintf("stock:%d", variationID), func() (interface{}, error) {
		var out struct {
			AvailableStock int `json:"availableStock"`
		}
		path := fmt.Sprintf("/api/stock/%d", variationID)
		if err := sc.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return 0, err
		}
		return out.AvailableStock, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Check reports whether quantity units of the variation can be fulfilled.
func (sc *StockClient) Check(ctx context.Context, variationID int64, quantity int) (domain.StockCheck, error) {
	key := fmt.Sprintf("check:%d:%d", variationID, quantity)
	v, err, _ := sc.sfg.Do(key, func() (interface{}, error) {
		var out domain.StockCheck
		path := fmt.Sprintf("/api/stock/%d/check?quantity=%d", variationID, quantity)
		if err := sc.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return domain.StockCheck{}, err
		}
		return out, nil
	})
	if err != nil {
		return domain.StockCheck{}, err
	}
	return v.(domain.StockCheck), nil
}
