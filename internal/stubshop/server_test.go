package stubshop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := NewStore()
	SeedDemo(store)
	srv := httptest.NewServer(NewServer(store, []byte("test-secret"), zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"demo@example.com","password":"password123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func request(t *testing.T, srv *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLogin_BadCredentialsRejected(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		bytes.NewBufferString(`{"email":"demo@example.com","password":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartRoutes_RequireBearerToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/cart/items", "/api/users/me", "/api/cart/summary"} {
		resp := request(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := request(t, srv, http.MethodGet, "/api/cart/items", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_ReturnsProfile(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp := request(t, srv, http.MethodGet, "/api/users/me", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var identity domain.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	assert.Equal(t, "demo@example.com", identity.Email)
	assert.Equal(t, int64(1), identity.UserID)
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Add two units of variation 11.
	resp := request(t, srv, http.MethodPost, "/api/cart/add", token, `{"variationId":11,"quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var line domain.CartItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&line))
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Linen Shirt", line.ProductName)

	// Update the quantity; the canonical line comes back.
	resp = request(t, srv, http.MethodPut, "/api/cart/update-quantity", token,
		fmt.Sprintf(`{"cartItemId":%d,"quantity":4}`, line.CartItemID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.CartItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, 4, updated.Quantity)

	// Quantity zero responds with JSON null.
	resp = request(t, srv, http.MethodPost, "/api/cart/add", token, `{"variationId":21,"quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second domain.CartItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	resp = request(t, srv, http.MethodPut, "/api/cart/update-quantity", token,
		fmt.Sprintf(`{"cartItemId":%d,"quantity":0}`, second.CartItemID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "null", string(raw))

	// Summary reflects the remaining line.
	resp = request(t, srv, http.MethodGet, "/api/cart/summary", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary domain.CartSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 4, summary.TotalItems)

	// Remove, then clear.
	resp = request(t, srv, http.MethodDelete, fmt.Sprintf("/api/cart/remove/%d", line.CartItemID), token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = request(t, srv, http.MethodDelete, "/api/cart/clear", token, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, srv, http.MethodGet, "/api/cart/items", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []domain.CartItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Empty(t, items)
}

func TestAdd_InsufficientStockIsConflict(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Variation 13 is seeded with stock 2.
	resp := request(t, srv, http.MethodPost, "/api/cart/add", token, `{"variationId":13,"quantity":3}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Insufficient stock for requested quantity", body.Error)
	assert.Equal(t, "insufficient_stock", body.Code)
}

func TestRemove_UnknownLineIsNotFound(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp := request(t, srv, http.MethodDelete, "/api/cart/remove/999", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStockEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := request(t, srv, http.MethodGet, "/api/stock/21", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock struct {
		AvailableStock int `json:"availableStock"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stock))
	assert.Equal(t, 5, stock.AvailableStock)

	resp = request(t, srv, http.MethodGet, "/api/stock/21/check?quantity=5", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check domain.StockCheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	assert.True(t, check.Sufficient)

	resp = request(t, srv, http.MethodGet, "/api/stock/21/check?quantity=6", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	check = domain.StockCheck{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	assert.False(t, check.Sufficient)
	assert.Equal(t, 5, check.AvailableStock)

	resp = request(t, srv, http.MethodGet, "/api/stock/999", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := request(t, srv, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []domain.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 2)

	resp = request(t, srv, http.MethodGet, fmt.Sprintf("/api/products?category=%d", products[0].CategoryID), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filtered []domain.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	require.NotEmpty(t, filtered)
	for _, p := range filtered {
		assert.Equal(t, products[0].CategoryID, p.CategoryID)
	}

	resp = request(t, srv, http.MethodGet, fmt.Sprintf("/api/product_variations/by-product/%d", products[0].ID), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var variations []domain.Variation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&variations))
	assert.NotEmpty(t, variations)

	resp = request(t, srv, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []domain.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&categories))
	assert.Len(t, categories, 2)
}
