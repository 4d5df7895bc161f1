package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) { return s.token, s.token != "" }

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, tokens, zap.NewNop())
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, staticTokens{token: "abc123"})

	var out struct{}
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/api/cart/items", nil, &out))
	assert.Equal(t, "Bearer abc123", gotAuth)
}

func TestDo_AnonymousWithoutToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}, staticTokens{})

	var out struct{}
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/api/products", nil, &out))
	assert.Empty(t, gotAuth)
}

func TestDo_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, ErrUnauthenticated},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrInsufficientStock},
		{"server error", http.StatusInternalServerError, ErrTransport},
		{"bad gateway", http.StatusBadGateway, ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}, staticTokens{token: "tok"})

			err := client.do(context.Background(), http.MethodGet, "/api/cart/items", nil, nil)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDo_ConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens here anymore
	client := NewClient(srv.URL, time.Second, staticTokens{}, zap.NewNop())

	err := client.do(context.Background(), http.MethodGet, "/api/cart/items", nil, nil)
	require.ErrorIs(t, err, ErrTransport)
}

func TestStatusError_CarriesBackendDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Insufficient stock for requested quantity"}`))
	}, staticTokens{token: "tok"})

	err := client.do(context.Background(), http.MethodPost, "/api/cart/add", map[string]int{"quantity": 3}, nil)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Insufficient stock for requested quantity")
}

func TestReadDetail_Shapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"wrapped object", `{"error":"no such item"}`, "no such item"},
		{"plain json string", `"session expired"`, "session expired"},
		{"raw text first line", "boom\nsecond line", "boom"},
		{"empty body", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tc.body))
			}, staticTokens{})

			err := client.do(context.Background(), http.MethodGet, "/x", nil, nil)
			require.ErrorIs(t, err, ErrTransport)
			if tc.want != "" {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	// Only transport-level failures count toward the breaker, so drive it
	// with refused connections. After more than five in a row it opens and
	// later calls fail fast, still surfacing as transport errors.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, 200*time.Millisecond, staticTokens{}, zap.NewNop())

	for i := 0; i < 6; i++ {
		require.Error(t, client.do(context.Background(), http.MethodGet, "/x", nil, nil))
	}
	err := client.do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.ErrorIs(t, err, ErrTransport)
}

func TestCartClient_UpdateQuantityNullMeansRemoved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cart/update-quantity", r.URL.Path)
		w.Write([]byte(`null`))
	}, staticTokens{token: "tok"})

	item, err := NewCartClient(client).UpdateQuantity(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCartClient_UpdateQuantityReturnsCanonicalLine(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cartItemId":42,"variationId":7,"quantity":5,"unitPrice":"10","totalPrice":"50"}`))
	}, staticTokens{token: "tok"})

	item, err := NewCartClient(client).UpdateQuantity(context.Background(), 42, 5)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, int64(42), item.CartItemID)
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, "10", item.UnitPrice.String())
	assert.Equal(t, "50", item.LineTotal.String())
}

func TestCartClient_RemoveUsesPathParameter(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}, staticTokens{token: "tok"})

	require.NoError(t, NewCartClient(client).Remove(context.Background(), 42))
	assert.Equal(t, "/api/cart/remove/42", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestStockClient_CollapsesConcurrentLookups(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(`{"availableStock":4}`))
	}, staticTokens{})

	stocks := NewStockClient(client)
	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := stocks.Get(context.Background(), 7)
			assert.NoError(t, err)
			results[i] = n
		}(i)
	}
	// Give every goroutine time to join the in-flight call, then let the one
	// real request finish.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), hits.Load(), "identical lookups share one request")
	for _, n := range results {
		assert.Equal(t, 4, n)
	}
}

func TestStockClient_CheckBuildsQuery(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(`{"hasSufficientStock":true,"availableStock":9}`))
	}, staticTokens{})

	check, err := NewStockClient(client).Check(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, "/api/stock/7/check", gotPath)
	assert.Equal(t, "quantity=3", gotQuery)
	assert.True(t, check.Sufficient)
	assert.Equal(t, 9, check.AvailableStock)
}
