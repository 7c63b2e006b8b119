package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/domain/orders"
)

const ordersPayload = `{
	"orders": [
		{
			"id": 1001,
			"name": "#2001",
			"order_number": 2001,
			"email": "ada@example.com",
			"currency": "EUR",
			"financial_status": "paid",
			"total_price": "26.90",
			"subtotal_price": "20.00",
			"total_tax": "2.00",
			"shipping_address": {"name": "Ada Lovelace", "city": "London"},
			"customer": {"first_name": "Ada", "last_name": "Lovelace"},
			"shipping_lines": [{"title": "Standard", "price": "4.90"}],
			"fulfillments": [{"tracking_number": "TRK-1"}],
			"line_items": [
				{
					"id": 5001,
					"sku": "SKU-A",
					"product_id": 777,
					"variant_id": 888,
					"title": "Widget",
					"quantity": 2,
					"price": "10.00",
					"grams": 250,
					"requires_shipping": true,
					"properties": [
						{"name": "Color", "value": "Red"},
						{"name": "_internal", "value": "x"}
					]
				}
			]
		},
		{"id": 1002, "name": "#2002", "total_price": "5.00"}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		AccessToken: "token",
		BaseURL:     server.URL,
		MaxRetries:  2,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func TestClient_FetchPage_FirstPage(t *testing.T) {
	var gotQuery map[string][]string
	var gotToken string
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		w.Header().Set("Link", fmt.Sprintf(`<%s/orders.json?page_info=cursor-2&limit=250>; rel="next"`, "http://example"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ordersPayload))
	}))
	_ = server

	windowStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	page, err := client.FetchPage(context.Background(), orders.PageQuery{
		UpdatedAtMin: windowStart,
		PageSize:     250,
	})
	require.NoError(t, err)

	assert.Equal(t, "token", gotToken)
	assert.Equal(t, "250", gotQuery["limit"][0])
	assert.Equal(t, "any", gotQuery["status"][0])
	assert.Equal(t, "2025-03-01T00:00:00Z", gotQuery["updated_at_min"][0])
	assert.NotEmpty(t, gotQuery["fields"][0])

	assert.Equal(t, "cursor-2", page.NextCursor)
	require.Len(t, page.Records, 2)

	first := page.Records[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, "#2001", first.Name)
	assert.Equal(t, "26.90", first.TotalPrice)
	require.NotNil(t, first.ShippingAddress)
	assert.Equal(t, "Ada Lovelace", first.ShippingAddress.Name)
	assert.Contains(t, first.ShippingAddress.Raw, `"city"`)
	require.NotNil(t, first.Customer)
	assert.Equal(t, "Ada", first.Customer.FirstName)
	require.Len(t, first.LineItems, 1)
	assert.Equal(t, "5001", first.LineItems[0].ID)
	assert.Equal(t, "777", first.LineItems[0].ProductID)
	assert.Equal(t, int64(250), first.LineItems[0].Grams)
	require.Len(t, first.LineItems[0].Properties, 2)
	assert.Equal(t, "Red", first.LineItems[0].Properties[0].Value)
}

func TestClient_FetchPage_CursorPage(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"orders": []}`))
	}))

	page, err := client.FetchPage(context.Background(), orders.PageQuery{
		Cursor:       "cursor-2",
		UpdatedAtMin: time.Now(),
		PageSize:     250,
	})
	require.NoError(t, err)

	assert.Equal(t, "cursor-2", gotQuery["page_info"][0])
	assert.NotContains(t, gotQuery, "status")
	assert.NotContains(t, gotQuery, "updated_at_min")
	assert.Empty(t, page.NextCursor)
	assert.Empty(t, page.Records)
}

func TestClient_FetchPage_Retries(t *testing.T) {
	t.Run("rate limit honors retry-after and retries", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.Header().Set("Retry-After", "0.01")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(`{"orders": []}`))
		}))

		_, err := client.FetchPage(context.Background(), orders.PageQuery{PageSize: 50})
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("server errors retry until exhaustion", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.FetchPage(context.Background(), orders.PageQuery{PageSize: 50})
		require.Error(t, err)
		assert.ErrorIs(t, err, orders.ErrSourceRequestFailed)
		// MaxRetries=2 means one initial attempt plus two retries.
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("auth errors are not retried", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FetchPage(context.Background(), orders.PageQuery{PageSize: 50})
		require.Error(t, err)
		assert.ErrorIs(t, err, orders.ErrSourceRequestFailed)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("malformed body is not retried", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = w.Write([]byte(`{not json`))
		}))

		_, err := client.FetchPage(context.Background(), orders.PageQuery{PageSize: 50})
		require.Error(t, err)
		assert.ErrorIs(t, err, orders.ErrSourceInvalidResponse)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestNextPageCursor(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			"next link present",
			`<https://shop.myshopify.com/admin/api/2024-01/orders.json?page_info=abc123&limit=250>; rel="next"`,
			"abc123",
		},
		{
			"previous and next links",
			`<https://x/orders.json?page_info=prev1>; rel="previous", <https://x/orders.json?page_info=next1>; rel="next"`,
			"next1",
		},
		{
			"only previous link",
			`<https://x/orders.json?page_info=prev1>; rel="previous"`,
			"",
		},
		{
			"empty header",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextPageCursor(tt.header))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid with domain", Config{ShopDomain: "x.myshopify.com", AccessToken: "t"}, false},
		{"valid with base url", Config{BaseURL: "http://localhost:1", AccessToken: "t"}, false},
		{"missing domain", Config{AccessToken: "t"}, true},
		{"missing token", Config{ShopDomain: "x.myshopify.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
