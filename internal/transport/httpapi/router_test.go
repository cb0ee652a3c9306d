package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := checkout.NewService(
		memory.NewOrderRepository(),
		memory.NewCustomerRepository(),
		memory.NewProductRepository(),
		checkout.WithOutbox(memory.NewOutboxRepository()),
		checkout.WithMetrics(metrics.NewCheckoutMetricsWithRegisterer(prometheus.NewRegistry())),
	)
	return NewRouter(svc, "test", nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func sampleOrderBody() map[string]any {
	return map[string]any{
		"id":          "order-1",
		"customer_id": "customer-1",
		"items": []map[string]any{
			{"id": "item-1", "product_id": "product-1", "name": "Keyboard", "price": "19.99", "quantity": 2},
			{"id": "item-2", "product_id": "product-2", "name": "Mouse", "price": "5.25", "quantity": 1},
		},
	}
}

func TestOrders_CreateGetAndChangeQuantity(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/v1/orders", sampleOrderBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[OrderBody](t, w)
	assert.Equal(t, "45.23", created.Total)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "39.98", created.Items[0].TotalPrice)

	w = do(t, h, http.MethodGet, "/api/v1/orders/order-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[OrderBody](t, w))

	w = do(t, h, http.MethodPatch, "/api/v1/orders/order-1/items/item-2", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "55.73", decode[OrderBody](t, w).Total)

	w = do(t, h, http.MethodPatch, "/api/v1/orders/order-1/items/item-2", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "55.73", decode[OrderBody](t, w).Total)
}

func TestOrders_Errors(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/orders", sampleOrderBody()).Code)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"duplicate", http.MethodPost, "/api/v1/orders", sampleOrderBody(), http.StatusConflict},
		{"missing order", http.MethodGet, "/api/v1/orders/missing", nil, http.StatusNotFound},
		{"unknown item", http.MethodPatch, "/api/v1/orders/order-1/items/nope", map[string]any{"quantity": 2}, http.StatusNotFound},
		{"empty items", http.MethodPost, "/api/v1/orders", map[string]any{"customer_id": "c", "items": []any{}}, http.StatusUnprocessableEntity},
		{
			"zero quantity",
			http.MethodPost,
			"/api/v1/orders",
			map[string]any{"customer_id": "c", "items": []map[string]any{{"name": "x", "price": "1", "quantity": 0}}},
			http.StatusUnprocessableEntity,
		},
		{
			"bad price",
			http.MethodPost,
			"/api/v1/orders",
			map[string]any{"customer_id": "c", "items": []map[string]any{{"name": "x", "price": "abc", "quantity": 1}}},
			http.StatusBadRequest,
		},
		{
			"unknown product",
			http.MethodPost,
			"/api/v1/orders",
			map[string]any{"customer_id": "c", "items": []map[string]any{{"product_id": "missing", "quantity": 1}}},
			http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			problem := decode[huma.ErrorModel](t, w)
			assert.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestOrders_ListByCustomer(t *testing.T) {
	h := newTestRouter(t)

	for _, id := range []string{"order-2", "order-1"} {
		body := sampleOrderBody()
		body["id"] = id
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/orders", body).Code)
	}
	other := sampleOrderBody()
	other["id"], other["customer_id"] = "order-3", "customer-2"
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/orders", other).Code)

	w := do(t, h, http.MethodGet, "/api/v1/orders?customer_id=customer-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[OrderListBody](t, w)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "order-1", list.Orders[0].ID)
	assert.Equal(t, "order-2", list.Orders[1].ID)

	w = do(t, h, http.MethodGet, "/api/v1/orders?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[OrderListBody](t, w).Orders, 1)
}

func TestCatalog_Flow(t *testing.T) {
	h := newTestRouter(t)

	w := do(t, h, http.MethodPost, "/api/v1/products", map[string]any{"id": "product-1", "name": "Keyboard", "price": "19.99"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"id":          "order-1",
		"customer_id": "customer-1",
		"items":       []map[string]any{{"product_id": "product-1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[OrderBody](t, w)
	assert.Equal(t, "Keyboard", order.Items[0].Name)
	assert.Equal(t, "39.98", order.Total)

	w = do(t, h, http.MethodPut, "/api/v1/products/product-1/price", map[string]any{"price": "17.49"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "17.49", decode[ProductBody](t, w).Price)

	w = do(t, h, http.MethodPut, "/api/v1/products/product-1/price", map[string]any{"price": "-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ProductListBody](t, w).Products, 1)

	w = do(t, h, http.MethodPost, "/api/v1/customers", map[string]any{"id": "customer-1", "name": "John"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, http.MethodPut, "/api/v1/customers/customer-1/address", map[string]any{
		"street": "Street 1", "number": 1, "zip": "Zipcode 1", "city": "City 1", "activate": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	customer := decode[CustomerBody](t, w)
	assert.True(t, customer.Active)
	require.NotNil(t, customer.Address)
	assert.Equal(t, "City 1", customer.Address.City)

	w = do(t, h, http.MethodGet, "/api/v1/customers/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[CustomerListBody](t, w).Customers, 1)
}

func TestRouter_ServesOpenAPI(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/orders/{orderID}/items/{itemID}")
}
