package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/observability"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
	_ "github.com/odyssey-erp/odyssey-retail/testing"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, path, tenant string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	return rr
}

func decodeID(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func newTestAPI(t *testing.T) (apiClient, *observability.Metrics) {
	t.Helper()
	cfg := &Config{
		DefaultTenant:       dbtest.Tenant,
		OrderIDFormat:       "sequential",
		SalesOrderPrefix:    "SO",
		PurchaseOrderPrefix: "PO",
		TaxType:             "gst",
		TaxGSTRate:          decimal.NewFromInt(18),
		APIRateLimit:        1000,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	services := NewServices(dbtest.Open(t), cfg, logger, metrics, dbtest.NewClock().Now)
	params := services.Handlers(logger)
	params.Config = cfg
	params.Metrics = metrics
	return apiClient{t: t, handler: NewRouter(params)}, metrics
}

func TestRouterSalesFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rr := api.do(http.MethodPost, "/api/customers", "", map[string]any{"name": "Asha", "state": "KA"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	customerID := decodeID(t, rr)

	rr = api.do(http.MethodPost, "/api/products", "", map[string]any{"title": "Tea", "mrp": "100", "cost": "60"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	productID := decodeID(t, rr)

	rr = api.do(http.MethodPost, "/api/inventory/products/"+productID+"/adjustments", "", map[string]any{"delta": 10})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = api.do(http.MethodPost, "/api/sales-orders", "", map[string]any{
		"customerId": customerID,
		"items":      []map[string]any{{"productId": productID, "quantity": 2, "unitPrice": "90"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		SalesOrder struct {
			ID    string          `json:"id"`
			Total decimal.Decimal `json:"total"`
		} `json:"salesOrder"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "SO-0001", created.SalesOrder.ID)
	assert.True(t, created.SalesOrder.Total.Equal(decimal.RequireFromString("212.4")), created.SalesOrder.Total.String())

	rr = api.do(http.MethodGet, "/api/products/"+productID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var product struct {
		StockOnHand int64 `json:"stockOnHand"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))
	assert.EqualValues(t, 8, product.StockOnHand)

	rr = api.do(http.MethodGet, "/api/sync/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"pending":5,"synced":0}`, rr.Body.String())
}

func TestRouterScopesByTenantHeader(t *testing.T) {
	api, _ := newTestAPI(t)

	rr := api.do(http.MethodPost, "/api/customers", "shop-a", map[string]any{"name": "Asha"})
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decodeID(t, rr)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/customers/"+id, "shop-a", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/customers/"+id, "shop-b", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/customers/"+id, "", nil).Code)
}

func TestRouterMapsErrorsToProblems(t *testing.T) {
	api, _ := newTestAPI(t)

	rr := api.do(http.MethodPost, "/api/customers", "", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = api.do(http.MethodGet, "/api/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	api, _ := newTestAPI(t)

	rr := api.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "retail_http_requests_total"))
}
