package orderimport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzolin/cashplan-service/internal/config"
)

func newTestServer(t *testing.T, supplierHits *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/purchase-orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]externalOrder{
			{ID: "ext-1", SupplierID: "s-1", Title: "Фурнитура", TotalAmount: 5000, DepositAmount: 1500,
				DepositDate: "2026-09-01", DueDate: "2026-10-01", Currency: "CNY"},
			{ID: "ext-2", SupplierID: "s-1", Title: "Ткань", TotalAmount: 3000,
				DueDate: "2026-09-15", Currency: "RUB"},
		})
	})
	mux.HandleFunc("/v1/suppliers/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(supplierHits, 1)
		json.NewEncoder(w).Encode(externalSupplier{ID: "s-1", Name: "Shenzhen Textile Co"})
	})
	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(&config.Config{ImportURL: baseURL}, logger)
}

func TestFetchOrdersResolvesNamesThroughCache(t *testing.T) {
	var supplierHits int64
	srv := newTestServer(t, &supplierHits)
	defer srv.Close()

	client := newTestClient(srv.URL)
	orders, err := client.FetchOrders(context.Background(), NewNameCache())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Both orders share one supplier: exactly one lookup per run.
	assert.Equal(t, int64(1), supplierHits)
	assert.Equal(t, "Shenzhen Textile Co", orders[0].SupplierName)
	assert.Equal(t, "Shenzhen Textile Co", orders[1].SupplierName)

	assert.Equal(t, "ext-1", orders[0].ExternalID)
	assert.Equal(t, "CNY", orders[0].Currency)
	assert.Equal(t, "2026-09-01", orders[0].DepositDate.Format("2006-01-02"))
	assert.True(t, orders[1].DepositDate.IsZero())
}

func TestFetchOrdersFreshCachePerRun(t *testing.T) {
	var supplierHits int64
	srv := newTestServer(t, &supplierHits)
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.FetchOrders(context.Background(), NewNameCache())
	require.NoError(t, err)
	_, err = client.FetchOrders(context.Background(), NewNameCache())
	require.NoError(t, err)

	// A fresh cache per run means a renamed supplier is picked up again.
	assert.Equal(t, int64(2), supplierHits)
}

func TestNormalizeCurrencyDefaultsToRUB(t *testing.T) {
	assert.Equal(t, "RUB", normalizeCurrency("USD"))
	assert.Equal(t, "RUB", normalizeCurrency(""))
	assert.Equal(t, "CNY", normalizeCurrency("CNY"))
}

func TestClientDisabledWithoutURL(t *testing.T) {
	client := newTestClient("")
	assert.False(t, client.Enabled())
}
