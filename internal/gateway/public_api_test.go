package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"storefront/internal/brand"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/gateway"
	"storefront/internal/order"
	"storefront/pkg/kit"
)

type downSource struct{ order.Source }

func (downSource) Ping(context.Context) error { return errors.New("connection refused") }

func newDeps() gateway.Deps {
	return gateway.Deps{
		Catalog: catalog.NewMemStore(),
		Brands:  brand.NewMemStore(),
		Orders: order.NewMemSource(
			order.Order{ID: 1, Number: "PED-0001", PlacedAt: "2025-01-01", Status: order.StatusPending,
				Lines: []order.Line{{ProductID: 101, Product: "iPhone 15 Pro Max", Price: 1299, Quantity: 1}}},
			order.Order{ID: 2, Number: "PED-0002", PlacedAt: "2025-01-02", Status: order.StatusShipped,
				Lines: []order.Line{{ProductID: 203, Product: "Galaxy A54", Price: 449, Quantity: 2}}},
		),
		Carts: cart.NewRegistry(time.Hour, nil, zap.NewNop()),
	}
}

func newGatewayTS(t *testing.T, deps gateway.Deps, httpDeps gateway.HTTPDeps) *httptest.Server {
	t.Helper()

	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}
	httpDeps.Service = "storefront"

	h, err := gateway.NewHandler(deps, httpDeps)
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeCart(t *testing.T, raw []byte) cart.Snapshot {
	t.Helper()
	var snap cart.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap), string(raw))
	return snap
}

func TestGateway_CartFlow(t *testing.T) {
	ts := newGatewayTS(t, newDeps(), gateway.HTTPDeps{})
	c := newClient(t)

	iphone := map[string]any{"id": 101, "name": "iPhone 15 Pro Max", "price": 100, "image": "a.png", "category": "iPhone"}
	galaxy := map[string]any{"id": 203, "name": "Galaxy A54", "price": 50, "image": "b.png", "category": "Samsung Galaxy"}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/cart/items", iphone, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	galaxy["quantity"] = 2
	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/cart/items", galaxy, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	snap := decodeCart(t, raw)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, 200.0, snap.Total)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, int64(101), snap.Items[0].ID)

	resp, raw = doJSON(t, c, http.MethodPatch, ts.URL+"/cart/items/101", map[string]any{"quantity": 5}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, 600.0, decodeCart(t, raw).Total)

	resp, raw = doJSON(t, c, http.MethodDelete, ts.URL+"/cart/items/203", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, 5, decodeCart(t, raw).ItemCount)

	// a second client gets its own cart
	_, raw = doJSON(t, newClient(t), http.MethodGet, ts.URL+"/cart", nil, nil)
	assert.Empty(t, decodeCart(t, raw).Items)

	resp, raw = doJSON(t, c, http.MethodDelete, ts.URL+"/cart", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeCart(t, raw)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Total)
}

func TestGateway_CatalogAndOrders(t *testing.T) {
	ts := newGatewayTS(t, newDeps(), gateway.HTTPDeps{})
	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products/203", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var p catalog.Product
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, "Galaxy A54", p.Name)

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/products/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw = doJSON(t, c, http.MethodGet, ts.URL+"/orders?sort_by=numero_pedido&sort_order=asc", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var page order.Page
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Orders, 2)
	assert.Equal(t, "PED-0001", page.Orders[0].Number)
	assert.False(t, page.HasMore)

	resp, raw = doJSON(t, c, http.MethodGet, ts.URL+"/orders/2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var d order.Detail
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, 898.0, d.TotalGeneral)
}

func TestGateway_Probes(t *testing.T) {
	c := &http.Client{}

	ts := newGatewayTS(t, newDeps(), gateway.HTTPDeps{})
	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	deps := newDeps()
	deps.Orders = downSource{deps.Orders}
	down := newGatewayTS(t, deps, gateway.HTTPDeps{})

	resp, raw := doJSON(t, c, http.MethodGet, down.URL+"/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(raw), "orders not ready")

	resp, _ = doJSON(t, c, http.MethodGet, down.URL+"/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGateway_MetricsRequiresToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	ts := newGatewayTS(t, newDeps(), gateway.HTTPDeps{
		Registry:       reg,
		Metrics:        kit.NewMetrics(reg),
		MetricsEnabled: true,
		MetricsToken:   "s3cret",
	})
	c := &http.Client{}

	doJSON(t, c, http.MethodGet, ts.URL+"/products", nil, nil)

	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{
		"Authorization": "Bearer s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `http_requests_total{method="GET",path="/products",service="storefront",status="200"}`)
}

func TestGateway_ImageProxy(t *testing.T) {
	var gotPath, gotCookie string
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	t.Cleanup(images.Close)

	deps := newDeps()
	deps.ImagesURL = images.URL + "/images"
	ts := newGatewayTS(t, deps, gateway.HTTPDeps{})

	resp, raw := doJSON(t, &http.Client{}, http.MethodGet, ts.URL+"/images/iphone15.png", nil, map[string]string{
		"Cookie": cart.SessionCookie + "=abc",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png", string(raw))
	assert.Equal(t, "/images/iphone15.png", gotPath)
	assert.Empty(t, gotCookie)
}

func TestNewHandler_RequiresStores(t *testing.T) {
	deps := newDeps()
	deps.Carts = nil
	_, err := gateway.NewHandler(deps, gateway.HTTPDeps{})
	assert.Error(t, err)

	deps = newDeps()
	deps.ImagesURL = "not a url"
	_, err = gateway.NewHandler(deps, gateway.HTTPDeps{})
	assert.Error(t, err)
}

func TestRunBackground_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	deps := newDeps()
	deps.BrandWrites = kit.NewIPRateLimiter(5, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gateway.RunBackground(ctx, deps, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("background tasks did not stop")
	}
}
