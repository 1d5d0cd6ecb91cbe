package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/upstream"
)

func makeOrders(n int) []Order {
	out := make([]Order, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Order{
			ID:       int64(i),
			Number:   fmt.Sprintf("PED-%04d", i),
			PlacedAt: fmt.Sprintf("2025-01-%02d", i%28+1),
			Status:   StatusPending,
			Lines:    []Line{{ProductID: 1, Product: "x", Price: 10, Quantity: int64(i)}},
		})
	}
	return out
}

func TestPaginate(t *testing.T) {
	all := makeOrders(45)

	cases := []struct {
		page    int
		wantLen int
		wantID  int64
		more    bool
	}{
		{1, 20, 1, true},
		{2, 20, 21, true},
		{3, 5, 41, false},
		{4, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("page %d", tc.page), func(t *testing.T) {
			p := Paginate(all, 45, tc.page, 0)
			require.Len(t, p.Orders, tc.wantLen)
			assert.Equal(t, tc.more, p.HasMore)
			assert.Equal(t, int64(45), p.TotalRecords)
			if tc.wantLen > 0 {
				assert.Equal(t, tc.wantID, p.Orders[0].ID)
			}
		})
	}

	exact := Paginate(makeOrders(20), 20, 1, 20)
	assert.False(t, exact.HasMore)
	assert.NotNil(t, Paginate(nil, 0, 1, 20).Orders)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, Sort{By: "fecha_pedido", Order: Desc}, ParseSort("", ""))
	assert.Equal(t, Sort{By: "estado", Order: Asc}, ParseSort("estado", "asc"))
	assert.Equal(t, Sort{By: "fecha_pedido", Order: Desc}, ParseSort("1;drop", "sideways"))
}

func TestDetailTotal(t *testing.T) {
	d := NewDetail(Order{ID: 1, Lines: []Line{
		{Price: 2499.9, Quantity: 1},
		{Price: 50, Quantity: 3},
	}})
	assert.InDelta(t, 2649.9, d.TotalGeneral, 1e-9)
	assert.Zero(t, NewDetail(Order{}).TotalGeneral)
}

func TestRemoteSource(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"total":"1","pedidos":[{
			"idpedido":7,"numero_pedido":"PED-0007","cliente_nombre":"Ana","cliente_email":"ana@example.com",
			"cliente_telefono":"999","cliente_ciudad":"Lima","fecha_pedido":"2025-02-01 10:00:00",
			"estado":"enviado","metodo_pago":"paypal",
			"detalle":[{"idproducto":"3","producto":"Galaxy A54","precio":"449.00","cantidad":2}]
		}]}`))
	}))
	t.Cleanup(ts.Close)

	src := NewRemoteSource(upstream.NewClient(ts.URL, time.Second, nil))
	got, err := src.List(t.Context(), ParseSort("cliente_nombre", "asc"))
	require.NoError(t, err)
	assert.Equal(t, "sort_by=cliente_nombre&sort_order=ASC", gotQuery)

	want := Listing{Total: 1, Orders: []Order{{
		ID: 7, Number: "PED-0007", CustomerName: "Ana", CustomerEmail: "ana@example.com",
		CustomerPhone: "999", CustomerCity: "Lima", PlacedAt: "2025-02-01 10:00:00",
		Status: StatusShipped, PaymentMethod: "paypal",
		Lines: []Line{{ProductID: 3, Product: "Galaxy A54", Price: 449, Quantity: 2}},
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteSource_MessageOnly(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"message":"Error de conexión a la base de datos"}`))
	}))
	t.Cleanup(ts.Close)

	_, err := NewRemoteSource(upstream.NewClient(ts.URL, time.Second, nil)).List(t.Context(), ParseSort("", ""))
	var rej *upstream.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Contains(t, rej.Message, "base de datos")
}

func TestServer(t *testing.T) {
	s := &Server{Source: NewMemSource(makeOrders(25)...)}
	r := chi.NewRouter()
	s.Mount(r)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("second page ascending by id", func(t *testing.T) {
		rec := get("/orders?page=2&sort_by=idpedido&sort_order=asc")
		require.Equal(t, http.StatusOK, rec.Code)

		var p Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		require.Len(t, p.Orders, 5)
		assert.Equal(t, int64(21), p.Orders[0].ID)
		assert.False(t, p.HasMore)
		assert.Equal(t, 2, p.Page)
	})

	t.Run("default is newest first", func(t *testing.T) {
		rec := get("/orders?sort_by=idpedido")
		var p Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, int64(25), p.Orders[0].ID)
		assert.True(t, p.HasMore)
	})

	t.Run("bad page", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("/orders?page=0").Code)
	})

	t.Run("detail", func(t *testing.T) {
		rec := get("/orders/4")
		require.Equal(t, http.StatusOK, rec.Code)

		var d Detail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
		assert.Equal(t, "PED-0004", d.Number)
		assert.Equal(t, 40.0, d.TotalGeneral)
	})

	t.Run("unknown order", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/orders/99").Code)
	})
}

func TestDemoOrders(t *testing.T) {
	orders := DemoOrders()

	statuses := map[Status]bool{}
	ids := map[int64]bool{}
	for _, o := range orders {
		statuses[o.Status] = true
		assert.False(t, ids[o.ID], "duplicate id %d", o.ID)
		ids[o.ID] = true
		assert.NotEmpty(t, o.Lines, o.Number)
		assert.Positive(t, o.Total(), o.Number)
	}
	for _, st := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, statuses[st], "missing %s", st)
	}

	listing, err := NewMemSource(orders...).List(context.Background(), ParseSort("", ""))
	require.NoError(t, err)
	assert.Equal(t, "PED-0005", listing.Orders[0].Number, "newest first")
}
