package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Call(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.php":
			gotQuery = r.URL.Query()
			if r.Body != nil && r.Method == http.MethodPost {
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
			}
			_, _ = w.Write([]byte(`{"success":true,"data":[{"n":1},{"n":2}]}`))
		case "/rejected.php":
			_, _ = w.Write([]byte(`{"success":false,"message":"duplicated"}`))
		case "/broken.php":
			w.WriteHeader(http.StatusInternalServerError)
		case "/garbage.php":
			_, _ = w.Write([]byte(`{"success":true,"data":"nope"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL+"/", time.Second, nil)
	ctx := context.Background()

	var rows []struct {
		N int `json:"n"`
	}
	err := c.Call(ctx, http.MethodPost, "ok.php", url.Values{"id": {"3"}}, map[string]any{"x": 1}, &rows)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "3", gotQuery.Get("id"))
	assert.Equal(t, 1.0, gotBody["x"])

	err = c.Call(ctx, http.MethodGet, "rejected.php", nil, nil, nil)
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "duplicated", rej.Message)

	assert.ErrorIs(t, c.Call(ctx, http.MethodGet, "broken.php", nil, nil, nil), ErrBadStatus)
	assert.ErrorIs(t, c.Call(ctx, http.MethodGet, "missing.php", nil, nil, nil), ErrNotFound)
	assert.ErrorIs(t, c.Call(ctx, http.MethodGet, "garbage.php", nil, nil, &rows), ErrBadPayload)
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	c := NewClient(addr, 200*time.Millisecond, nil)
	err := c.Ping(context.Background(), "categorias.php")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAmount(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
		N Int    `json:"n"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"7.25","c":null,"n":"42"}`), &v))
	assert.Equal(t, 12.5, v.A.Float())
	assert.Equal(t, 7.25, v.B.Float())
	assert.Zero(t, v.C)
	assert.Equal(t, Int(42), v.N)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"abc"}`), &v))
}

func TestInt(t *testing.T) {
	ok := map[string]Int{
		`9007199254740993`:   9007199254740993,
		`"9007199254740993"`: 9007199254740993,
		`" 17 "`:             17,
		`"12.00"`:            12,
		`-3`:                 -3,
		`""`:                 0,
		`null`:               0,
	}
	for in, want := range ok {
		var n Int
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Equal(t, want, n, in)
	}

	for _, in := range []string{`"12.9"`, `12.5`, `"abc"`, `1e300`} {
		var n Int
		err := json.Unmarshal([]byte(in), &n)
		assert.ErrorIs(t, err, ErrBadPayload, in)
	}
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{&RejectedError{Message: "x"}, http.StatusUnprocessableEntity},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{ErrBadStatus, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil, "test", tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}
