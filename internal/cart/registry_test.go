package cart

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRegistry_OpenAndGet(t *testing.T) {
	r := NewRegistry(time.Hour, nil, zap.NewNop())

	_, ok := r.Get("missing")
	assert.False(t, ok)

	a := r.Open("a")
	a.AddItem(product(1, 10))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Same(t, a, r.Open("a"))
	assert.NotSame(t, a, r.Open("b"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SweepDropsIdle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(30*time.Minute, nil, zap.NewNop())
	r.now = clock.now

	r.Open("idle")
	r.Open("busy")

	clock.advance(20 * time.Minute)
	_, ok := r.Get("busy")
	require.True(t, ok)

	clock.advance(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok = r.Get("idle")
	assert.False(t, ok)
	_, ok = r.Get("busy")
	assert.True(t, ok)
}

func TestRegistry_SweepKeepsStoreChangedByHolder(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(time.Minute, nil, zap.NewNop())
	r.now = clock.now

	st := r.Open("a")
	clock.advance(5 * time.Minute)

	// a handler that fetched the store earlier keeps writing to it
	st.AddItem(product(1, 10))
	assert.Zero(t, r.Sweep())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, st, got)
	assert.Equal(t, 1, got.ItemCount())

	clock.advance(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
}

func TestRegistry_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewRegistry(time.Minute, m, zap.NewNop())
	r.now = clock.now

	st := r.Open("a")
	st.AddItem(product(1, 10))
	st.AddItem(product(1, 10))
	st.RemoveItem(99)
	r.Open("b")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Sessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations))

	clock.advance(2 * time.Minute)
	r.Sweep()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions), "a changed since the last sweep")

	clock.advance(2 * time.Minute)
	r.Sweep()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Sessions))

	// swept stores no longer report
	st.AddItem(product(2, 1))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations))
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry(time.Nanosecond, nil, zap.NewNop())
	r.Open("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
