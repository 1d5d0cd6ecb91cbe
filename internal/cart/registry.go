package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSweepEvery = time.Minute

// Registry owns one Store per client session and drops the ones that have
// been idle for longer than the TTL. A store that changed since the previous
// sweep counts as active even if nobody looked it up, so a handler still
// holding it does not write into an evicted cart.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time

	metrics *Metrics
	log     *zap.Logger
}

type session struct {
	store    *Store
	lastSeen time.Time
	version  uint64 // store version seen by the previous sweep
	unsub    func()
}

func NewRegistry(ttl time.Duration, m *Metrics, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
		log:      log,
	}
}

func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the store for id if the session is still alive.
func (r *Registry) Get(id string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = r.now()
	return sess.store, true
}

// Open returns the store for id, creating an empty one when needed.
func (r *Registry) Open(id string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		sess.lastSeen = r.now()
		return sess.store
	}

	st := NewStore()
	sess := &session{store: st, lastSeen: r.now()}
	if r.metrics != nil {
		sess.unsub = st.Subscribe(r.metrics.observe)
	}
	r.sessions[id] = sess
	r.metrics.setSessions(len(r.sessions))
	return st
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.ttl)
	n := 0
	for id, sess := range r.sessions {
		if v := sess.store.Version(); v != sess.version {
			sess.version = v
			sess.lastSeen = now
			continue
		}
		if sess.lastSeen.After(cutoff) {
			continue
		}
		if sess.unsub != nil {
			sess.unsub()
		}
		delete(r.sessions, id)
		n++
	}
	r.metrics.setSessions(len(r.sessions))
	return n
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = defaultSweepEvery
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info("cart sessions expired", zap.Int("count", n), zap.Int("active", r.Len()))
			}
		}
	}
}
