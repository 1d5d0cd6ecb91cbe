package cart

import "sync"

// Product is what a view hands to AddItem.
type Product struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Image    string   `json:"image"`
	Category string   `json:"category"`
	Features []string `json:"features,omitempty"`
}

type LineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Snapshot is a consistent view of a cart at one version.
type Snapshot struct {
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
	Version   uint64     `json:"-"`
}

type Listener func(Snapshot)

// MaxLineQuantity caps the quantity of a single line. AddItem on a full line
// is a no-op and UpdateQuantity clamps to it.
const MaxLineQuantity = 1_000_000

// Store holds the line items of one cart. Total and ItemCount are derived
// from the items on every read. Listeners are called synchronously, before
// the mutating call returns, and never see an older snapshot after a newer one.
// A listener may read the store or unsubscribe but must not mutate it.
type Store struct {
	mu      sync.Mutex
	order   []int64
	items   map[int64]*LineItem
	version uint64

	notifyMu  sync.Mutex
	delivered uint64

	subsMu  sync.Mutex
	nextSub int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn Listener
}

func NewStore() *Store {
	return &Store{
		items: make(map[int64]*LineItem),
	}
}

func (s *Store) AddItem(p Product) {
	s.mu.Lock()
	if it, ok := s.items[p.ID]; ok {
		if it.Quantity >= MaxLineQuantity {
			s.mu.Unlock()
			return
		}
		it.Quantity++
	} else {
		p.Features = cloneStrings(p.Features)
		s.items[p.ID] = &LineItem{Product: p, Quantity: 1}
		s.order = append(s.order, p.ID)
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.deliver(snap)
}

func (s *Store) RemoveItem(id int64) {
	s.mu.Lock()
	if !s.removeLocked(id) {
		s.mu.Unlock()
		return
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.deliver(snap)
}

// UpdateQuantity sets the quantity of id to exactly qty. A non-positive qty
// removes the item.
func (s *Store) UpdateQuantity(id int64, qty int) {
	if qty <= 0 {
		s.RemoveItem(id)
		return
	}
	qty = min(qty, MaxLineQuantity)

	s.mu.Lock()
	it, ok := s.items[id]
	if !ok || it.Quantity == qty {
		s.mu.Unlock()
		return
	}
	it.Quantity = qty
	snap := s.commitLocked()
	s.mu.Unlock()

	s.deliver(snap)
}

func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.order) == 0 {
		s.mu.Unlock()
		return
	}
	s.order = s.order[:0]
	s.items = make(map[int64]*LineItem)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.deliver(snap)
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

// Quantity returns the quantity of id, zero when absent.
func (s *Store) Quantity(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok {
		return it.Quantity
	}
	return 0
}

// Version counts effective changes since the store was created.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state change and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) removeLocked(id int64) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) commitLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:     s.itemsLocked(),
		Total:     s.totalLocked(),
		ItemCount: s.countLocked(),
		Version:   s.version,
	}
}

func (s *Store) itemsLocked() []LineItem {
	out := make([]LineItem, 0, len(s.order))
	for _, id := range s.order {
		it := *s.items[id]
		it.Features = cloneStrings(it.Features)
		out = append(out, it)
	}
	return out
}

func (s *Store) totalLocked() float64 {
	var total float64
	for _, id := range s.order {
		it := s.items[id]
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (s *Store) countLocked() int {
	n := 0
	for _, id := range s.order {
		n += s.items[id].Quantity
	}
	return n
}

// deliver runs outside s.mu so listeners may read the store.
func (s *Store) deliver(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version

	s.subsMu.Lock()
	subs := s.subs
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
