// Package memory keeps the whole storefront in process memory.
// Writes are staged per transaction and become visible atomically on commit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/keylock"
)

// State is the full content of a store. Users are keyed by username, carts by owner id.
type State struct {
	Orders   map[string]order.Order     `json:"orders"`
	Products map[string]catalog.Product `json:"products"`
	Users    map[string]user.User       `json:"users"`
	Carts    map[string]cart.Cart       `json:"carts"`
	Events   []order.OrderEvent         `json:"events"`
}

func NewState() State {
	return State{
		Orders:   map[string]order.Order{},
		Products: map[string]catalog.Product{},
		Users:    map[string]user.User{},
		Carts:    map[string]cart.Cart{},
	}
}

func (s State) IsEmpty() bool {
	return len(s.Orders) == 0 && len(s.Products) == 0 && len(s.Users) == 0 &&
		len(s.Carts) == 0 && len(s.Events) == 0
}

func (s State) clone() State {
	c := NewState()
	for k, v := range s.Orders {
		c.Orders[k] = cloneOrder(v)
	}
	for k, v := range s.Products {
		c.Products[k] = v
	}
	for k, v := range s.Users {
		c.Users[k] = v
	}
	for k, v := range s.Carts {
		c.Carts[k] = cloneCart(v)
	}
	c.Events = append([]order.OrderEvent(nil), s.Events...)
	return c
}

func (s *State) fill() {
	if s.Orders == nil {
		s.Orders = map[string]order.Order{}
	}
	if s.Products == nil {
		s.Products = map[string]catalog.Product{}
	}
	if s.Users == nil {
		s.Users = map[string]user.User{}
	}
	if s.Carts == nil {
		s.Carts = map[string]cart.Cart{}
	}
}

// CommitHook receives a private copy of the state after every committed write.
type CommitHook func(State)

type Store struct {
	mu    sync.RWMutex
	state State
	locks *keylock.Locker

	// persistMu keeps hooks in commit order.
	persistMu sync.Mutex
	hooks     []CommitHook
}

func NewStore(initial State) *Store {
	initial.fill()
	return &Store{
		state: initial.clone(),
		locks: keylock.New(),
	}
}

// OnCommit registers a hook. Register hooks before serving traffic.
func (s *Store) OnCommit(h CommitHook) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.hooks = append(s.hooks, h)
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Restore replaces the whole content. Callers must make sure no transaction is running.
func (s *Store) Restore(st State) {
	st.fill()
	s.mu.Lock()
	s.state = st.clone()
	s.mu.Unlock()
}

// tx stages writes and holds key locks until it ends.
type tx struct {
	store *Store

	held    map[string]func()
	orders  map[string]order.Order
	created map[string]bool

	products map[string]catalog.Product
}

func (s *Store) begin() *tx {
	return &tx{
		store:    s,
		held:     map[string]func(){},
		orders:   map[string]order.Order{},
		created:  map[string]bool{},
		products: map[string]catalog.Product{},
	}
}

// run executes fn in a transaction and commits when it returns nil.
func (s *Store) run(ctx context.Context, fn func(t *tx) error) error {
	t := s.begin()
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	unlock, err := t.store.locks.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	t.held[key] = unlock
	return nil
}

func (t *tx) release() {
	for _, unlock := range t.held {
		unlock()
	}
	t.held = map[string]func(){}
}

func (t *tx) commit() error {
	s := t.store
	if len(t.orders) == 0 && len(t.products) == 0 {
		return nil
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	for id := range t.created {
		if _, exists := s.state.Orders[id]; exists {
			s.mu.Unlock()
			return fmt.Errorf("create order %s: id already used", id)
		}
	}
	for id, o := range t.orders {
		s.state.Orders[id] = o
	}
	for id, p := range t.products {
		s.state.Products[id] = p
	}
	var snapshot State
	if len(s.hooks) > 0 {
		snapshot = s.state.clone()
	}
	s.mu.Unlock()

	for _, h := range s.hooks {
		h(snapshot)
	}
	return nil
}

// mutate applies fn to the committed state and fires the hooks.
func (s *Store) mutate(fn func(st *State) error) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	var snapshot State
	if len(s.hooks) > 0 {
		snapshot = s.state.clone()
	}
	s.mu.Unlock()

	for _, h := range s.hooks {
		h(snapshot)
	}
	return nil
}

func (t *tx) order(id string) (order.Order, bool) {
	if o, ok := t.orders[id]; ok {
		return o, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	o, ok := t.store.state.Orders[id]
	return cloneOrder(o), ok
}

func (t *tx) product(id string) (catalog.Product, bool) {
	if p, ok := t.products[id]; ok {
		return p, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	p, ok := t.store.state.Products[id]
	return p, ok
}

func orderKey(id string) string   { return "order:" + id }
func productKey(id string) string { return "product:" + id }

func cloneOrder(o order.Order) order.Order {
	o.Lines = append([]order.LineItem(nil), o.Lines...)
	if o.Location != nil {
		loc := *o.Location
		o.Location = &loc
	}
	return o
}

func cloneCart(c cart.Cart) cart.Cart {
	c.Lines = append([]cart.Line(nil), c.Lines...)
	return c
}
