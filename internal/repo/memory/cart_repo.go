package memory

import (
	"context"

	"BakeryStore/internal/domain/cart"
)

type CartRepo struct {
	store *Store
}

var _ cart.CartRepo = (*CartRepo)(nil)

func NewCartRepo(store *Store) *CartRepo {
	return &CartRepo{store: store}
}

func (r *CartRepo) GetCart(_ context.Context, owner string) (cart.Cart, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.state.Carts[owner]
	if !ok {
		return cart.Cart{Owner: owner}, nil
	}
	return cloneCart(c), nil
}

func (r *CartRepo) SaveCart(_ context.Context, c cart.Cart) error {
	return r.store.mutate(func(st *State) error {
		st.Carts[c.Owner] = cloneCart(c)
		return nil
	})
}

func (r *CartRepo) DeleteCart(_ context.Context, owner string) error {
	return r.store.mutate(func(st *State) error {
		delete(st.Carts, owner)
		return nil
	})
}
