package memory

import (
	"context"
	"fmt"
	"sort"

	"BakeryStore/internal/domain/catalog"
)

type ProductRepo struct {
	store *Store
}

var _ catalog.ProductRepo = (*ProductRepo)(nil)

func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) GetProducts(_ context.Context, query catalog.ProductsQuery) ([]catalog.Product, error) {
	r.store.mu.RLock()
	products := make([]catalog.Product, 0, len(r.store.state.Products))
	for _, p := range r.store.state.Products {
		if query.Matches(p) {
			products = append(products, p)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (r *ProductRepo) CreateProduct(ctx context.Context, p catalog.Product) error {
	return r.withProductLock(ctx, p.ID, func(st *State) error {
		if _, exists := st.Products[p.ID]; exists {
			return fmt.Errorf("create product %s: id already used", p.ID)
		}
		st.Products[p.ID] = p
		return nil
	})
}

// UpdateProduct merges the edit onto the stored product. Stock keeps its stored value.
func (r *ProductRepo) UpdateProduct(ctx context.Context, p catalog.Product) error {
	return r.withProductLock(ctx, p.ID, func(st *State) error {
		stored, exists := st.Products[p.ID]
		if !exists {
			return catalog.ErrNotFound
		}
		p.Stock = stored.Stock
		st.Products[p.ID] = p
		return nil
	})
}

func (r *ProductRepo) SetStock(ctx context.Context, productID string, stock int) error {
	return r.withProductLock(ctx, productID, func(st *State) error {
		p, exists := st.Products[productID]
		if !exists {
			return catalog.ErrNotFound
		}
		p.Stock = stock
		st.Products[productID] = p
		return nil
	})
}

// withProductLock serializes catalog writes with checkout reservations of the same product.
func (r *ProductRepo) withProductLock(ctx context.Context, id string, fn func(st *State) error) error {
	unlock, err := r.store.locks.Lock(ctx, productKey(id))
	if err != nil {
		return fmt.Errorf("lock product %s: %w", id, err)
	}
	defer unlock()
	return r.store.mutate(fn)
}
