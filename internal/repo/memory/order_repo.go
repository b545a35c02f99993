package memory

import (
	"context"
	"sort"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/pkg/pointers"
)

type OrderRepo struct {
	store *Store
}

var _ order.OrderRepo = (*OrderRepo)(nil)

func NewOrderRepo(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func (r *OrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return r.store.run(ctx, func(t *tx) error {
		return fn(&txOrderRepo{tx: t})
	})
}

func (r *OrderRepo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	var orders []order.Order
	err := r.store.run(ctx, func(t *tx) error {
		var err error
		orders, err = (&txOrderRepo{tx: t}).GetOrders(ctx, query)
		return err
	})
	return orders, err
}

// GetOrderForUpdate outside a transaction releases the lock right away.
func (r *OrderRepo) GetOrderForUpdate(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	err := r.store.run(ctx, func(t *tx) error {
		var err error
		o, err = (&txOrderRepo{tx: t}).GetOrderForUpdate(ctx, id)
		return err
	})
	return o, err
}

func (r *OrderRepo) CreateOrder(ctx context.Context, o order.Order) error {
	return r.InTransaction(ctx, func(repo order.TxOrderRepo) error {
		return repo.CreateOrder(ctx, o)
	})
}

func (r *OrderRepo) UpdateOrder(ctx context.Context, o order.Order) error {
	return r.InTransaction(ctx, func(repo order.TxOrderRepo) error {
		return repo.UpdateOrder(ctx, o)
	})
}

func (r *OrderRepo) ReserveStock(ctx context.Context, productID string, quantity int) error {
	return r.InTransaction(ctx, func(repo order.TxOrderRepo) error {
		return repo.ReserveStock(ctx, productID, quantity)
	})
}

type txOrderRepo struct {
	tx *tx
}

func (r *txOrderRepo) GetOrders(_ context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	if query == nil {
		query = &order.OrdersQuery{}
	}

	s := r.tx.store
	s.mu.RLock()
	result := make([]order.Order, 0)
	for id, o := range s.state.Orders {
		if staged, ok := r.tx.orders[id]; ok {
			o = staged
		}
		if query.Matches(o) {
			result = append(result, cloneOrder(o))
		}
	}
	s.mu.RUnlock()
	for id, o := range r.tx.orders {
		if r.tx.created[id] && query.Matches(o) {
			result = append(result, cloneOrder(o))
		}
	}

	sortOrders(result, query)
	return paginate(result, query.Pagination), nil
}

func (r *txOrderRepo) GetOrderForUpdate(ctx context.Context, id string) (order.Order, error) {
	if err := r.tx.lock(ctx, orderKey(id)); err != nil {
		return order.Order{}, err
	}
	o, ok := r.tx.order(id)
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (r *txOrderRepo) CreateOrder(ctx context.Context, o order.Order) error {
	if err := r.tx.lock(ctx, orderKey(o.ID)); err != nil {
		return err
	}
	r.tx.orders[o.ID] = cloneOrder(o)
	r.tx.created[o.ID] = true
	return nil
}

func (r *txOrderRepo) UpdateOrder(ctx context.Context, o order.Order) error {
	if err := r.tx.lock(ctx, orderKey(o.ID)); err != nil {
		return err
	}
	if _, ok := r.tx.order(o.ID); !ok {
		return order.ErrNotFound
	}
	r.tx.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *txOrderRepo) ReserveStock(ctx context.Context, productID string, quantity int) error {
	if err := r.tx.lock(ctx, productKey(productID)); err != nil {
		return err
	}
	p, ok := r.tx.product(productID)
	if !ok || p.Deleted {
		return catalog.ErrNotFound
	}
	reserved, err := catalog.Reserve(p, quantity)
	if err != nil {
		return err
	}
	r.tx.products[productID] = reserved
	return nil
}

func sortOrders(orders []order.Order, query *order.OrdersQuery) {
	byUpdated := pointers.Deref(query.SortBy, "created_at") == "updated_at"
	asc := pointers.Deref(query.SortOrder, "desc") == "asc"

	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].CreatedAt, orders[j].CreatedAt
		if byUpdated {
			a, b = orders[i].UpdatedAt, orders[j].UpdatedAt
		}
		if a.Equal(b) {
			if asc {
				return orders[i].ID < orders[j].ID
			}
			return orders[i].ID > orders[j].ID
		}
		if asc {
			return a.Before(b)
		}
		return a.After(b)
	})
}

func paginate(orders []order.Order, p *order.Pagination) []order.Order {
	if p == nil {
		return orders
	}
	start := (p.PageNumber - 1) * p.PageSize
	if start >= len(orders) {
		return []order.Order{}
	}
	end := start + p.PageSize
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}
