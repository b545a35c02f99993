package order

import "context"

//go:generate mockgen -source order_repo.go -destination mock_order_repo.go -package order

type OrderRepo interface {
	TxOrderRepo
	InTransaction(ctx context.Context, fn func(repo TxOrderRepo) error) error
}

type TxOrderRepo interface {
	GetOrders(ctx context.Context, query *OrdersQuery) ([]Order, error)
	// GetOrderForUpdate loads the order and holds its lock until the transaction ends.
	GetOrderForUpdate(ctx context.Context, id string) (Order, error)

	CreateOrder(ctx context.Context, order Order) error
	UpdateOrder(ctx context.Context, order Order) error

	// ReserveStock decrements a product's stock. It fails with catalog.ErrNotFound or a
	// *catalog.CapacityError and never leaves stock negative.
	ReserveStock(ctx context.Context, productID string, quantity int) error
}
