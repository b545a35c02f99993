package cart

import (
	"context"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
)

//go:generate mockgen -source repo_port.go -destination mock_repo_port.go -package cart

type CartRepo interface {
	// GetCart returns an empty cart for owners that have none.
	GetCart(ctx context.Context, owner string) (Cart, error)
	SaveCart(ctx context.Context, c Cart) error
	DeleteCart(ctx context.Context, owner string) error
}

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type OrderPlacer interface {
	Checkout(ctx context.Context, actor user.Actor, req order.CheckoutRequest) (order.Order, error)
}
