package catalog

import "context"

//go:generate mockgen -source repo_port.go -destination mock_repo_port.go -package catalog

type ProductRepo interface {
	GetProducts(ctx context.Context, query ProductsQuery) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) error
	// UpdateProduct overwrites the catalog fields and the deleted flag. It never writes stock.
	UpdateProduct(ctx context.Context, p Product) error
	// SetStock sets the absolute stock value. Returns ErrNotFound for unknown ids.
	SetStock(ctx context.Context, productID string, stock int) error
}
