package catalog

import (
	"context"
	"fmt"
	"strings"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/ids"
	"BakeryStore/pkg/logger"
)

// LedgerService owns the catalog and the per-product available quantity.
type LedgerService struct {
	repo   ProductRepo
	logger *logger.Logger
}

func NewLedgerService(repo ProductRepo, l *logger.Logger) *LedgerService {
	return &LedgerService{repo: repo, logger: l}
}

func (s *LedgerService) GetProduct(ctx context.Context, id string) (Product, error) {
	return getProductByID(ctx, s.repo, id, false)
}

func getProductByID(ctx context.Context, repo ProductRepo, id string, includeDeleted bool) (Product, error) {
	products, err := repo.GetProducts(ctx, ProductsQuery{IDs: []string{id}, IncludeDeleted: includeDeleted})
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	if len(products) == 0 {
		return Product{}, ErrNotFound
	}
	return products[0], nil
}

func (s *LedgerService) ListProducts(ctx context.Context, query ProductsQuery) ([]Product, error) {
	products, err := s.repo.GetProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// AvailableStock reports the current stock of a visible product.
func (s *LedgerService) AvailableStock(ctx context.Context, productID string) (int, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Stock, nil
}

// LowStock lists visible products with stock strictly below threshold.
func (s *LedgerService) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	products, err := s.ListProducts(ctx, ProductsQuery{})
	if err != nil {
		return nil, err
	}
	var low []Product
	for _, p := range products {
		if p.Stock < threshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *LedgerService) CreateProduct(ctx context.Context, actor user.Actor, req CreateProductRequest) (Product, error) {
	if !actor.Role.IsStaff() {
		return Product{}, ErrForbidden
	}

	id, err := ids.New("PRD-")
	if err != nil {
		return Product{}, fmt.Errorf("generate product id: %w", err)
	}

	vendor := strings.TrimSpace(req.Vendor)
	if actor.Role == user.RoleVendor || vendor == "" {
		vendor = actor.Name
	}

	p := Product{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Stock:       req.Stock,
		Vendor:      vendor,
		Occasion:    req.Occasion,
		BreadType:   req.BreadType,
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.Ctx(ctx).Info("Product created: product_id=%s vendor=%s stock=%d", p.ID, p.Vendor, p.Stock)
	return p, nil
}

func (s *LedgerService) UpdateProduct(ctx context.Context, actor user.Actor, id string, req UpdateProductRequest) (Product, error) {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return Product{}, err
	}

	updated := req.apply(p)
	if err := updated.Validate(); err != nil {
		return Product{}, err
	}

	if err := s.repo.UpdateProduct(ctx, updated); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	// stock may have moved since the read above
	return getProductByID(ctx, s.repo, id, false)
}

// Restock sets the absolute available quantity. It is not a delta.
func (s *LedgerService) Restock(ctx context.Context, actor user.Actor, id string, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", apperror.ErrValidation)
	}

	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return Product{}, err
	}

	if err := s.repo.SetStock(ctx, p.ID, stock); err != nil {
		return Product{}, fmt.Errorf("set stock: %w", err)
	}

	s.logger.Ctx(ctx).Info("Product restocked: product_id=%s from=%d to=%d by=%s", p.ID, p.Stock, stock, actor.Name)
	p.Stock = stock
	return p, nil
}

// DeleteProduct hides the product from the catalog. Orders keep their own copies of it.
func (s *LedgerService) DeleteProduct(ctx context.Context, actor user.Actor, id string) error {
	p, err := s.ownedProduct(ctx, actor, id)
	if err != nil {
		return err
	}

	p.Deleted = true
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.Ctx(ctx).Info("Product deleted: product_id=%s by=%s", p.ID, actor.Name)
	return nil
}

func (s *LedgerService) ownedProduct(ctx context.Context, actor user.Actor, id string) (Product, error) {
	if !actor.Role.IsStaff() {
		return Product{}, ErrForbidden
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if actor.Role == user.RoleVendor && p.Vendor != actor.Name {
		return Product{}, ErrNotOwner
	}
	return p, nil
}
