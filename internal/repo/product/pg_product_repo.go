package product_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/pkg/postgres"
)

var productColumns = []string{
	"id", "name", "description", "price", "image", "category", "rating", "stock", "vendor", "occasion", "bread_type", "deleted",
}

type PgProductRepo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ catalog.ProductRepo = (*PgProductRepo)(nil)

func NewPgProductRepo(pg *postgres.Postgres) *PgProductRepo {
	return &PgProductRepo{db: pg.Pool, builder: pg.Builder}
}

func (r *PgProductRepo) GetProducts(ctx context.Context, q catalog.ProductsQuery) ([]catalog.Product, error) {
	query := r.builder.Select(productColumns...).From("products")

	if !q.IncludeDeleted {
		query = query.Where(squirrel.Eq{"deleted": false})
	}
	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}
	if len(q.Categories) > 0 {
		query = query.Where(squirrel.Eq{"category": q.Categories})
	}
	if len(q.Vendors) > 0 {
		query = query.Where(squirrel.Eq{"vendor": q.Vendors})
	}
	if q.Search != "" {
		needle := "%" + q.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"name": needle},
			squirrel.ILike{"description": needle},
		})
	}

	sql, args, err := query.OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build products query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return parseProductRows(rows)
}

func (r *PgProductRepo) CreateProduct(ctx context.Context, p catalog.Product) error {
	sql, args, err := r.builder.Insert("products").
		Columns(productColumns...).
		Values(p.ID, p.Name, p.Description, p.Price, p.Image, p.Category, p.Rating, p.Stock, p.Vendor,
			p.Occasion, p.BreadType, p.Deleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("create product %s: id already used", p.ID)
	}
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// UpdateProduct writes the catalog fields. Stock is left to SetStock and checkout reservations.
func (r *PgProductRepo) UpdateProduct(ctx context.Context, p catalog.Product) error {
	sql, args, err := r.builder.Update("products").
		SetMap(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
			"image":       p.Image,
			"category":    p.Category,
			"rating":      p.Rating,
			"vendor":      p.Vendor,
			"occasion":    p.Occasion,
			"bread_type":  p.BreadType,
			"deleted":     p.Deleted,
		}).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}
	return r.execOne(ctx, sql, args)
}

func (r *PgProductRepo) SetStock(ctx context.Context, productID string, stock int) error {
	sql, args, err := r.builder.Update("products").
		Set("stock", stock).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build stock query: %w", err)
	}
	return r.execOne(ctx, sql, args)
}

func (r *PgProductRepo) execOne(ctx context.Context, sql string, args []interface{}) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func parseProductRows(rows pgx.Rows) ([]catalog.Product, error) {
	products := make([]catalog.Product, 0)
	for rows.Next() {
		var (
			p                   catalog.Product
			category            string
			occasion, breadType *string
		)
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &category, &p.Rating, &p.Stock,
			&p.Vendor, &occasion, &breadType, &p.Deleted)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		p.Category = catalog.Category(category)
		if occasion != nil {
			o := catalog.Occasion(*occasion)
			p.Occasion = &o
		}
		if breadType != nil {
			b := catalog.BreadType(*breadType)
			p.BreadType = &b
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}
