package order_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/pkg/pointers"
	"BakeryStore/pkg/postgres"
)

var orderColumns = []string{
	"id", "customer_id", "customer", "lines", "items", "total", "vendor", "phone_number", "address", "location",
	"delivery_method", "status", "assigned_to", "verification_code", "submitted_code", "created_at", "updated_at", "version",
}

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	pg *postgres.Postgres
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return &PgOrderRepo{
		pg:   pg,
		repo: repo{db: pg.Pool, builder: pg.Builder},
	}
}

func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(repo order.TxOrderRepo) error) error {
	return r.pg.InTransaction(ctx, func(tx postgres.Executor) error {
		txRepo := &repo{db: tx, builder: r.pg.Builder}
		return fn(txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	if query == nil {
		query = &order.OrdersQuery{}
	}
	sql, args, err := r.buildOrdersQuery(query).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	return parseOrderRows(rows)
}

func (r *repo) GetOrderForUpdate(ctx context.Context, id string) (order.Order, error) {
	sql, args, err := r.builder.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build select for update query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return order.Order{}, fmt.Errorf("lock order: %w", err)
	}
	defer rows.Close()

	orders, err := parseOrderRows(rows)
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, order.ErrNotFound
	}
	return orders[0], nil
}

func (r *repo) CreateOrder(ctx context.Context, o order.Order) error {
	values, err := orderValues(o)
	if err != nil {
		return err
	}
	sql, args, err := r.builder.Insert("orders").
		Columns(orderColumns...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, sql, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("create order %s: id already used", o.ID)
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// UpdateOrder writes the mutable columns. Lines, totals and the verification code never change after checkout.
func (r *repo) UpdateOrder(ctx context.Context, o order.Order) error {
	sql, args, err := r.builder.Update("orders").
		Set("status", o.Status).
		Set("assigned_to", o.AssignedTo).
		Set("submitted_code", o.SubmittedCode).
		Set("updated_at", o.UpdatedAt).
		Set("version", o.Version).
		Where(squirrel.Eq{"id": o.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ReserveStock decrements stock only while enough is left, so concurrent checkouts never oversell.
func (r *repo) ReserveStock(ctx context.Context, productID string, quantity int) error {
	sql, args, err := r.builder.Update("products").
		Set("stock", squirrel.Expr("stock - ?", quantity)).
		Where(squirrel.Eq{"id": productID, "deleted": false}).
		Where(squirrel.GtOrEq{"stock": quantity}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reserve query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		name  string
		stock int
	)
	sql, args, err = r.builder.Select("name", "stock").
		From("products").
		Where(squirrel.Eq{"id": productID, "deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build stock query: %w", err)
	}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&name, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read stock: %w", err)
	}
	return &catalog.CapacityError{
		ProductID:   productID,
		ProductName: name,
		InBasket:    quantity,
		Requested:   quantity,
		Available:   stock,
	}
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) squirrel.SelectBuilder {
	query := r.builder.Select(orderColumns...).From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}
	if len(q.CustomerIDs) > 0 {
		query = query.Where(squirrel.Eq{"customer_id": q.CustomerIDs})
	}
	if len(q.Vendors) > 0 {
		query = query.Where(squirrel.Eq{"vendor": q.Vendors})
	}
	if len(q.AssignedTo) > 0 {
		query = query.Where(squirrel.Eq{"assigned_to": q.AssignedTo})
	}
	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": q.Statuses})
	}
	if len(q.DeliveryMethods) > 0 {
		query = query.Where(squirrel.Eq{"delivery_method": q.DeliveryMethods})
	}

	sortBy, sortOrder := pointers.Deref(q.SortBy, "created_at"), "DESC"
	if pointers.Deref(q.SortOrder, "desc") == "asc" {
		sortOrder = "ASC"
	}
	query = query.OrderBy(fmt.Sprintf("%s %s", sortBy, sortOrder), "id "+sortOrder)

	if q.Pagination != nil {
		offset := (q.Pagination.PageNumber - 1) * q.Pagination.PageSize
		query = query.Limit(uint64(q.Pagination.PageSize)).Offset(uint64(offset))
	}
	return query
}

func orderValues(o order.Order) ([]interface{}, error) {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode order lines: %w", err)
	}
	var location []byte
	if o.Location != nil {
		if location, err = json.Marshal(o.Location); err != nil {
			return nil, fmt.Errorf("encode order location: %w", err)
		}
	}
	return []interface{}{
		o.ID, o.CustomerID, o.Customer, lines, o.Items, o.Total, o.Vendor, o.PhoneNumber, o.Address, location,
		o.DeliveryMethod, o.Status, o.AssignedTo, o.VerificationCode, o.SubmittedCode, o.CreatedAt, o.UpdatedAt, o.Version,
	}, nil
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		var (
			o                    order.Order
			lines, location      []byte
			rawMethod, rawStatus string
		)
		err := rows.Scan(&o.ID, &o.CustomerID, &o.Customer, &lines, &o.Items, &o.Total, &o.Vendor, &o.PhoneNumber,
			&o.Address, &location, &rawMethod, &rawStatus, &o.AssignedTo, &o.VerificationCode, &o.SubmittedCode,
			&o.CreatedAt, &o.UpdatedAt, &o.Version)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("decode order lines: %w", err)
		}
		if len(location) > 0 {
			o.Location = &order.Location{}
			if err := json.Unmarshal(location, o.Location); err != nil {
				return nil, fmt.Errorf("decode order location: %w", err)
			}
		}
		if o.DeliveryMethod, err = order.NewDeliveryMethod(rawMethod); err != nil {
			return nil, fmt.Errorf("invalid delivery method in database: %w", err)
		}
		if o.Status, err = order.NewStatus(rawStatus); err != nil {
			return nil, fmt.Errorf("invalid status in database: %w", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
