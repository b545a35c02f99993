package order_eventsink

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"BakeryStore/internal/domain/order"
	"BakeryStore/pkg/postgres"
)

var eventColumns = []string{"id", "order_id", "kind", "actor", "actor_role", "data", "created_at"}

type PgOrderEventRepo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ order.EventSink = (*PgOrderEventRepo)(nil)

func NewPgOrderEventRepo(db postgres.Executor, builder squirrel.StatementBuilderType) *PgOrderEventRepo {
	return &PgOrderEventRepo{
		db:      db,
		builder: builder,
	}
}

func (r *PgOrderEventRepo) CreateOrderEvent(ctx context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	id := uuid.New().String()

	data := event.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	query, args, err := r.builder.Insert("order_events").
		Columns(eventColumns...).
		Values(id, event.OrderID, event.Kind, event.Actor, event.ActorRole, []byte(data), event.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create order event: %w", err)
	}

	return &order.OrderEvent{
		EventID:       id,
		NewOrderEvent: event,
	}, nil
}

func (r *PgOrderEventRepo) GetOrderEvents(ctx context.Context, query order.OrderEventQuery) (order.OrderEventPage, error) {
	query.Limit = query.NormalizeLimit()

	sqlQuery, args, err := r.buildOrderEventPageQuery(query)
	if err != nil {
		return order.OrderEventPage{}, err
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()

	items, err := parseOrderEventRows(rows)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("parse order events: %w", err)
	}

	hasMore := len(items) > query.Limit
	if hasMore {
		items = items[:query.Limit] // the extra row only signals that another page exists
	}

	var nextCursor string
	if hasMore {
		last := items[len(items)-1]
		nextCursor = order.EventCursor{EventID: last.EventID, CreatedAt: last.CreatedAt}.Encode()
	}

	return order.OrderEventPage{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// SELECT ... FROM order_events
// WHERE
//
//	order_id IN @OrderIDs
//	AND kind IN @Kinds
//	AND created_at >= @TimeFrom
//	AND created_at < @TimeTo
//	AND (created_at, id) < (@cursor.CreatedAt, @cursor.EventID)
//
// ORDER BY created_at DESC/ASC, id DESC/ASC
// LIMIT @Limit+1
func (r *PgOrderEventRepo) buildOrderEventPageQuery(q order.OrderEventQuery) (string, []interface{}, error) {
	b := r.builder.Select(eventColumns...).From("order_events")

	if len(q.OrderIDs) > 0 {
		b = b.Where(squirrel.Eq{"order_id": q.OrderIDs})
	}
	if len(q.Kinds) > 0 {
		b = b.Where(squirrel.Eq{"kind": q.Kinds})
	}
	if q.TimeFrom != nil {
		b = b.Where("created_at >= ?", q.TimeFrom.UTC())
	}
	if q.TimeTo != nil {
		b = b.Where("created_at < ?", q.TimeTo.UTC())
	}

	if q.Cursor != "" {
		cursor, err := order.DecodeEventCursor(q.Cursor)
		if err != nil {
			return "", nil, err
		}
		if q.SortAsc {
			b = b.Where("(created_at, id) > (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		} else {
			b = b.Where("(created_at, id) < (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		}
	}

	if q.SortAsc {
		b = b.OrderBy("created_at ASC", "id ASC")
	} else {
		b = b.OrderBy("created_at DESC", "id DESC")
	}

	sql, args, err := b.Limit(uint64(q.Limit + 1)).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build order event query: %w", err)
	}
	return sql, args, nil
}

func parseOrderEventRows(rows pgx.Rows) ([]order.OrderEvent, error) {
	events := make([]order.OrderEvent, 0)
	for rows.Next() {
		var (
			e       order.OrderEvent
			rawKind string
			data    []byte
		)
		err := rows.Scan(&e.EventID, &e.OrderID, &rawKind, &e.Actor, &e.ActorRole, &data, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order event row: %w", err)
		}

		e.Kind = order.EventKind(rawKind)
		e.Data = data
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order event rows: %w", err)
	}

	return events, nil
}
