package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"BakeryStore/internal/domain/order"
)

type EventSink struct {
	store *Store
}

var _ order.EventSink = (*EventSink)(nil)

func NewEventSink(store *Store) *EventSink {
	return &EventSink{store: store}
}

func (s *EventSink) CreateOrderEvent(_ context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	stored := order.OrderEvent{
		EventID:       uuid.New().String(),
		NewOrderEvent: event,
	}
	err := s.store.mutate(func(st *State) error {
		st.Events = append(st.Events, stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *EventSink) GetOrderEvents(_ context.Context, query order.OrderEventQuery) (order.OrderEventPage, error) {
	limit := query.NormalizeLimit()

	var cursor *order.EventCursor
	if query.Cursor != "" {
		c, err := order.DecodeEventCursor(query.Cursor)
		if err != nil {
			return order.OrderEventPage{}, err
		}
		cursor = &c
	}

	s.store.mu.RLock()
	var items []order.OrderEvent
	for _, e := range s.store.state.Events {
		if !query.Matches(e) {
			continue
		}
		if cursor != nil && !cursor.After(e, query.SortAsc) {
			continue
		}
		items = append(items, e)
	}
	s.store.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if query.SortAsc {
				return a.EventID < b.EventID
			}
			return a.EventID > b.EventID
		}
		if query.SortAsc {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore {
		last := items[len(items)-1]
		nextCursor = order.EventCursor{EventID: last.EventID, CreatedAt: last.CreatedAt}.Encode()
	}
	if items == nil {
		items = []order.OrderEvent{}
	}

	return order.OrderEventPage{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
