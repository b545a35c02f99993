package order

import (
	"context"
	"encoding/json"
	"time"
)

//go:generate mockgen -source event_sink.go -destination mock_event_sink.go -package order

type EventSink interface {
	CreateOrderEvent(ctx context.Context, event NewOrderEvent) (*OrderEvent, error)
	GetOrderEvents(ctx context.Context, query OrderEventQuery) (OrderEventPage, error)
}

type OrderEvent struct {
	EventID string `json:"event_id"`
	NewOrderEvent
}

type NewOrderEvent struct {
	OrderID   string          `json:"order_id"`
	Kind      EventKind       `json:"kind"`
	Actor     string          `json:"actor"`
	ActorRole string          `json:"actor_role"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

type EventKind string

const (
	EventOrderCreated       EventKind = "order_created"
	EventStatusChanged      EventKind = "status_changed"
	EventHandlerAssigned    EventKind = "handler_assigned"
	EventHandoffVerified    EventKind = "handoff_verified"
	EventVerificationFailed EventKind = "verification_failed"
	EventUpdateRejected     EventKind = "update_rejected"
)

type OrderEventPage struct {
	Items      []OrderEvent `json:"items"`
	NextCursor string       `json:"next_cursor"`
	HasMore    bool         `json:"has_more"`
}

type OrderEventQuery struct {
	OrderIDs []string    `json:"order_ids" url:"-" form:"-"`
	Kinds    []EventKind `json:"kinds" url:"kinds,omitempty" form:"kinds"`

	TimeFrom *time.Time `json:"time_from,omitempty" url:"time_from,omitempty" form:"time_from"`
	TimeTo   *time.Time `json:"time_to,omitempty" url:"time_to,omitempty" form:"time_to"`

	Limit   int    `json:"limit" url:"limit,omitempty" form:"limit" binding:"omitempty,min=0,max=1000"`
	Cursor  string `json:"cursor" url:"cursor,omitempty" form:"cursor"`
	SortAsc bool   `json:"sort_asc" url:"sort_asc,omitempty" form:"sort_asc"`
}

type StatusChangedData struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

type HandlerAssignedData struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type OrderCreatedData struct {
	Items          string         `json:"items"`
	Total          string         `json:"total"`
	Vendor         string         `json:"vendor"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
}

// RejectionData never carries submitted codes.
type RejectionData struct {
	Status Status  `json:"status"`
	Reason string  `json:"reason"`
	Result Outcome `json:"outcome"`
}
