package order

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

const (
	DefaultEventPageSize = 10
	MaxEventPageSize     = 1000
)

// EventCursor points at the last event of a page; the next page starts strictly after it.
type EventCursor struct {
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (c EventCursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeEventCursor(s string) (EventCursor, error) {
	var c EventCursor
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("%w: malformed cursor", ErrInvalidQuery)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%w: malformed cursor", ErrInvalidQuery)
	}
	return c, nil
}

// After reports whether e sorts after the cursor in the requested direction.
func (c EventCursor) After(e OrderEvent, asc bool) bool {
	if !e.CreatedAt.Equal(c.CreatedAt) {
		return e.CreatedAt.After(c.CreatedAt) == asc
	}
	if asc {
		return e.EventID > c.EventID
	}
	return e.EventID < c.EventID
}

// NormalizeLimit clamps the page size into [1, MaxEventPageSize].
func (q OrderEventQuery) NormalizeLimit() int {
	if q.Limit <= 0 {
		return DefaultEventPageSize
	}
	if q.Limit > MaxEventPageSize {
		return MaxEventPageSize
	}
	return q.Limit
}

// Matches applies the filters of the query, cursor excluded.
func (q OrderEventQuery) Matches(e OrderEvent) bool {
	if len(q.OrderIDs) > 0 && !slices.Contains(q.OrderIDs, e.OrderID) {
		return false
	}
	if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, e.Kind) {
		return false
	}
	if q.TimeFrom != nil && e.CreatedAt.Before(*q.TimeFrom) {
		return false
	}
	if q.TimeTo != nil && !e.CreatedAt.Before(*q.TimeTo) {
		return false
	}
	return true
}

