package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"BakeryStore/internal/domain/order"
)

// Audience is who a notification is meant for.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceStaff    Audience = "staff"
	AudienceRider    Audience = "rider"
)

type Notification struct {
	OrderID  string          `json:"order_id"`
	EventID  string          `json:"event_id"`
	Kind     order.EventKind `json:"kind"`
	Audience Audience        `json:"audience"`
	Message  string          `json:"message"`
}

//go:generate mockgen -source notification.go -destination mock_notification.go -package notification

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Render turns an order event into user-facing notifications. Events nobody needs to hear about yield none.
func Render(event order.OrderEvent) ([]Notification, error) {
	base := Notification{OrderID: event.OrderID, EventID: event.EventID, Kind: event.Kind}
	with := func(audience Audience, format string, args ...any) Notification {
		n := base
		n.Audience = audience
		n.Message = fmt.Sprintf(format, args...)
		return n
	}

	switch event.Kind {
	case order.EventOrderCreated:
		var data order.OrderCreatedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", event.Kind, err)
		}
		return []Notification{
			with(AudienceCustomer, "Order %s placed: %s, total %s.", event.OrderID, data.Items, data.Total),
			with(AudienceStaff, "New %s order %s for %s.", data.DeliveryMethod, event.OrderID, data.Vendor),
		}, nil

	case order.EventStatusChanged:
		var data order.StatusChangedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", event.Kind, err)
		}
		return []Notification{with(AudienceCustomer, "Order %s is now %s.", event.OrderID, data.To)}, nil

	case order.EventHandoffVerified:
		var data order.StatusChangedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", event.Kind, err)
		}
		return []Notification{
			with(AudienceCustomer, "Order %s %s. Enjoy!", event.OrderID, handoffVerb(data.To)),
			with(AudienceStaff, "Order %s handed off (%s).", event.OrderID, data.To),
		}, nil

	case order.EventHandlerAssigned:
		var data order.HandlerAssignedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", event.Kind, err)
		}
		if data.To == order.Unassigned {
			return []Notification{with(AudienceStaff, "Order %s is back in the task pool.", event.OrderID)}, nil
		}
		return []Notification{with(AudienceRider, "%s accepted order %s.", data.To, event.OrderID)}, nil

	case order.EventVerificationFailed:
		return []Notification{with(AudienceStaff, "Invalid OTP code submitted for order %s by %s.", event.OrderID, event.Actor)}, nil
	}
	return nil, nil
}

func handoffVerb(status order.Status) string {
	if status == order.StatusPickedUp {
		return "was picked up"
	}
	return "was delivered"
}
