package order

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"BakeryStore/internal/domain/user"
)

// View selects which slice of orders a dashboard shows.
type View string

const (
	ViewDefault View = ""
	// ViewTasks is the rider's pool of unclaimed delivery orders.
	ViewTasks View = "tasks"
	ViewMine  View = "mine"
)

func NewView(raw string) (View, error) {
	switch View(raw) {
	case ViewDefault, ViewTasks, ViewMine:
		return View(raw), nil
	}
	return "", fmt.Errorf("%w: unknown view %q", ErrInvalidQuery, raw)
}

// ScopeQuery narrows query to what actor may see. Filters already set on query are kept
// unless they widen the actor's scope.
func ScopeQuery(actor user.Actor, view View, query *OrdersQuery) *OrdersQuery {
	scoped := *query
	switch actor.Role {
	case user.RoleCustomer:
		scoped.CustomerIDs = []string{actor.UserID}
	case user.RoleVendor:
		scoped.Vendors = []string{actor.Name}
	case user.RoleDelivery:
		if view == ViewTasks {
			scoped.AssignedTo = []string{Unassigned}
			scoped.DeliveryMethods = []DeliveryMethod{MethodDelivery}
			scoped.Statuses = intersectStatuses(scoped.Statuses, ActiveStatuses)
		} else {
			scoped.AssignedTo = []string{actor.Name}
		}
	case user.RoleAdmin:
		if view == ViewTasks {
			scoped.AssignedTo = []string{Unassigned}
			scoped.Statuses = intersectStatuses(scoped.Statuses, ActiveStatuses)
		}
	}
	return &scoped
}

func intersectStatuses(requested, allowed []Status) []Status {
	if len(requested) == 0 {
		return allowed
	}
	out := make([]Status, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(allowed, s) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		// nothing requested is allowed; keep a filter that matches no order
		return []Status{""}
	}
	return out
}

// CanView reports whether actor may read o.
func CanView(actor user.Actor, o Order) bool {
	switch actor.Role {
	case user.RoleAdmin:
		return true
	case user.RoleVendor:
		return o.Vendor == actor.Name
	case user.RoleDelivery:
		if o.AssignedTo == actor.Name {
			return true
		}
		return o.IsUnassigned() && o.DeliveryMethod == MethodDelivery && !o.Status.IsTerminal()
	default:
		return o.CustomerID == actor.UserID
	}
}

// VisibleTo strips the verification code unless actor placed the order.
func (o Order) VisibleTo(actor user.Actor) Order {
	if o.CustomerID != actor.UserID {
		o.VerificationCode = ""
	}
	return o
}

func (s *OrderService) ListOrdersFor(ctx context.Context, actor user.Actor, view View, query *OrdersQuery) ([]Order, error) {
	if query == nil {
		query = &OrdersQuery{}
	}
	return s.GetOrders(ctx, ScopeQuery(actor, view, query))
}

// GetOrderFor hides orders the actor may not see behind ErrNotFound.
func (s *OrderService) GetOrderFor(ctx context.Context, actor user.Actor, orderID string) (Order, error) {
	o, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !CanView(actor, o) {
		return Order{}, ErrNotFound
	}
	return o, nil
}

// GetEvents returns the timeline of an order the actor may see.
func (s *OrderService) GetEvents(ctx context.Context, actor user.Actor, orderID string, query OrderEventQuery) (OrderEventPage, error) {
	if _, err := s.GetOrderFor(ctx, actor, orderID); err != nil {
		return OrderEventPage{}, err
	}
	query.OrderIDs = []string{orderID}
	page, err := s.eventSink.GetOrderEvents(ctx, query)
	if err != nil {
		return OrderEventPage{}, fmt.Errorf("get order events: %w", err)
	}
	return page, nil
}

type Stats struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ActiveOrders int             `json:"active_orders"`
	Completed    int             `json:"completed_orders"`
	Cancelled    int             `json:"cancelled_orders"`
	TotalOrders  int             `json:"total_orders"`
}

// Stats summarizes the orders the actor may see. Revenue counts handed-off orders only.
func (s *OrderService) Stats(ctx context.Context, actor user.Actor) (Stats, error) {
	orders, err := s.ListOrdersFor(ctx, actor, ViewDefault, &OrdersQuery{})
	if err != nil {
		return Stats{}, err
	}
	return Summarize(orders), nil
}

func Summarize(orders []Order) Stats {
	stats := Stats{Revenue: decimal.Zero, TotalOrders: len(orders)}
	for _, o := range orders {
		switch {
		case o.Status == StatusCancelled:
			stats.Cancelled++
		case o.Status.IsTerminal():
			stats.Completed++
			stats.Revenue = stats.Revenue.Add(o.Total)
		default:
			stats.ActiveOrders++
		}
	}
	return stats
}
