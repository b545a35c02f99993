package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/ids"
	"BakeryStore/pkg/logger"
	"BakeryStore/pkg/metrics"
)

type ServiceConfig struct {
	Pricing Pricing
	Policy  HandoffPolicy
}

type OrderService struct {
	orderRepo OrderRepo
	eventSink EventSink
	logger    *logger.Logger

	pricing Pricing
	machine StateMachine

	now      func() time.Time
	newCode  func() (string, error)
	newOrder func() (string, error)
}

func NewOrderService(orderRepo OrderRepo, eventSink EventSink, l *logger.Logger, cfg ServiceConfig) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		eventSink: eventSink,
		logger:    l,
		pricing:   cfg.Pricing,
		machine:   NewStateMachine(cfg.Policy),
		now:       func() time.Time { return time.Now().UTC() },
		newCode:   GenerateCode,
		newOrder:  func() (string, error) { return ids.New("ORD-") },
	}
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (Order, error) {
	query, err := NewOrdersQueryBuilder().WithIDs(orderID).Build()
	if err != nil {
		return Order{}, err
	}
	orders, err := s.orderRepo.GetOrders(ctx, query)
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (s *OrderService) GetOrders(ctx context.Context, query *OrdersQuery) ([]Order, error) {
	orders, err := s.orderRepo.GetOrders(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return orders, nil
}

// Checkout turns the caller's cart lines into an order. Stock for every line is reserved
// in the same transaction that inserts the order.
func (s *OrderService) Checkout(ctx context.Context, actor user.Actor, req CheckoutRequest) (Order, error) {
	if err := req.Validate(); err != nil {
		metrics.CheckoutRejections.WithLabelValues("invalid").Inc()
		return Order{}, err
	}

	code, err := s.newCode()
	if err != nil {
		return Order{}, fmt.Errorf("generate verification code: %w", err)
	}
	id, err := s.newOrder()
	if err != nil {
		return Order{}, fmt.Errorf("generate order id: %w", err)
	}

	now := s.now()
	details := req.Details
	lines := append([]LineItem(nil), req.Lines...)
	order := Order{
		ID:               id,
		CustomerID:       actor.UserID,
		Customer:         actor.Name,
		Lines:            lines,
		Items:            describeItems(lines),
		Total:            s.pricing.Total(lines, details.DeliveryMethod),
		Vendor:           s.pricing.Vendor(lines),
		PhoneNumber:      details.PhoneNumber,
		Address:          details.Address,
		Location:         details.Location,
		DeliveryMethod:   details.DeliveryMethod,
		Status:           StatusPending,
		AssignedTo:       Unassigned,
		VerificationCode: code,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}
	if details.DeliveryMethod == MethodPickup {
		order.Address = ""
	}

	productIDs, quantities := reservations(lines)
	err = s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		for _, productID := range productIDs {
			if err := tx.ReserveStock(ctx, productID, quantities[productID]); err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrCapacity) {
			metrics.CheckoutRejections.WithLabelValues("capacity").Inc()
		}
		return Order{}, err
	}

	metrics.OrdersCreated.WithLabelValues(string(order.DeliveryMethod)).Inc()
	for _, q := range quantities {
		metrics.StockReserved.Add(float64(q))
	}
	s.logger.Ctx(ctx).Info("Order created: id=%s, customer=%s, vendor=%s, total=%s",
		order.ID, order.Customer, order.Vendor, order.DisplayTotal())

	s.recordEvent(ctx, order.ID, actor, EventOrderCreated, OrderCreatedData{
		Items:          order.Items,
		Total:          order.DisplayTotal(),
		Vendor:         order.Vendor,
		DeliveryMethod: order.DeliveryMethod,
	})

	return order, nil
}

// UpdateOrder applies the update under the order's lock. A rejected update leaves the order untouched.
func (s *OrderService) UpdateOrder(ctx context.Context, actor user.Actor, orderID string, update Update) (UpdateResult, error) {
	var (
		before  Order
		result  UpdateResult
		noOrder bool
	)
	err := s.orderRepo.InTransaction(ctx, func(tx TxOrderRepo) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			noOrder = errors.Is(err, apperror.ErrNotFound)
			return fmt.Errorf("load order: %w", err)
		}
		before = current

		next, changed, err := s.machine.Apply(current, actor, update, s.now())
		if err != nil {
			return err
		}
		if !changed {
			result = UpdateResult{Order: current, Outcome: OutcomeApplied}
			return nil
		}

		next.Version = current.Version + 1
		next.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, next); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		result = UpdateResult{Order: next, Outcome: OutcomeApplied, Changed: true}
		return nil
	})

	outcome := OutcomeOf(err)
	metrics.OrderUpdates.WithLabelValues(string(outcome)).Inc()
	if update.SubmitsCode() && !noOrder {
		metrics.VerificationAttempts.WithLabelValues(string(outcome)).Inc()
	}

	if err != nil {
		if !noOrder && (outcome == OutcomeRejectedGuard || outcome == OutcomeRejectedVerification) {
			s.recordRejection(ctx, before, actor, outcome, err)
		}
		return UpdateResult{Outcome: outcome}, err
	}

	if result.Changed {
		s.recordChanges(ctx, before, result.Order, actor)
	}
	return result, nil
}

func (s *OrderService) recordChanges(ctx context.Context, before, after Order, actor user.Actor) {
	l := s.logger.Ctx(ctx)
	if before.AssignedTo != after.AssignedTo {
		l.Info("Order handler assigned: id=%s, from=%s, to=%s", after.ID, before.AssignedTo, after.AssignedTo)
		s.recordEvent(ctx, after.ID, actor, EventHandlerAssigned, HandlerAssignedData{From: before.AssignedTo, To: after.AssignedTo})
	}
	if before.Status == after.Status {
		return
	}
	l.Info("Order status changed: id=%s, from=%s, to=%s, actor=%s", after.ID, before.Status, after.Status, actor.Name)
	metrics.StatusTransitions.WithLabelValues(string(after.Status)).Inc()
	kind := EventStatusChanged
	if after.Status == after.DeliveryMethod.HandoffStatus() && after.SubmittedCode != "" {
		kind = EventHandoffVerified
	}
	s.recordEvent(ctx, after.ID, actor, kind, StatusChangedData{From: before.Status, To: after.Status})
}

func (s *OrderService) recordRejection(ctx context.Context, current Order, actor user.Actor, outcome Outcome, cause error) {
	s.logger.Ctx(ctx).Warn("Order update rejected: id=%s, actor=%s, outcome=%s, reason=%v",
		current.ID, actor.Name, outcome, cause)

	kind := EventUpdateRejected
	if outcome == OutcomeRejectedVerification {
		kind = EventVerificationFailed
	}
	s.recordEvent(ctx, current.ID, actor, kind, RejectionData{
		Status: current.Status,
		Reason: cause.Error(),
		Result: outcome,
	})
}

// recordEvent appends to the order timeline. The order change is already committed,
// so a sink failure is logged and not returned.
func (s *OrderService) recordEvent(ctx context.Context, orderID string, actor user.Actor, kind EventKind, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Ctx(ctx).Error("Failed to marshal order event: id=%s, kind=%s, err=%v", orderID, kind, err)
		return
	}
	_, err = s.eventSink.CreateOrderEvent(ctx, NewOrderEvent{
		OrderID:   orderID,
		Kind:      kind,
		Actor:     actor.Name,
		ActorRole: string(actor.Role),
		Data:      raw,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Ctx(ctx).Error("Failed to record order event: id=%s, kind=%s, err=%v", orderID, kind, err)
	}
}
