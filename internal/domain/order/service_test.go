package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/logger"
)

type serviceMocks struct {
	repo *MockOrderRepo
	tx   *MockTxOrderRepo
	sink *MockEventSink
}

func orderService(t *testing.T) (*OrderService, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := serviceMocks{
		repo: NewMockOrderRepo(ctrl),
		tx:   NewMockTxOrderRepo(ctrl),
		sink: NewMockEventSink(ctrl),
	}
	service := NewOrderService(mocks.repo, mocks.sink, logger.NewNop(), ServiceConfig{
		Pricing: Pricing{DeliveryFee: decimal.NewFromInt(5), DefaultVendor: "Chef Pierre"},
		Policy:  DefaultHandoffPolicy(),
	})
	service.now = func() time.Time { return testNow }
	service.newCode = func() (string, error) { return "482913", nil }
	service.newOrder = func() (string, error) { return "ORD-K3J9QZ0PA", nil }

	return service, mocks
}

func (m serviceMocks) expectTransaction(ctx context.Context) {
	m.repo.EXPECT().InTransaction(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, fn func(repo TxOrderRepo) error) error {
		return fn(m.tx)
	})
}

func sourdoughLines() []LineItem {
	return []LineItem{
		{ProductID: "1", Name: "Artisan Sourdough", Vendor: "Chef Pierre", UnitPrice: decimal.RequireFromString("8.50"), Quantity: 2},
	}
}

func TestOrderService_Checkout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	delivery := DeliveryDetails{PhoneNumber: "555-0100-22", Address: "12 Baker St", DeliveryMethod: MethodDelivery}
	pickup := DeliveryDetails{PhoneNumber: "555-0100-22", Address: "ignored", DeliveryMethod: MethodPickup}

	t.Run("should create a delivery order with fee and reserve stock", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().ReserveStock(ctx, "1", 2).Return(nil)
		mocks.tx.EXPECT().CreateOrder(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, o Order) error {
			assert.Equal(t, "$22.00", o.DisplayTotal())
			return nil
		})
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e NewOrderEvent) (*OrderEvent, error) {
			assert.Equal(t, EventOrderCreated, e.Kind)
			assert.NotContains(t, string(e.Data), "482913")
			return &OrderEvent{EventID: "evt", NewOrderEvent: e}, nil
		})

		// when
		created, err := service.Checkout(ctx, customer, CheckoutRequest{Lines: sourdoughLines(), Details: delivery})

		// then
		require.NoError(t, err)
		assert.Equal(t, "ORD-K3J9QZ0PA", created.ID)
		assert.Equal(t, "2x Artisan Sourdough", created.Items)
		assert.Equal(t, "$22.00", created.DisplayTotal())
		assert.Equal(t, StatusPending, created.Status)
		assert.Equal(t, Unassigned, created.AssignedTo)
		assert.Equal(t, "Chef Pierre", created.Vendor)
		assert.Equal(t, customer.Name, created.Customer)
		assert.Equal(t, "482913", created.VerificationCode)
		assert.Equal(t, 1, created.Version)
	})

	t.Run("should not charge the fee for pickup", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().ReserveStock(ctx, "1", 2).Return(nil)
		mocks.tx.EXPECT().CreateOrder(ctx, gomock.Any()).Return(nil)
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).Return(&OrderEvent{}, nil)

		// when
		created, err := service.Checkout(ctx, customer, CheckoutRequest{Lines: sourdoughLines(), Details: pickup})

		// then
		require.NoError(t, err)
		assert.Equal(t, "$17.00", created.DisplayTotal())
		assert.Empty(t, created.Address)
	})

	t.Run("should reserve merged quantities in product id order", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		lines := []LineItem{
			{ProductID: "b2", Name: "Rustic Rye Loaf", Vendor: "Baker Bob", UnitPrice: decimal.NewFromInt(9), Quantity: 1},
			{ProductID: "1", Name: "Artisan Sourdough", Vendor: "Chef Pierre", UnitPrice: decimal.RequireFromString("8.50"), Quantity: 1},
			{ProductID: "b2", Name: "Rustic Rye Loaf", Vendor: "Baker Bob", UnitPrice: decimal.NewFromInt(9), Quantity: 2},
		}
		mocks.expectTransaction(ctx)
		gomock.InOrder(
			mocks.tx.EXPECT().ReserveStock(ctx, "1", 1).Return(nil),
			mocks.tx.EXPECT().ReserveStock(ctx, "b2", 3).Return(nil),
		)
		mocks.tx.EXPECT().CreateOrder(ctx, gomock.Any()).Return(nil)
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).Return(&OrderEvent{}, nil)

		// when
		created, err := service.Checkout(ctx, customer, CheckoutRequest{Lines: lines, Details: delivery})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Baker Bob", created.Vendor)
		assert.Equal(t, "$40.50", created.DisplayTotal())
	})

	t.Run("should fail without creating the order when stock runs out", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		capacity := &catalog.CapacityError{ProductID: "1", Requested: 2, Available: 1}
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().ReserveStock(ctx, "1", 2).Return(capacity)

		// when
		_, err := service.Checkout(ctx, customer, CheckoutRequest{Lines: sourdoughLines(), Details: delivery})

		// then
		assert.ErrorIs(t, err, apperror.ErrCapacity)
		ce, ok := catalog.AsCapacityError(err)
		require.True(t, ok)
		assert.Equal(t, 1, ce.Available)
	})

	t.Run("should reject invalid delivery details before touching storage", func(t *testing.T) {
		service, _ := orderService(t)

		testCases := []struct {
			name    string
			details DeliveryDetails
			lines   []LineItem
		}{
			{name: "short phone", details: DeliveryDetails{PhoneNumber: "  1234  ", Address: "x", DeliveryMethod: MethodDelivery}, lines: sourdoughLines()},
			{name: "delivery without address", details: DeliveryDetails{PhoneNumber: "555-0100-22", DeliveryMethod: MethodDelivery}, lines: sourdoughLines()},
			{name: "unknown method", details: DeliveryDetails{PhoneNumber: "555-0100-22", DeliveryMethod: "Drone"}, lines: sourdoughLines()},
			{name: "empty cart", details: delivery},
			{name: "bad location", details: DeliveryDetails{PhoneNumber: "555-0100-22", DeliveryMethod: MethodPickup, Location: &Location{Lat: 91}}, lines: sourdoughLines()},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				// when
				_, err := service.Checkout(ctx, customer, CheckoutRequest{Lines: tc.lines, Details: tc.details})

				// then
				assert.ErrorIs(t, err, apperror.ErrValidation)
			})
		}
	})
}

func TestOrderService_UpdateOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("should deliver on the correct code and bump the version", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodDelivery, StatusOutForDelivery, rider.Name)
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)
		mocks.tx.EXPECT().UpdateOrder(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, o Order) error {
			assert.Equal(t, StatusDelivered, o.Status)
			assert.Equal(t, 2, o.Version)
			return nil
		})
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e NewOrderEvent) (*OrderEvent, error) {
			assert.Equal(t, EventHandoffVerified, e.Kind)
			return &OrderEvent{}, nil
		})

		// when
		result, err := service.UpdateOrder(ctx, rider, current.ID, NewUpdate(SubmitVerification{Code: "482913"}))

		// then
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, result.Outcome)
		assert.True(t, result.Changed)
		assert.Equal(t, StatusDelivered, result.Order.Status)
		assert.Equal(t, "482913", result.Order.SubmittedCode)
		assert.Equal(t, testNow, result.Order.UpdatedAt)
	})

	t.Run("should persist nothing on a wrong code and record the failure", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodDelivery, StatusOutForDelivery, rider.Name)
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e NewOrderEvent) (*OrderEvent, error) {
			assert.Equal(t, EventVerificationFailed, e.Kind)
			assert.NotContains(t, string(e.Data), "111111")
			return &OrderEvent{}, nil
		})

		// when
		result, err := service.UpdateOrder(ctx, rider, current.ID, NewUpdate(SubmitVerification{Code: "111111"}))

		// then
		assert.ErrorIs(t, err, apperror.ErrVerificationMismatch)
		assert.Equal(t, OutcomeRejectedVerification, result.Outcome)
	})

	t.Run("should refuse dispatch of an unassigned order", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodDelivery, StatusPreparing, Unassigned)
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)
		mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).Return(&OrderEvent{}, nil)

		// when
		result, err := service.UpdateOrder(ctx, vendor, current.ID, NewUpdate(SetStatus{Status: StatusOutForDelivery}))

		// then
		assert.ErrorIs(t, err, ErrNoRiderAssigned)
		assert.Equal(t, OutcomeRejectedGuard, result.Outcome)
	})

	t.Run("should treat a repeated correct code as an unchanged success", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodPickup, StatusPickedUp, Unassigned)
		current.SubmittedCode = "482913"
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)

		// when
		result, err := service.UpdateOrder(ctx, customer, current.ID, NewUpdate(SubmitVerification{Code: "482913"}))

		// then
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, current, result.Order)
	})

	t.Run("should record assignment and status change when a rider accepts", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodDelivery, StatusPending, Unassigned)
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)
		mocks.tx.EXPECT().UpdateOrder(ctx, gomock.Any()).Return(nil)
		gomock.InOrder(
			mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e NewOrderEvent) (*OrderEvent, error) {
				assert.Equal(t, EventHandlerAssigned, e.Kind)
				return &OrderEvent{}, nil
			}),
			mocks.sink.EXPECT().CreateOrderEvent(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e NewOrderEvent) (*OrderEvent, error) {
				assert.Equal(t, EventStatusChanged, e.Kind)
				return &OrderEvent{}, nil
			}),
		)

		// when
		result, err := service.UpdateOrder(ctx, rider, current.ID,
			NewUpdate(AssignHandler{Handler: rider.Name}, SetStatus{Status: StatusPreparing}))

		// then
		require.NoError(t, err)
		assert.Equal(t, rider.Name, result.Order.AssignedTo)
		assert.Equal(t, StatusPreparing, result.Order.Status)
	})

	t.Run("should surface not found without recording an event", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, "ORD-MISSING00").Return(Order{}, ErrNotFound)

		// when
		result, err := service.UpdateOrder(ctx, admin, "ORD-MISSING00", NewUpdate(SetStatus{Status: StatusCancelled}))

		// then
		assert.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Equal(t, OutcomeRejectedInput, result.Outcome)
	})

	t.Run("should report storage failures as failed", func(t *testing.T) {
		service, mocks := orderService(t)

		// given
		current := testOrder(MethodDelivery, StatusPending, Unassigned)
		mocks.expectTransaction(ctx)
		mocks.tx.EXPECT().GetOrderForUpdate(ctx, current.ID).Return(current, nil)
		mocks.tx.EXPECT().UpdateOrder(ctx, gomock.Any()).Return(errors.New("database error"))

		// when
		_, err := service.UpdateOrder(ctx, admin, current.ID, NewUpdate(SetStatus{Status: StatusPreparing}))

		// then
		assert.EqualError(t, err, "update order: database error")
		assert.Equal(t, OutcomeFailed, OutcomeOf(err))
	})
}

func TestOrderService_GetOrderFor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stored := testOrder(MethodDelivery, StatusPending, Unassigned)
	stranger := customer
	stranger.UserID = "USR-OTHER0000"

	testCases := []struct {
		name        string
		actor       user.Actor
		expectedErr error
	}{
		{name: "admin sees every order", actor: admin},
		{name: "owning vendor", actor: vendor},
		{name: "rider sees open tasks", actor: rider},
		{name: "customer sees own order", actor: customer},
		{name: "other vendor", actor: rival, expectedErr: ErrNotFound},
		{name: "other customer", actor: stranger, expectedErr: ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service, mocks := orderService(t)
			query, _ := NewOrdersQueryBuilder().WithIDs(stored.ID).Build()
			mocks.repo.EXPECT().GetOrders(ctx, query).Return([]Order{stored}, nil)

			// when
			result, err := service.GetOrderFor(ctx, tc.actor, stored.ID)

			// then
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, result.ID)
		})
	}
}

func TestScopeQuery(t *testing.T) {
	t.Parallel()

	tasks := ScopeQuery(rider, ViewTasks, &OrdersQuery{})
	assert.Equal(t, []string{Unassigned}, tasks.AssignedTo)
	assert.Equal(t, []DeliveryMethod{MethodDelivery}, tasks.DeliveryMethods)
	assert.Equal(t, ActiveStatuses, tasks.Statuses)

	mine := ScopeQuery(rider, ViewMine, &OrdersQuery{})
	assert.Equal(t, []string{rider.Name}, mine.AssignedTo)

	own := ScopeQuery(customer, ViewDefault, &OrdersQuery{CustomerIDs: []string{"someone-else"}})
	assert.Equal(t, []string{customer.UserID}, own.CustomerIDs)

	closed := ScopeQuery(rider, ViewTasks, &OrdersQuery{Statuses: []Status{StatusDelivered}})
	assert.Equal(t, []Status{""}, closed.Statuses)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	delivered := testOrder(MethodDelivery, StatusDelivered, rider.Name)
	pickedUp := testOrder(MethodPickup, StatusPickedUp, Unassigned)
	pickedUp.Total = decimal.RequireFromString("17")
	cancelled := testOrder(MethodDelivery, StatusCancelled, Unassigned)
	pending := testOrder(MethodDelivery, StatusPending, Unassigned)

	stats := Summarize([]Order{delivered, pickedUp, cancelled, pending})

	assert.Equal(t, "39", stats.Revenue.String())
	assert.Equal(t, 1, stats.ActiveOrders)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 4, stats.TotalOrders)
}

func TestOrder_VisibleTo(t *testing.T) {
	t.Parallel()

	o := testOrder(MethodDelivery, StatusOutForDelivery, rider.Name)

	assert.Equal(t, "482913", o.VisibleTo(customer).VerificationCode)
	for _, actor := range []user.Actor{admin, vendor, rider} {
		assert.Empty(t, o.VisibleTo(actor).VerificationCode, actor.Name)
	}
	assert.Equal(t, "482913", o.VerificationCode)
}
