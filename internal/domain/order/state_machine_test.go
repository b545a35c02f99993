package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/user"
)

var (
	admin    = user.Actor{UserID: "1", Name: "Nati Admin", Role: user.RoleAdmin}
	vendor   = user.Actor{UserID: "2", Name: "Chef Pierre", Role: user.RoleVendor}
	rival    = user.Actor{UserID: "5", Name: "Baker Bob", Role: user.RoleVendor}
	rider    = user.Actor{UserID: "3", Name: "Mike Driver", Role: user.RoleDelivery}
	rider2   = user.Actor{UserID: "6", Name: "Sam Courier", Role: user.RoleDelivery}
	customer = user.Actor{UserID: "4", Name: "Jane Doe", Role: user.RoleCustomer}
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testOrder(method DeliveryMethod, status Status, assigned string) Order {
	return Order{
		ID:               "ORD-ABC123XYZ",
		CustomerID:       customer.UserID,
		Customer:         customer.Name,
		Items:            "2x Artisan Sourdough",
		Total:            decimal.RequireFromString("22"),
		Vendor:           vendor.Name,
		PhoneNumber:      "555-0100",
		Address:          "12 Baker St",
		DeliveryMethod:   method,
		Status:           status,
		AssignedTo:       assigned,
		VerificationCode: "482913",
		CreatedAt:        testNow.Add(-time.Hour),
		UpdatedAt:        testNow.Add(-time.Hour),
		Version:          1,
	}
}

func TestStateMachine_Verification(t *testing.T) {
	t.Parallel()

	machine := NewStateMachine(DefaultHandoffPolicy())

	testCases := []struct {
		name           string
		order          Order
		update         Update
		expectedStatus Status
		expectedErr    error
		expectChanged  bool
	}{
		{
			name:           "correct code delivers an order out for delivery",
			order:          testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			update:         NewUpdate(SubmitVerification{Code: "482913"}),
			expectedStatus: StatusDelivered,
			expectChanged:  true,
		},
		{
			name:           "correct code picks up a pickup order",
			order:          testOrder(MethodPickup, StatusReadyForPickup, Unassigned),
			update:         NewUpdate(SubmitVerification{Code: "482913"}),
			expectedStatus: StatusPickedUp,
			expectChanged:  true,
		},
		{
			name:        "wrong code is a verification mismatch",
			order:       testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			update:      NewUpdate(SubmitVerification{Code: "000000"}),
			expectedErr: ErrCodeMismatch,
		},
		{
			name:        "code before dispatch is a guard violation",
			order:       testOrder(MethodDelivery, StatusPreparing, rider.Name),
			update:      NewUpdate(SubmitVerification{Code: "482913"}),
			expectedErr: ErrNotAwaitingHandoff,
		},
		{
			name:        "malformed code is rejected as input",
			order:       testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			update:      NewUpdate(SubmitVerification{Code: "48291"}),
			expectedErr: ErrInvalidCode,
		},
		{
			name:           "correct code resubmitted after delivery is a no-op",
			order:          testOrder(MethodDelivery, StatusDelivered, rider.Name),
			update:         NewUpdate(SubmitVerification{Code: "482913"}),
			expectedStatus: StatusDelivered,
		},
		{
			name:        "wrong code after delivery hits the final status guard",
			order:       testOrder(MethodDelivery, StatusDelivered, rider.Name),
			update:      NewUpdate(SubmitVerification{Code: "111111"}),
			expectedErr: ErrInFinalStatus,
		},
		{
			name:        "correct code on a cancelled order is refused",
			order:       testOrder(MethodDelivery, StatusCancelled, rider.Name),
			update:      NewUpdate(SubmitVerification{Code: "482913"}),
			expectedErr: ErrInFinalStatus,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			next, changed, err := machine.Apply(tc.order, customer, tc.update, testNow)

			// then
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Equal(t, tc.order, next)
				assert.False(t, changed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, next.Status)
			assert.Equal(t, tc.expectChanged, changed)
		})
	}
}

func TestStateMachine_MismatchRejectsWholeUpdate(t *testing.T) {
	t.Parallel()

	// given
	machine := NewStateMachine(DefaultHandoffPolicy())
	current := testOrder(MethodDelivery, StatusOutForDelivery, rider.Name)
	update := NewUpdate(AssignHandler{Handler: "Nati Admin"}, SubmitVerification{Code: "123456"})

	// when
	next, changed, err := machine.Apply(current, admin, update, testNow)

	// then
	assert.ErrorIs(t, err, apperror.ErrVerificationMismatch)
	assert.False(t, changed)
	assert.Equal(t, rider.Name, next.AssignedTo)
	assert.Equal(t, StatusOutForDelivery, next.Status)
	assert.Empty(t, next.SubmittedCode)
}

func TestStateMachine_CodeTTL(t *testing.T) {
	t.Parallel()

	machine := NewStateMachine(HandoffPolicy{RequirePreTerminal: true, CodeTTL: 30 * time.Minute})
	current := testOrder(MethodPickup, StatusReadyForPickup, Unassigned)

	_, _, err := machine.Apply(current, vendor, NewUpdate(SubmitVerification{Code: "482913"}), testNow)

	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.Equal(t, OutcomeRejectedVerification, OutcomeOf(err))
}

func TestStateMachine_WithoutPreTerminalRequirement(t *testing.T) {
	t.Parallel()

	machine := NewStateMachine(HandoffPolicy{})
	current := testOrder(MethodDelivery, StatusPending, Unassigned)

	next, changed, err := machine.Apply(current, customer, NewUpdate(SubmitVerification{Code: "482913"}), testNow)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusDelivered, next.Status)
	assert.Equal(t, "482913", next.SubmittedCode)
}

func TestStateMachine_RoleAuthority(t *testing.T) {
	t.Parallel()

	machine := NewStateMachine(DefaultHandoffPolicy())

	testCases := []struct {
		name             string
		order            Order
		actor            user.Actor
		update           Update
		expectedStatus   Status
		expectedAssignee string
		expectedErr      error
	}{
		{
			name:           "vendor starts preparing",
			order:          testOrder(MethodDelivery, StatusPending, Unassigned),
			actor:          vendor,
			update:         NewUpdate(SetStatus{Status: StatusPreparing}),
			expectedStatus: StatusPreparing,
		},
		{
			name:           "admin marks ready for pickup",
			order:          testOrder(MethodPickup, StatusPreparing, Unassigned),
			actor:          admin,
			update:         NewUpdate(SetStatus{Status: StatusReadyForPickup}),
			expectedStatus: StatusReadyForPickup,
		},
		{
			name:        "vendor cannot dispatch an unassigned delivery",
			order:       testOrder(MethodDelivery, StatusPreparing, Unassigned),
			actor:       vendor,
			update:      NewUpdate(SetStatus{Status: StatusOutForDelivery}),
			expectedErr: ErrNoRiderAssigned,
		},
		{
			name:           "vendor dispatches an assigned delivery",
			order:          testOrder(MethodDelivery, StatusReadyForPickup, rider.Name),
			actor:          vendor,
			update:         NewUpdate(SetStatus{Status: StatusOutForDelivery}),
			expectedStatus: StatusOutForDelivery,
		},
		{
			name:        "pickup orders never go out for delivery",
			order:       testOrder(MethodPickup, StatusReadyForPickup, rider.Name),
			actor:       admin,
			update:      NewUpdate(SetStatus{Status: StatusOutForDelivery}),
			expectedErr: ErrPickupNotDispatched,
		},
		{
			name:        "vendor cannot touch another vendor's order",
			order:       testOrder(MethodDelivery, StatusPending, Unassigned),
			actor:       rival,
			update:      NewUpdate(SetStatus{Status: StatusCancelled}),
			expectedErr: ErrNotOwner,
		},
		{
			name:        "status cannot jump to delivered without a code",
			order:       testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			actor:       admin,
			update:      NewUpdate(SetStatus{Status: StatusDelivered}),
			expectedErr: ErrHandoffNeedsCode,
		},
		{
			name:             "rider accepts a task in one update",
			order:            testOrder(MethodDelivery, StatusPreparing, Unassigned),
			actor:            rider,
			update:           NewUpdate(AssignHandler{Handler: rider.Name}, SetStatus{Status: StatusOutForDelivery}),
			expectedStatus:   StatusOutForDelivery,
			expectedAssignee: rider.Name,
		},
		{
			name:        "rider cannot claim a task taken by another rider",
			order:       testOrder(MethodDelivery, StatusPreparing, rider2.Name),
			actor:       rider,
			update:      NewUpdate(AssignHandler{Handler: rider.Name}),
			expectedErr: ErrAlreadyClaimed,
		},
		{
			name:        "rider cannot assign someone else",
			order:       testOrder(MethodDelivery, StatusPreparing, Unassigned),
			actor:       rider,
			update:      NewUpdate(AssignHandler{Handler: rider2.Name}),
			expectedErr: ErrNotPermitted,
		},
		{
			name:        "rider cannot cancel",
			order:       testOrder(MethodDelivery, StatusPreparing, rider.Name),
			actor:       rider,
			update:      NewUpdate(SetStatus{Status: StatusCancelled}),
			expectedErr: ErrNotPermitted,
		},
		{
			name:        "customer has no status authority",
			order:       testOrder(MethodDelivery, StatusPending, Unassigned),
			actor:       customer,
			update:      NewUpdate(SetStatus{Status: StatusCancelled}),
			expectedErr: ErrNotPermitted,
		},
		{
			name:        "unassigning an order in transit is refused",
			order:       testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			actor:       admin,
			update:      NewUpdate(AssignHandler{Handler: Unassigned}),
			expectedErr: ErrUnassignInTransit,
		},
		{
			name:        "terminal orders absorb every change",
			order:       testOrder(MethodPickup, StatusPickedUp, Unassigned),
			actor:       admin,
			update:      NewUpdate(SetStatus{Status: StatusCancelled}),
			expectedErr: ErrInFinalStatus,
		},
		{
			name:           "admin cancels an order out for delivery",
			order:          testOrder(MethodDelivery, StatusOutForDelivery, rider.Name),
			actor:          admin,
			update:         NewUpdate(SetStatus{Status: StatusCancelled}),
			expectedStatus: StatusCancelled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			next, _, err := machine.Apply(tc.order, tc.actor, tc.update, testNow)

			// then
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Equal(t, OutcomeRejectedGuard, OutcomeOf(err))
				assert.Equal(t, tc.order, next)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, next.Status)
			if tc.expectedAssignee != "" {
				assert.Equal(t, tc.expectedAssignee, next.AssignedTo)
			}
		})
	}
}

func TestUpdateOrderRequest_ToUpdate(t *testing.T) {
	t.Parallel()

	status := "Out for Delivery"
	assigned := " Mike Driver "
	code := "482913"

	update, err := UpdateOrderRequest{Status: &status, AssignedTo: &assigned, RiderProvidedOTP: &code}.ToUpdate()

	require.NoError(t, err)
	assert.Equal(t, []Command{
		AssignHandler{Handler: "Mike Driver"},
		SetStatus{Status: StatusOutForDelivery},
		SubmitVerification{Code: "482913"},
	}, update.Commands)

	_, err = UpdateOrderRequest{}.ToUpdate()
	assert.True(t, errors.Is(err, ErrEmptyUpdate))

	bogus := "Shipped"
	_, err = UpdateOrderRequest{Status: &bogus}.ToUpdate()
	assert.ErrorIs(t, err, apperror.ErrValidation)

	blank := "  "
	update, err = UpdateOrderRequest{Status: &status, RiderProvidedOTP: &blank}.ToUpdate()
	require.NoError(t, err)
	assert.False(t, update.SubmitsCode())
	assert.Equal(t, []Command{SetStatus{Status: StatusOutForDelivery}}, update.Commands)

	_, err = UpdateOrderRequest{RiderProvidedOTP: &blank}.ToUpdate()
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	short := "123"
	_, err = UpdateOrderRequest{RiderProvidedOTP: &short}.ToUpdate()
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	for range 200 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.True(t, IsWellFormedCode(code), code)
		assert.GreaterOrEqual(t, code, "100000")
	}
}
