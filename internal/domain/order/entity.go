package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unassigned is the handler value of an order no rider or vendor has taken yet.
const Unassigned = "Unassigned"

type Order struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	Customer       string          `json:"customer"`
	Lines          []LineItem      `json:"lines"`
	Items          string          `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Vendor         string          `json:"vendor"`
	PhoneNumber    string          `json:"phone_number"`
	Address        string          `json:"address"`
	Location       *Location       `json:"location,omitempty"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method"`
	Status         Status          `json:"status"`
	AssignedTo     string          `json:"assigned_to"`
	// VerificationCode is generated once at checkout and never changes afterwards.
	VerificationCode string    `json:"verification_code"`
	SubmittedCode    string    `json:"submitted_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int       `json:"version"`
}

// DisplayTotal formats the total the way receipts show it, e.g. "$22.00".
func (o Order) DisplayTotal() string {
	return "$" + o.Total.StringFixed(2)
}

func (o Order) IsUnassigned() bool {
	return o.AssignedTo == "" || o.AssignedTo == Unassigned
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Vendor    string          `json:"vendor"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// describeItems renders the itemized description stored on the order: "2x Artisan Sourdough, 1x Croissant".
func describeItems(lines []LineItem) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
	}
	return strings.Join(parts, ", ")
}

type DeliveryMethod string

const (
	MethodDelivery DeliveryMethod = "Delivery"
	MethodPickup   DeliveryMethod = "Pickup"
)

func NewDeliveryMethod(raw string) (DeliveryMethod, error) {
	switch DeliveryMethod(raw) {
	case MethodDelivery, MethodPickup:
		return DeliveryMethod(raw), nil
	}
	return "", errors.New("invalid delivery method")
}

// HandoffStatus is where an accepted verification code takes an order. It depends on the method only.
func (m DeliveryMethod) HandoffStatus() Status {
	if m == MethodPickup {
		return StatusPickedUp
	}
	return StatusDelivered
}

// AwaitingHandoffStatus is the status in which the customer's code is expected.
func (m DeliveryMethod) AwaitingHandoffStatus() Status {
	if m == MethodPickup {
		return StatusReadyForPickup
	}
	return StatusOutForDelivery
}

type Status string

const (
	StatusPending        Status = "Pending"
	StatusPreparing      Status = "Preparing"
	StatusReadyForPickup Status = "Ready for Pickup"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
	StatusPickedUp       Status = "Picked Up"
	StatusCancelled      Status = "Cancelled"
)

var AvailableStatuses = []Status{
	StatusPending, StatusPreparing, StatusReadyForPickup, StatusOutForDelivery,
	StatusDelivered, StatusPickedUp, StatusCancelled,
}

var TerminalStatuses = []Status{StatusDelivered, StatusPickedUp, StatusCancelled}

var ActiveStatuses = []Status{StatusPending, StatusPreparing, StatusReadyForPickup, StatusOutForDelivery}

func (s Status) IsTerminal() bool {
	return slices.Contains(TerminalStatuses, s)
}

func NewStatus(raw string) (Status, error) {
	if slices.Contains(AvailableStatuses, Status(raw)) {
		return Status(raw), nil
	}
	return "", errors.New("invalid order status")
}

type Pagination struct {
	PageSize int

	PageNumber int
}

type OrdersQuery struct {
	IDs             []string
	CustomerIDs     []string
	Vendors         []string
	AssignedTo      []string
	Statuses        []Status
	DeliveryMethods []DeliveryMethod
	Pagination      *Pagination
	SortBy          *string
	SortOrder       *string
}

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("invalid sort by: %s", *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s", *o.SortOrder)
	}
	if o.Pagination != nil && (o.Pagination.PageSize <= 0 || o.Pagination.PageNumber <= 0) {
		return errors.New("page size and page number must be positive")
	}
	return nil
}

// Matches reports whether o passes every filter of the query. Sorting and pagination are not considered.
func (q *OrdersQuery) Matches(o Order) bool {
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, o.ID) {
		return false
	}
	if len(q.CustomerIDs) > 0 && !slices.Contains(q.CustomerIDs, o.CustomerID) {
		return false
	}
	if len(q.Vendors) > 0 && !slices.Contains(q.Vendors, o.Vendor) {
		return false
	}
	if len(q.AssignedTo) > 0 && !slices.Contains(q.AssignedTo, o.AssignedTo) {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, o.Status) {
		return false
	}
	if len(q.DeliveryMethods) > 0 && !slices.Contains(q.DeliveryMethods, o.DeliveryMethod) {
		return false
	}
	return true
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...string) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithCustomerIDs(customerIDs ...string) *OrdersQueryBuilder {
	b.query.CustomerIDs = customerIDs
	return b
}

func (b *OrdersQueryBuilder) WithVendors(vendors ...string) *OrdersQueryBuilder {
	b.query.Vendors = vendors
	return b
}

func (b *OrdersQueryBuilder) WithAssignedTo(handlers ...string) *OrdersQueryBuilder {
	b.query.AssignedTo = handlers
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...Status) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithDeliveryMethods(methods ...DeliveryMethod) *OrdersQueryBuilder {
	b.query.DeliveryMethods = methods
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}
