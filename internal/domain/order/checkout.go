package order

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

const minPhoneLength = 8

type DeliveryDetails struct {
	PhoneNumber    string         `json:"phone" binding:"required"`
	Address        string         `json:"address"`
	DeliveryMethod DeliveryMethod `json:"delivery_method" binding:"required"`
	Location       *Location      `json:"location"`
}

func (d DeliveryDetails) Validate() error {
	if len(strings.TrimSpace(d.PhoneNumber)) < minPhoneLength {
		return fmt.Errorf("%w: phone number must have at least %d characters", ErrInvalidContact, minPhoneLength)
	}
	if _, err := NewDeliveryMethod(string(d.DeliveryMethod)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidContact, err.Error())
	}
	if d.DeliveryMethod == MethodDelivery && strings.TrimSpace(d.Address) == "" {
		return fmt.Errorf("%w: address is required for delivery", ErrInvalidContact)
	}
	if l := d.Location; l != nil {
		if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
			return fmt.Errorf("%w: location out of range", ErrInvalidContact)
		}
	}
	return nil
}

type CheckoutRequest struct {
	Lines   []LineItem
	Details DeliveryDetails
}

func (r CheckoutRequest) Validate() error {
	if len(r.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range r.Lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity of %s must be at least 1", ErrInvalidUpdate, l.ProductID)
		}
	}
	return r.Details.Validate()
}

// Pricing holds the values a checkout needs besides the cart itself.
type Pricing struct {
	DeliveryFee   decimal.Decimal
	DefaultVendor string
}

func (p Pricing) Total(lines []LineItem, method DeliveryMethod) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	if method == MethodDelivery {
		total = total.Add(p.DeliveryFee)
	}
	return total
}

// Vendor attributes the order to the vendor of its first line.
func (p Pricing) Vendor(lines []LineItem) string {
	if len(lines) > 0 && lines[0].Vendor != "" {
		return lines[0].Vendor
	}
	return p.DefaultVendor
}

// reservations sums quantities per product, keyed and ordered by product id.
func reservations(lines []LineItem) ([]string, map[string]int) {
	qty := make(map[string]int, len(lines))
	var ids []string
	for _, l := range lines {
		if _, ok := qty[l.ProductID]; !ok {
			ids = append(ids, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	slices.Sort(ids)
	return ids, qty
}
