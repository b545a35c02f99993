package cart

import (
	"github.com/shopspring/decimal"

	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
)

// Line is a product snapshot taken when the product was first added, plus a quantity.
type Line struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Vendor    string           `json:"vendor"`
	Category  catalog.Category `json:"category"`
	Image     string           `json:"image,omitempty"`
	Quantity  int              `json:"quantity"`
}

type Cart struct {
	Owner string `json:"owner"`
	Lines []Line `json:"lines"`
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Quantity is how many units of the product are already in the cart.
func (c Cart) Quantity(productID string) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

func (c Cart) OrderLines() []order.LineItem {
	lines := make([]order.LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, order.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Vendor:    l.Vendor,
			Category:  string(l.Category),
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		})
	}
	return lines
}

type View struct {
	Cart
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

func (c Cart) View() View {
	count := 0
	for _, l := range c.Lines {
		count += l.Quantity
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return View{Cart: c, Subtotal: c.Subtotal(), Count: count}
}

type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}
