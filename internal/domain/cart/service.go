package cart

import (
	"context"
	"fmt"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/pkg/logger"
)

var ErrNotInCart = fmt.Errorf("%w: product is not in the cart", apperror.ErrNotFound)

type CartService struct {
	repo     CartRepo
	products ProductReader
	orders   OrderPlacer
	logger   *logger.Logger
}

func NewCartService(repo CartRepo, products ProductReader, orders OrderPlacer, l *logger.Logger) *CartService {
	return &CartService{repo: repo, products: products, orders: orders, logger: l}
}

func (s *CartService) Get(ctx context.Context, owner string) (Cart, error) {
	c, err := s.repo.GetCart(ctx, owner)
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// Add puts qty units into the cart. It fails with a capacity error, leaving the cart
// unchanged, when the cart would hold more than the product's stock.
func (s *CartService) Add(ctx context.Context, owner, productID string, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, fmt.Errorf("%w: quantity must be at least 1", apperror.ErrValidation)
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	c, err := s.Get(ctx, owner)
	if err != nil {
		return Cart{}, err
	}

	inBasket := c.Quantity(productID)
	if err := catalog.CheckAvailability(p, inBasket, qty); err != nil {
		return Cart{}, err
	}

	if inBasket > 0 {
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity += qty
			}
		}
	} else {
		c.Lines = append(c.Lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Vendor:    p.Vendor,
			Category:  p.Category,
			Image:     p.Image,
			Quantity:  qty,
		})
	}
	return c, s.save(ctx, c)
}

// UpdateQuantity changes a line by delta. Increases are checked against stock, the result never drops below 1.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, productID string, delta int) (Cart, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	current := c.Quantity(productID)
	if current == 0 {
		return Cart{}, ErrNotInCart
	}

	if delta > 0 {
		p, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return Cart{}, err
		}
		if err := catalog.CheckAvailability(p, current, delta); err != nil {
			return Cart{}, err
		}
	}

	next := max(current+delta, 1)
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = next
		}
	}
	return c, s.save(ctx, c)
}

func (s *CartService) Remove(ctx context.Context, owner, productID string) (Cart, error) {
	c, err := s.Get(ctx, owner)
	if err != nil {
		return Cart{}, err
	}
	lines := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			lines = append(lines, l)
		}
	}
	c.Lines = lines
	return c, s.save(ctx, c)
}

func (s *CartService) Clear(ctx context.Context, owner string) error {
	if err := s.repo.DeleteCart(ctx, owner); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout places an order for the actor's cart and empties the cart once the order exists.
func (s *CartService) Checkout(ctx context.Context, actor user.Actor, details order.DeliveryDetails) (order.Order, error) {
	c, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return order.Order{}, err
	}

	placed, err := s.orders.Checkout(ctx, actor, order.CheckoutRequest{Lines: c.OrderLines(), Details: details})
	if err != nil {
		return order.Order{}, err
	}

	if err := s.Clear(ctx, actor.UserID); err != nil {
		s.logger.Ctx(ctx).Warn("Cart not cleared after checkout: owner=%s, order_id=%s, err=%v", actor.UserID, placed.ID, err)
	}
	return placed, nil
}

func (s *CartService) save(ctx context.Context, c Cart) error {
	if err := s.repo.SaveCart(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
