package catalog

// CheckAvailability is the cart-side gate of the stock ledger:
// inBasket + adding must not exceed the current stock.
func CheckAvailability(p Product, inBasket, adding int) error {
	if inBasket+adding > p.Stock {
		return &CapacityError{
			ProductID:   p.ID,
			ProductName: p.Name,
			InBasket:    inBasket,
			Requested:   adding,
			Available:   p.Stock,
		}
	}
	return nil
}

// Reserve returns the product with quantity units taken out of stock.
// Stock never goes negative: an oversized reservation fails with a CapacityError
// whose basket count is the quantity being checked out.
func Reserve(p Product, quantity int) (Product, error) {
	if quantity > p.Stock {
		return p, &CapacityError{
			ProductID:   p.ID,
			ProductName: p.Name,
			InBasket:    quantity,
			Requested:   quantity,
			Available:   p.Stock,
		}
	}
	p.Stock -= quantity
	return p, nil
}
