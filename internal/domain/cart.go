package domain

import "time"

// CartLine references a product and the quantity the user wants. Pricing
// data is not stored on the line; it is derived fresh on every quote so the
// cart can never show a stale price.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Cart is the per-user shopping cart header persisted between sessions.
// Cart identity equals the owning user ID, one cart per account.
type Cart struct {
	UserID    string
	Lines     []CartLine
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line returns the line for the given product and whether it exists.
func (c Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}
