package entity

import "github.com/shopspring/decimal"

// CartItem is one product's line in the cart: a snapshot of the product plus a quantity.
// Invariant: 1 <= Quantity <= Stock.
type CartItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Quantity int             `json:"quantity"`
}

// NewCartItem snapshots a product into a line with quantity 1.
func NewCartItem(p *Product) CartItem {
	return CartItem{
		ID:       p.ID,
		Title:    p.Title,
		Image:    p.Image,
		Price:    p.Price,
		Stock:    p.Stock,
		Quantity: 1,
	}
}

// Subtotal is price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a read-only view of the cart with its derived totals.
type Cart struct {
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// NewCart copies the lines and computes the totals.
func NewCart(items []CartItem) Cart {
	cart := Cart{
		Items:      make([]CartItem, len(items)),
		TotalPrice: decimal.Zero,
	}
	copy(cart.Items, items)

	for _, item := range items {
		cart.TotalItems += item.Quantity
		cart.TotalPrice = cart.TotalPrice.Add(item.Subtotal())
	}

	return cart
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
