package domain

// CartLine is one product in a cart with its quantity. The product fields
// are a snapshot taken at add time and are never reconciled with stock.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds a session's lines, unique by product ID. It is plain local
// state: every mutation is a pure transition, nothing is persisted.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Add merges the product into the cart: an existing line's quantity grows
// by 1, otherwise a new line with quantity 1 is appended.
func (c *Cart) Add(p Product) {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{Product: p, Quantity: 1})
}

// Remove deletes the line for the given product ID. Removing an absent
// product is a no-op.
func (c *Cart) Remove(productID string) {
	for i := range c.Lines {
		if c.Lines[i].Product.ID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Total sums price times quantity across all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.Product.Price * float64(line.Quantity)
	}
	return total
}

// CartResponse is the cart as served to clients.
type CartResponse struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}
