package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one cart line. Title, price and image are display copies; the
// order service re-prices every line at checkout.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Cart is a shopper's basket in one store.
type Cart struct {
	ID        string    `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Add merges qty into the line for item.ProductID, or appends a new line.
func (c *Cart) Add(item Item, qty int) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += qty
			return
		}
	}
	item.Quantity = qty
	c.Items = append(c.Items, item)
}

// Remove deletes the line for productID and reports whether one existed.
func (c *Cart) Remove(productID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Quantity returns the quantity held for productID.
func (c *Cart) Quantity(productID uuid.UUID) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// View is the JSON shape returned to the storefront.
type View struct {
	*Cart
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func (c *Cart) View() View {
	if c.Items == nil {
		c.Items = []Item{}
	}
	return View{Cart: c, Total: c.Total(), Count: c.Count()}
}
