package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"CacaoStore/internal/catalog"
)

// MaxQuantity caps a single line so quantities, counts and totals never overflow.
const MaxQuantity = 9999

// Item is a product in the cart with its quantity, 1 <= Quantity <= MaxQuantity.
type Item struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart holds at most one Item per product id, in insertion order.
// The zero value is an empty cart.
type Cart struct {
	Items []Item `json:"items"`
}

// Add merges into an existing line or appends a new one with quantity 1.
func (c *Cart) Add(p catalog.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.Items[i].Quantity = min(MaxQuantity, c.Items[i].Quantity+1)
		return
	}
	c.Items = append(c.Items, Item{Product: p, Quantity: 1})
}

// Remove drops the line for id; missing ids are ignored.
func (c *Cart) Remove(id int) {
	c.Items = slices.DeleteFunc(c.Items, func(it Item) bool { return it.ID == id })
}

// UpdateQuantity shifts the quantity by delta, never below 1 nor above
// MaxQuantity. Lines are only removed through Remove.
func (c *Cart) UpdateQuantity(id, delta int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	delta = max(-MaxQuantity, min(MaxQuantity, delta))
	c.Items[i].Quantity = max(1, min(MaxQuantity, c.Items[i].Quantity+delta))
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	out := Cart{Items: make([]Item, len(c.Items))}
	for i, it := range c.Items {
		it.Tags = slices.Clone(it.Tags)
		out.Items[i] = it
	}
	return out
}

func (c Cart) index(id int) int {
	return slices.IndexFunc(c.Items, func(it Item) bool { return it.ID == id })
}

// Summary is the wire shape of a cart with its derived values.
type Summary struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func (c Cart) Summary() Summary {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return Summary{Items: items, Total: c.Total(), Count: c.Count()}
}
