package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrDuplicateID    = errors.New("duplicate product id")
)

const MaxRating = 5

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Tags        []string        `json:"tags"`
	Rating      float64         `json:"rating"`
}

func (p Product) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// PrimaryTag is the first tag, shown as the subtitle of a cart line.
func (p Product) PrimaryTag() string {
	if len(p.Tags) == 0 {
		return ""
	}
	return p.Tags[0]
}

func (p Product) PriceLabel() string {
	return "$" + p.Price.StringFixed(2)
}

func (p Product) clone() Product {
	p.Tags = slices.Clone(p.Tags)
	return p
}

func (p Product) validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: id=%d: name required", ErrInvalidProduct, p.ID)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: id=%d: negative price", ErrInvalidProduct, p.ID)
	case len(p.Tags) == 0:
		return fmt.Errorf("%w: id=%d: at least one tag required", ErrInvalidProduct, p.ID)
	case p.Rating < 0 || p.Rating > MaxRating:
		return fmt.Errorf("%w: id=%d: rating %.1f out of range", ErrInvalidProduct, p.ID, p.Rating)
	}
	for _, t := range p.Tags {
		if t == "" {
			return fmt.Errorf("%w: id=%d: empty tag", ErrInvalidProduct, p.ID)
		}
	}
	return nil
}

// Catalog is the fixed, ordered product list. It is never mutated after New,
// so it is safe for concurrent reads without locking.
type Catalog struct {
	products []Product
	byID     map[int]int
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}

	for _, p := range products {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p.clone())
	}

	return c, nil
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) All() []Product {
	return c.collect(func(Product) bool { return true })
}

func (c *Catalog) Get(id int) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].clone(), true
}

// FilterByTag returns the products carrying tag, in catalog order.
// An empty tag means no filter.
func (c *Catalog) FilterByTag(tag string) []Product {
	if tag == "" {
		return c.All()
	}
	return c.collect(func(p Product) bool { return p.HasTag(tag) })
}

// Tags lists distinct tags in order of first appearance.
func (c *Catalog) Tags() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(c.products)*2)
	for _, p := range c.products {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) collect(keep func(Product) bool) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}
