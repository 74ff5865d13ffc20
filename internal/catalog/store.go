package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source yields the product rows the catalog is built from at startup.
type Source interface {
	Load(ctx context.Context) ([]Product, error)
}

// Load builds the catalog from src once.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	products, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(products)
}

type BuiltinSource struct{}

func (BuiltinSource) Load(context.Context) ([]Product, error) {
	return builtinProducts(), nil
}

// Default is the built-in catalog.
func Default() *Catalog {
	c, err := New(builtinProducts())
	if err != nil {
		panic(err)
	}
	return c
}

func builtinProducts() []Product {
	return []Product{
		{
			ID:          1,
			Name:        "Original Roasted Nibs",
			Description: "Granos puros de origen ecuatoriano, tostados a la perfección para un perfil intenso y nuez.",
			Price:       decimal.RequireFromString("24.00"),
			Image:       "https://picsum.photos/id/1060/800/800",
			Tags:        []string{"Best Seller", "Organic"},
			Rating:      5,
		},
		{
			ID:          2,
			Name:        "Raw Cacao Nibs",
			Description: "Nibs crudos prensados en frío, conservando todos los antioxidantes y el sabor frutal natural.",
			Price:       decimal.RequireFromString("28.00"),
			Image:       "https://picsum.photos/id/1062/800/800",
			Tags:        []string{"Raw", "Superfood"},
			Rating:      4.8,
		},
		{
			ID:          3,
			Name:        "Espresso Infused Nibs",
			Description: "Una mezcla audaz de nuestros nibs premium con granos de café arábica finamente molidos.",
			Price:       decimal.RequireFromString("26.50"),
			Image:       "https://picsum.photos/id/425/800/800",
			Tags:        []string{"New", "Caffeinated"},
			Rating:      4.9,
		},
		{
			ID:          4,
			Name:        "Sweetened with Yacon",
			Description: "Dulzura natural sin culpa. Nibs cubiertos con jarabe de yacón orgánico.",
			Price:       decimal.RequireFromString("30.00"),
			Image:       "https://picsum.photos/id/429/800/800",
			Tags:        []string{"Sugar Free", "Keto"},
			Rating:      4.7,
		},
		{
			ID:          5,
			Name:        "Chili & Sea Salt",
			Description: "Una experiencia exótica. Un toque de picante seguido de la profundidad del cacao.",
			Price:       decimal.RequireFromString("25.00"),
			Image:       "https://picsum.photos/id/493/800/800",
			Tags:        []string{"Spicy", "Gourmet"},
			Rating:      4.6,
		},
		{
			ID:          6,
			Name:        "Ceremonial Block",
			Description: "Bloque sólido de pasta de cacao 100% puro para bebidas ceremoniales.",
			Price:       decimal.RequireFromString("35.00"),
			Image:       "https://picsum.photos/id/431/800/800",
			Tags:        []string{"Ceremonial", "Solid"},
			Rating:      5,
		},
	}
}
