package catalog

import (
	"errors"
	"github.com/ariefcatur/go-storefront/internal/vntext"
	"time"
)

var ErrNotFound = errors.New("not found")

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Slug        string    `json:"slug,omitempty"`
	Images      ImageRefs `json:"images"`
	Categories  []string  `json:"categories,omitempty"`
	Variants    []Variant `json:"variants"`
	Featured    bool      `json:"featured,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Variant is one purchasable SKU of a product. Price is in whole đồng.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	OnHand    int    `json:"inhouse"`
	Image     string `json:"image,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// MinPrice returns the cheapest variant price; ok is false when the product
// has no variants.
func (p Product) MinPrice() (price int64, ok bool) {
	for i, v := range p.Variants {
		if i == 0 || v.Price < price {
			price = v.Price
		}
	}
	return price, len(p.Variants) > 0
}

// DisplaySlug is the stored slug, or one derived from the name.
func (p Product) DisplaySlug() string {
	if p.Slug != "" {
		return p.Slug
	}
	return vntext.Slug(p.Name)
}

func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

func (p Product) InCategory(categoryID string) bool {
	for _, c := range p.Categories {
		if c == categoryID {
			return true
		}
	}
	return false
}

func FilterByCategory(ps []Product, categoryID string) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if p.InCategory(categoryID) {
			out = append(out, p)
		}
	}
	return out
}
