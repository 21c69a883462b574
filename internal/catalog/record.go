package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is a product row as exported from the spreadsheet backend. Variant
// data arrives as parallel arrays aligned by index with Variants (the linked
// variant record ids).
type Record struct {
	ID          string       `json:"id"`
	CreatedTime time.Time    `json:"createdTime"`
	Fields      RecordFields `json:"fields"`
}

type RecordFields struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Slug           string            `json:"slug"`
	Images         ImageRefs         `json:"images"`
	Category       []string          `json:"category"`
	Featured       bool              `json:"featured"`
	Variants       []string          `json:"variants"`
	VariantName    []string          `json:"variant_name"`
	VariantPrice   []int64           `json:"variant_price"`
	VariantInhouse []int             `json:"variant_inhouse"`
	VariantImage   []json.RawMessage `json:"variant_image"`
}

type CategoryRecord struct {
	ID     string `json:"id"`
	Fields struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"fields"`
}

// Normalize turns the parallel variant arrays into Variant values. Names,
// stock and images may be shorter than Variants (missing entries are zero);
// prices may not.
func (r Record) Normalize() (Product, error) {
	f := r.Fields
	if len(f.VariantPrice) < len(f.Variants) {
		return Product{}, fmt.Errorf("record %s: %d variants but %d prices", r.ID, len(f.Variants), len(f.VariantPrice))
	}

	p := Product{
		ID:          r.ID,
		Name:        f.Name,
		Description: f.Description,
		Slug:        f.Slug,
		Images:      f.Images,
		Categories:  f.Category,
		Featured:    f.Featured,
		Variants:    make([]Variant, 0, len(f.Variants)),
		CreatedAt:   r.CreatedTime,
	}
	if p.Images == nil {
		p.Images = ImageRefs{}
	}
	for i, id := range f.Variants {
		v := Variant{ID: id, ProductID: r.ID, Price: f.VariantPrice[i]}
		if i < len(f.VariantName) {
			v.Name = f.VariantName[i]
		}
		if i < len(f.VariantInhouse) {
			v.OnHand = f.VariantInhouse[i]
		}
		if i < len(f.VariantImage) {
			v.Image = imageURL(f.VariantImage[i])
		}
		p.Variants = append(p.Variants, v)
	}
	return p, nil
}

func (c CategoryRecord) Normalize() Category {
	return Category{ID: c.ID, Name: c.Fields.Name, Slug: c.Fields.Slug}
}
