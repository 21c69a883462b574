package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Export is the JSON dump the importer reads: category and product records as
// the spreadsheet backend returns them.
type Export struct {
	Categories []CategoryRecord `json:"categories"`
	Products   []Record         `json:"products"`
}

type Writer interface {
	UpsertCategory(ctx context.Context, c Category) error
	UpsertProduct(ctx context.Context, p Product) error
}

type ImportStats struct {
	Categories int
	Products   int
	Variants   int
	Skipped    []string // record ids that failed to normalize
}

// Import decodes an Export from r and writes it through w, categories first.
// Records that fail to normalize are skipped and reported; write errors abort.
func Import(ctx context.Context, w Writer, r io.Reader) (ImportStats, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return ImportStats{}, fmt.Errorf("decode export: %w", err)
	}

	var st ImportStats
	for _, cr := range exp.Categories {
		if err := w.UpsertCategory(ctx, cr.Normalize()); err != nil {
			return st, fmt.Errorf("category %s: %w", cr.ID, err)
		}
		st.Categories++
	}
	for _, rec := range exp.Products {
		p, err := rec.Normalize()
		if err != nil {
			st.Skipped = append(st.Skipped, rec.ID)
			continue
		}
		if err := w.UpsertProduct(ctx, p); err != nil {
			return st, err
		}
		st.Products++
		st.Variants += len(p.Variants)
	}
	return st, nil
}
