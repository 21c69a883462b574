package search

import (
	"context"
	"github.com/ariefcatur/go-storefront/internal/catalog"
)

// Snapshotter supplies the cached product set searched over.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]catalog.Product, error)
}

type Service struct {
	Catalog Snapshotter
}

// Search validates raw, then ranks the current snapshot. Invalid queries never
// touch the catalog.
func (s *Service) Search(ctx context.Context, raw string) (Result, error) {
	q, early, ok, err := Check(raw)
	if err != nil || !ok {
		return early, err
	}
	products, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	return Rank(q, products), nil
}
