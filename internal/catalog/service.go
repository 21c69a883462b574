package catalog

import (
	"context"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"time"
)

// Source is the backing store of the catalog (Repo in production).
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CategoryBySlug(ctx context.Context, slug string) (Category, error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)
}

// FeaturedLimit caps the featured listing.
const FeaturedLimit = 8

// Service serves catalog reads through the tagged Redis cache. Listings and
// the search snapshot are cached separately, with their own validity windows,
// the way the pages and the search endpoint each kept their own cache.
type Service struct {
	Source    Source
	Cache     *redisx.Cache
	ListTTL   time.Duration
	SearchTTL time.Duration
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return redisx.Remember(ctx, s.Cache, "products:all", s.ListTTL,
		[]string{redisx.TagAllProducts}, s.Source.ListProducts)
}

// Featured is the homepage selection. It shares the all-products tag so a
// checkout refreshes it together with the listings.
func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	return redisx.Remember(ctx, s.Cache, "products:featured", s.ListTTL,
		[]string{redisx.TagAllProducts}, func(ctx context.Context) ([]Product, error) {
			return s.Source.FeaturedProducts(ctx, FeaturedLimit)
		})
}

// Snapshot is the product set the search ranker runs over.
func (s *Service) Snapshot(ctx context.Context) ([]Product, error) {
	return redisx.Remember(ctx, s.Cache, "products:search", s.SearchTTL,
		[]string{redisx.TagProducts}, s.Source.ListProducts)
}

func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	return redisx.Remember(ctx, s.Cache, "product:"+id, s.ListTTL,
		[]string{redisx.TagProducts}, func(ctx context.Context) (Product, error) {
			return s.Source.GetProduct(ctx, id)
		})
}

func (s *Service) CategoryBySlug(ctx context.Context, slug string) (Category, error) {
	return redisx.Remember(ctx, s.Cache, "category:"+slug, s.ListTTL,
		[]string{redisx.TagCategories}, func(ctx context.Context) (Category, error) {
			return s.Source.CategoryBySlug(ctx, slug)
		})
}

// FindVariant locates a variant and its product in the cached listing.
func (s *Service) FindVariant(ctx context.Context, variantID string) (Product, Variant, error) {
	ps, err := s.Products(ctx)
	if err != nil {
		return Product{}, Variant{}, err
	}
	for _, p := range ps {
		if v, ok := p.Variant(variantID); ok {
			return p, v, nil
		}
	}
	return Product{}, Variant{}, ErrNotFound
}

// Invalidate drops cached listings and product details; called after stock
// changes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.Cache.Invalidate(ctx, redisx.TagAllProducts, redisx.TagProducts)
}
