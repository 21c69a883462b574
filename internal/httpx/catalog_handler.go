package httpx

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/vntext"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Catalog is what the catalog endpoints read from (*catalog.Service).
type Catalog interface {
	Products(ctx context.Context) ([]catalog.Product, error)
	Featured(ctx context.Context) ([]catalog.Product, error)
	Product(ctx context.Context, id string) (catalog.Product, error)
	CategoryBySlug(ctx context.Context, slug string) (catalog.Category, error)
}

type CatalogHandler struct {
	Catalog Catalog
	Log     *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/featured", h.listFeatured)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories/{slug}/products", h.listCategory)
}

// listQuery keeps page as text so a malformed value can be told apart from a
// missing one.
type listQuery struct {
	Page string `schema:"page"`
	Sort string `schema:"sort"`
}

type ProductSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Images     []string `json:"images"`
	Categories []string `json:"categories"`
	MinPrice   *int64   `json:"minPrice"`
	PriceLabel string   `json:"priceLabel,omitempty"`
}

func summarize(p catalog.Product) ProductSummary {
	s := ProductSummary{ID: p.ID, Name: p.Name, Slug: p.DisplaySlug(), Images: p.Images, Categories: p.Categories}
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	if price, ok := p.MinPrice(); ok {
		s.MinPrice = &price
		s.PriceLabel = vntext.FormatVND(price)
	}
	return s
}

type ListResponse struct {
	Products   []ProductSummary  `json:"products"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Sort       string            `json:"sort"`
	Category   *catalog.Category `json:"category,omitempty"`
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.Products(ctx)
	if err != nil {
		h.Log.Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	h.writeListing(w, r, ps, nil)
}

type FeaturedResponse struct {
	Products []ProductSummary `json:"products"`
}

func (h *CatalogHandler) listFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.Featured(ctx)
	if err != nil {
		h.Log.Error("featured products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	resp := FeaturedResponse{Products: make([]ProductSummary, 0, len(ps))}
	for _, p := range ps {
		resp.Products = append(resp.Products, summarize(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) listCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Catalog.CategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.Log.Error("category lookup", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	ps, err := h.Catalog.Products(ctx)
	if err != nil {
		h.Log.Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	h.writeListing(w, r, catalog.FilterByCategory(ps, c.ID), &c)
}

// writeListing sorts and paginates ps. An unparsable page or sort redirects
// to page 1, a page past the end to the last page.
func (h *CatalogHandler) writeListing(w http.ResponseWriter, r *http.Request, ps []catalog.Product, c *catalog.Category) {
	var q listQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		redirectPage(w, r, 1, "")
		return
	}
	sortOpt, err := catalog.ParseSort(q.Sort)
	if err != nil {
		redirectPage(w, r, 1, "")
		return
	}
	page := 1
	if q.Page != "" {
		page, err = strconv.Atoi(q.Page)
		if err != nil || page < 1 {
			redirectPage(w, r, 1, q.Sort)
			return
		}
	}
	if last := catalog.LastPage(len(ps), page, catalog.PerPage); last > 0 {
		redirectPage(w, r, last, q.Sort)
		return
	}

	pg := catalog.Paginate(catalog.SortProducts(ps, sortOpt), page, catalog.PerPage)
	resp := ListResponse{
		Products:   make([]ProductSummary, 0, len(pg.Items)),
		Page:       pg.Page,
		TotalPages: pg.TotalPages,
		TotalItems: pg.TotalItems,
		Sort:       string(sortOpt),
		Category:   c,
	}
	for _, p := range pg.Items {
		resp.Products = append(resp.Products, summarize(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func redirectPage(w http.ResponseWriter, r *http.Request, page int, sort string) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	if sort != "" {
		v.Set("sort", sort)
	}
	http.Redirect(w, r, fmt.Sprintf("%s?%s", r.URL.Path, v.Encode()), http.StatusFound)
}

type ProductDetail struct {
	catalog.Product
	Slug            string `json:"slug"`
	MinPrice        *int64 `json:"minPrice"`
	PriceLabel      string `json:"priceLabel,omitempty"`
	DescriptionHTML string `json:"descriptionHtml"`
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Product(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.Log.Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	d := ProductDetail{Product: p, Slug: p.DisplaySlug()}
	if price, ok := p.MinPrice(); ok {
		d.MinPrice = &price
		d.PriceLabel = vntext.FormatVND(price)
	}
	if d.DescriptionHTML, err = catalog.RenderDescription(p.Description); err != nil {
		h.Log.Warn("render description", zap.String("product_id", p.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, d)
}
