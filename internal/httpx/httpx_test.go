package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/search"
	"github.com/ariefcatur/go-storefront/internal/stock"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeCatalog struct {
	products   []catalog.Product
	categories map[string]catalog.Category
	err        error
}

func (f *fakeCatalog) Products(context.Context) ([]catalog.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) Featured(context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range f.products {
		if p.Featured && len(out) < catalog.FeaturedLimit {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeCatalog) Snapshot(ctx context.Context) ([]catalog.Product, error) {
	return f.Products(ctx)
}

func (f *fakeCatalog) Product(_ context.Context, id string) (catalog.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

func (f *fakeCatalog) CategoryBySlug(_ context.Context, slug string) (catalog.Category, error) {
	c, ok := f.categories[slug]
	if !ok {
		return catalog.Category{}, catalog.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalog) FindVariant(_ context.Context, id string) (catalog.Product, catalog.Variant, error) {
	for _, p := range f.products {
		if v, ok := p.Variant(id); ok {
			return p, v, nil
		}
	}
	return catalog.Product{}, catalog.Variant{}, catalog.ErrNotFound
}

func (f *fakeCatalog) Invalidate(context.Context) error { return nil }

func catalogWith(n int) *fakeCatalog {
	f := &fakeCatalog{categories: map[string]catalog.Category{"ao": {ID: "c-ao", Name: "Áo", Slug: "ao"}}}
	for i := 0; i < n; i++ {
		p := catalog.Product{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("Sản phẩm %02d", i),
			Images:   catalog.ImageRefs{fmt.Sprintf("https://img/p%d.jpg", i)},
			Variants: []catalog.Variant{{ID: fmt.Sprintf("p%d-v", i), ProductID: fmt.Sprintf("p%d", i), Name: "M", Price: int64(1000 * (i + 1)), OnHand: 3}},
		}
		if i%2 == 0 {
			p.Categories = []string{"c-ao"}
		}
		f.products = append(f.products, p)
	}
	return f
}

type stubStock struct{ snap stock.Snapshot }

func (s *stubStock) Levels(_ context.Context, ids []string) (stock.Snapshot, error) {
	out := stock.Snapshot{}
	for _, id := range ids {
		if l, ok := s.snap[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func (s *stubStock) Apply(_ context.Context, plan []stock.Decrement) error {
	for _, d := range plan {
		l := s.snap[d.VariantID]
		if l.OnHand != d.From {
			return stock.ErrConflict
		}
		l.OnHand = d.To
		s.snap[d.VariantID] = l
	}
	return nil
}

type stubOrders struct {
	n      int
	status map[string]orders.Status
	keys   map[string]orders.Order
}

func (s *stubOrders) CreateOrder(_ context.Context, o *orders.Order) error {
	if _, taken := s.keys[o.ExternalID]; taken {
		return fmt.Errorf("insert order %s: %w", o.ExternalID, orders.ErrDuplicate)
	}
	s.n++
	o.ID = fmt.Sprintf("ord-%d", s.n)
	s.status[o.ID] = orders.StatusPending
	if o.ExternalID != "" {
		s.keys[o.ExternalID] = *o
	}
	return nil
}
func (s *stubOrders) FindByExternalID(_ context.Context, key string) (orders.Order, error) {
	o, ok := s.keys[key]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	o.Status = s.status[o.ID]
	return o, nil
}
func (s *stubOrders) CreateLines(context.Context, string, []orders.Line) error { return nil }
func (s *stubOrders) MarkFailed(_ context.Context, id string) error {
	s.status[id] = orders.StatusFailed
	for k, o := range s.keys {
		if o.ID == id {
			delete(s.keys, k)
		}
	}
	return nil
}
func (s *stubOrders) GetStatus(_ context.Context, id string) (orders.Status, error) {
	st, ok := s.status[id]
	if !ok {
		return "", orders.ErrNotFound
	}
	return st, nil
}

type stubNotifier struct{ n int }

func (s *stubNotifier) Notify(context.Context, orders.Order) error {
	s.n++
	return nil
}

type env struct {
	srv     *httptest.Server
	mr      *miniredis.Miniredis
	catalog *fakeCatalog
	stock   *stubStock
	orders  *stubOrders
	notify  *stubNotifier
}

func newEnv(t *testing.T, products int) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &env{mr: mr, catalog: catalogWith(products), orders: &stubOrders{status: map[string]orders.Status{}, keys: map[string]orders.Order{}}, notify: &stubNotifier{}}
	e.stock = &stubStock{snap: stock.Snapshot{}}
	for _, p := range e.catalog.products {
		for _, v := range p.Variants {
			e.stock.snap[v.ID] = stock.Level{OnHand: v.OnHand, Price: v.Price, Name: v.Name}
		}
	}

	log := zap.NewNop()
	co := &checkout.Service{Stock: e.stock, Orders: e.orders, Catalog: e.catalog, Notifier: e.notify, Redis: rdb, Log: log}
	r := NewRouter(log)
	(&CatalogHandler{Catalog: e.catalog, Log: log}).Register(r)
	(&SearchHandler{Search: &search.Service{Catalog: e.catalog}, Log: log}).Register(r)
	(&CartHandler{Carts: &cart.Store{RDB: rdb, TTL: time.Hour}, Catalog: e.catalog, Checkout: co, Log: log}).Register(r)
	(&OrdersHandler{Checkout: co, Orders: e.orders, Redis: rdb, Log: log}).Register(r)

	e.srv = httptest.NewServer(r)
	t.Cleanup(e.srv.Close)
	return e
}

var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func (e *env) do(t *testing.T, method, path, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, 0)
	resp := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProductsPaginatesAndSorts(t *testing.T) {
	e := newEnv(t, 30)

	var page ListResponse
	resp := e.do(t, http.MethodGet, "/products?page=3&sort=price-desc", "", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 30, page.TotalItems)
	require.Len(t, page.Products, 6)
	// cheapest six on the last page of a descending sort
	assert.EqualValues(t, 6000, *page.Products[0].MinPrice)
	assert.Equal(t, "6.000₫", page.Products[0].PriceLabel)
}

func TestListProductsRedirects(t *testing.T) {
	e := newEnv(t, 30)
	cases := map[string]string{
		"/products?page=abc":              "/products?page=1",
		"/products?page=0&sort=name-asc":  "/products?page=1&sort=name-asc",
		"/products?sort=cheapest":         "/products?page=1",
		"/products?page=9&sort=price-asc": "/products?page=3&sort=price-asc",
	}
	for in, want := range cases {
		resp := e.do(t, http.MethodGet, in, "", nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode, in)
		assert.Equal(t, want, resp.Header.Get("Location"), in)
	}
}

func TestFeaturedProducts(t *testing.T) {
	e := newEnv(t, 20)
	for i := range e.catalog.products {
		e.catalog.products[i].Featured = i%2 == 1
	}

	var got FeaturedResponse
	resp := e.do(t, http.MethodGet, "/products/featured", "", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Products, 8)
	assert.Equal(t, "p1", got.Products[0].ID)
	assert.Equal(t, "2.000₫", got.Products[0].PriceLabel)

	e.catalog.products = e.catalog.products[:1]
	resp = e.do(t, http.MethodGet, "/products/featured", "", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, got.Products)
	assert.Empty(t, got.Products)
}

func TestCategoryListing(t *testing.T) {
	e := newEnv(t, 6)
	var page ListResponse
	resp := e.do(t, http.MethodGet, "/categories/ao/products", "", &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, page.TotalItems)
	require.NotNil(t, page.Category)
	assert.Equal(t, "Áo", page.Category.Name)

	resp = e.do(t, http.MethodGet, "/categories/khong-co/products", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductDetail(t *testing.T) {
	e := newEnv(t, 2)
	e.catalog.products[1].Description = `**Chất liệu:** cotton\n100%`

	var d ProductDetail
	resp := e.do(t, http.MethodGet, "/products/p1", "", &d)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "san-pham-01", d.Slug)
	assert.EqualValues(t, 2000, *d.MinPrice)
	assert.Contains(t, d.DescriptionHTML, "<strong>Chất liệu:</strong>")

	resp = e.do(t, http.MethodGet, "/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	e := newEnv(t, 3)

	var res search.Result
	resp := e.do(t, http.MethodGet, "/search?q=san+pham", "", &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, res.Total)

	resp = e.do(t, http.MethodGet, "/search?q=x", "", &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, search.MsgQueryTooShort, res.Message)

	var body map[string]string
	resp = e.do(t, http.MethodGet, "/search?q="+strings.Repeat("a", 101), "", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, search.MsgQueryTooLong, body["error"])

	e.catalog.err = errors.New("db down")
	resp = e.do(t, http.MethodGet, "/search?q=san", "", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, search.MsgSearchFailed, body["error"])
}

const customerJSON = `{"name":"Lê Văn Cường","phone":"0987654321","email":"cuong@example.com","address":"99 Trần Phú, Đà Nẵng"}`

func TestCartFlowAndCheckout(t *testing.T) {
	e := newEnv(t, 2)

	var c CartResponse
	resp := e.do(t, http.MethodPost, "/carts", "", &c)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := c.ID

	resp = e.do(t, http.MethodPost, "/carts/"+id+"/items", `{"variant_id":"p0-v","quantity":2}`, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/carts/"+id+"/items", `{"variant_id":"p1-v"}`, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2*1000+2000, c.Total)
	assert.Equal(t, "Sản phẩm 00 - M", c.Lines[0].DisplayName())

	resp = e.do(t, http.MethodPatch, "/carts/"+id+"/items/p1-v", `{"delta":1}`, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, c.Lines[1].Quantity)

	resp = e.do(t, http.MethodPatch, "/carts/"+id+"/items/p1-v", `{"quantity":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = e.do(t, http.MethodPatch, "/carts/"+id+"/items/zzz", `{"quantity":1}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/carts/"+id+"/items", `{"variant_id":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var out CheckoutResp
	resp = e.do(t, http.MethodPost, "/carts/"+id+"/checkout", `{"values":`+customerJSON+`}`, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	assert.Equal(t, checkout.MsgSuccess, out.Message)
	assert.EqualValues(t, 6000, out.Total)
	assert.True(t, out.EmailSent)
	assert.Equal(t, 1, e.stock.snap["p0-v"].OnHand)
	assert.Equal(t, 1, e.stock.snap["p1-v"].OnHand)

	resp = e.do(t, http.MethodGet, "/carts/"+id, "", &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, c.Lines)

	// the cart is empty now
	var fail map[string]any
	resp = e.do(t, http.MethodPost, "/carts/"+id+"/checkout", `{"values":`+customerJSON+`}`, &fail)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, fail["success"])
}

func TestRemoveItemAndResetCart(t *testing.T) {
	e := newEnv(t, 2)
	var c CartResponse
	e.do(t, http.MethodPost, "/carts", "", &c)
	id := c.ID
	e.do(t, http.MethodPost, "/carts/"+id+"/items", `{"variant_id":"p0-v"}`, &c)
	e.do(t, http.MethodPost, "/carts/"+id+"/items", `{"variant_id":"p1-v"}`, &c)

	resp := e.do(t, http.MethodDelete, "/carts/"+id+"/items/p0-v", "", &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, c.Lines, 1)

	resp = e.do(t, http.MethodDelete, "/carts/"+id, "", &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, c.Lines)
}

func checkoutBody(variant string, qty int) string {
	return fmt.Sprintf(`{"values":%s,"cartItems":[{"variant_id":%q,"name":"Sản phẩm","price":1,"quantity":%d}],"cartTotal":1}`, customerJSON, variant, qty)
}

func TestCheckoutEndpointErrors(t *testing.T) {
	e := newEnv(t, 1)

	var body map[string]any
	resp := e.do(t, http.MethodPost, "/checkout", `{"values":{},"cartItems":[]}`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["fields"])

	resp = e.do(t, http.MethodPost, "/checkout", `not json`, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, checkout.MsgMissingInfo, body["error"])

	resp = e.do(t, http.MethodPost, "/checkout", checkoutBody("p0-v", 5), &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, `Sản phẩm "Sản phẩm" chỉ còn 3 sản phẩm (bạn đang đặt 5).`, body["error"])
	assert.Equal(t, 0, e.orders.n)
}

func TestCheckoutEndpointIdempotencyAndStatus(t *testing.T) {
	e := newEnv(t, 1)

	send := func() CheckoutResp {
		req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/checkout", strings.NewReader(checkoutBody("p0-v", 1)))
		require.NoError(t, err)
		req.Header.Set("Idempotency-Key", "abc-123")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out CheckoutResp
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}
	first := send()
	second := send()
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Idempotent)
	assert.Equal(t, 2, e.stock.snap["p0-v"].OnHand)
	assert.Equal(t, 1, e.notify.n)

	// the Redis record is gone but the order row still carries the key
	e.mr.Del("idem:checkout:abc-123")
	third := send()
	assert.Equal(t, first.OrderID, third.OrderID)
	assert.True(t, third.Idempotent)
	assert.Equal(t, 1, e.orders.n)
	assert.Equal(t, 2, e.stock.snap["p0-v"].OnHand)

	var st map[string]string
	resp := e.do(t, http.MethodGet, "/orders/"+first.OrderID, "", &st)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pending", st["status"])
	assert.True(t, e.mr.Exists("order_status:"+first.OrderID))

	resp = e.do(t, http.MethodGet, "/orders/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccessLogWrapsHandlers(t *testing.T) {
	r := chi.NewRouter()
	r.Use(AccessLog(zap.NewNop()))
	r.Get("/x", func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusTeapot, "x") })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
