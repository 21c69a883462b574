package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type CartStore interface {
	Load(ctx context.Context, id string) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, id string) error
}

type VariantFinder interface {
	FindVariant(ctx context.Context, variantID string) (catalog.Product, catalog.Variant, error)
}

type CartHandler struct {
	Carts    CartStore
	Catalog  VariantFinder
	Checkout *checkout.Service
	Log      *zap.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Post("/carts", h.create)
	r.Route("/carts/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.reset)
		r.Post("/items", h.addItem)
		r.Patch("/items/{variantID}", h.updateItem)
		r.Delete("/items/{variantID}", h.removeItem)
		r.Post("/checkout", h.checkout)
	})
}

type CartResponse struct {
	*cart.Cart
	Total int64 `json:"total"`
	Count int   `json:"count"`
}

func cartResponse(c *cart.Cart) CartResponse {
	return CartResponse{Cart: c, Total: c.Total(), Count: c.Count()}
}

func (h *CartHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c := cart.New()
	if err := h.Carts.Save(ctx, c); err != nil {
		h.Log.Error("save cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, cartResponse(c))
}

// mutate loads the cart named in the path, applies fn and saves it. fn errors
// are client errors.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, c *cart.Cart) error) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("load cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if fn != nil {
		if err := fn(ctx, c); err != nil {
			writeCartError(w, err)
			return
		}
		if err := h.Carts.Save(ctx, c); err != nil {
			h.Log.Error("save cart", zap.Error(err))
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
	}
	writeJSON(w, http.StatusOK, cartResponse(c))
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "Số lượng phải lớn hơn 0")
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "Không tìm thấy sản phẩm trong giỏ hàng")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Không tìm thấy sản phẩm")
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil)
}

func (h *CartHandler) reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(_ context.Context, c *cart.Cart) error {
		c.Reset()
		return nil
	})
}

type addItemReq struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VariantID == "" {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	h.mutate(w, r, func(ctx context.Context, c *cart.Cart) error {
		p, v, err := h.Catalog.FindVariant(ctx, req.VariantID)
		if err != nil {
			return err
		}
		image := v.Image
		if image == "" {
			image = p.Images.First()
		}
		return c.Add(cart.Line{
			VariantID:   v.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			VariantName: v.Name,
			Price:       v.Price,
			Quantity:    req.Quantity,
			Image:       image,
		})
	})
}

// updateItemReq sets an absolute quantity or applies a delta.
type updateItemReq struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Quantity == nil) == (req.Delta == nil) {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	variantID := chi.URLParam(r, "variantID")
	h.mutate(w, r, func(_ context.Context, c *cart.Cart) error {
		if req.Quantity != nil {
			return c.SetQuantity(variantID, *req.Quantity)
		}
		return c.Increase(variantID, *req.Delta)
	})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantID")
	h.mutate(w, r, func(_ context.Context, c *cart.Cart) error {
		return c.Remove(variantID)
	})
}

type cartCheckoutReq struct {
	Values checkout.Values `json:"values"`
}

// checkout places an order from the stored cart and empties it on success.
func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req cartCheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": checkout.MsgMissingInfo})
		return
	}
	ctx := r.Context()
	c, err := h.Carts.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.Log.Error("load cart", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": checkout.MsgFailed})
		return
	}

	res, err := h.Checkout.Checkout(ctx, checkout.FromCart(req.Values, c), r.Header.Get("Idempotency-Key"))
	if err == nil && !res.Replayed {
		c.Reset()
		if serr := h.Carts.Save(context.WithoutCancel(ctx), c); serr != nil {
			h.Log.Warn("reset cart after checkout", zap.String("order_id", res.OrderID), zap.Error(serr))
		}
	}
	writeCheckout(w, h.Log, res, err)
}
