package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/stock"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type StatusReader interface {
	GetStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type OrdersHandler struct {
	Checkout *checkout.Service
	Orders   StatusReader
	Redis    *redis.Client
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
}

type CheckoutResp struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OrderID    string `json:"orderId"`
	Total      int64  `json:"total"`
	EmailSent  bool   `json:"emailSent"`
	Idempotent bool   `json:"idempotent,omitempty"`
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": checkout.MsgMissingInfo})
		return
	}
	res, err := h.Checkout.Checkout(r.Context(), req, r.Header.Get("Idempotency-Key"))
	writeCheckout(w, h.Log, res, err)
}

// writeCheckout maps a checkout outcome to the response: validation 400,
// in-flight duplicate 409, stock 500 with the specific message, anything else
// 500 with a generic one.
func writeCheckout(w http.ResponseWriter, log *zap.Logger, res checkout.Result, err error) {
	var ve *checkout.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, CheckoutResp{
			Success:    true,
			Message:    checkout.MsgSuccess,
			OrderID:    res.OrderID,
			Total:      res.Total,
			EmailSent:  res.EmailSent,
			Idempotent: res.Replayed,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": ve.Error(), "fields": ve.Fields})
	case errors.Is(err, checkout.ErrInProgress):
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": checkout.MsgInProgress})
	case stock.IsRejection(err):
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
	case errors.Is(err, stock.ErrConflict):
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": checkout.MsgStockChanged})
	default:
		log.Error("checkout failed", zap.String("phase", string(res.Phase)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": checkout.MsgFailed})
	}
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	status, err := h.Orders.GetStatus(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.Log.Error("order status", zap.String("order_id", orderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	b, _ := json.Marshal(map[string]any{"orderId": orderID, "status": status})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
