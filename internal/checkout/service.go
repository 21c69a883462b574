// Package checkout turns a validated cart into an order: it checks stock
// against one snapshot, persists the order and its lines, commits the stock
// decrements, invalidates cached listings and dispatches the confirmation.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/stock"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"time"
)

const (
	MsgSuccess      = "Đặt hàng thành công!"
	MsgFailed       = "Có lỗi xảy ra khi đặt hàng, vui lòng thử lại."
	MsgStockChanged = "Tồn kho vừa thay đổi, vui lòng kiểm tra lại giỏ hàng."
	MsgInProgress   = "Đơn hàng đang được xử lý."

	idemPending = "pending"
)

// ErrInProgress: another request holding the same idempotency key has not
// finished yet.
var ErrInProgress = errors.New("checkout with this idempotency key is in progress")

type StockStore interface {
	Levels(ctx context.Context, ids []string) (stock.Snapshot, error)
	Apply(ctx context.Context, plan []stock.Decrement) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *orders.Order) error
	CreateLines(ctx context.Context, orderID string, lines []orders.Line) error
	MarkFailed(ctx context.Context, orderID string) error
	FindByExternalID(ctx context.Context, externalID string) (orders.Order, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Notifier interface {
	Notify(ctx context.Context, o orders.Order) error
}

type Service struct {
	Stock    StockStore
	Orders   OrderStore
	Catalog  Invalidator
	Notifier Notifier
	Redis    *redis.Client // idempotency; optional
	Log      *zap.Logger
	Timeout  time.Duration
}

type Result struct {
	OrderID   string       `json:"orderId"`
	Total     int64        `json:"total"`
	EmailSent bool         `json:"emailSent"`
	Replayed  bool         `json:"idempotent,omitempty"`
	Phase     orders.Phase `json:"-"`
}

// Checkout runs one attempt to completion. It is detached from ctx's
// cancellation: once submitted, a client disconnect does not stop it halfway.
// idemKey may be empty.
func (s *Service) Checkout(ctx context.Context, req Request, idemKey string) (Result, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	ctx, span := otel.Tracer("checkout").Start(ctx, "Checkout")
	defer span.End()

	if err := Validate(&req); err != nil {
		span.AddEvent(string(orders.PhaseRejected))
		return Result{Phase: orders.PhaseRejected}, err
	}

	if idemKey != "" && s.Redis != nil {
		replay, owned, err := s.claim(ctx, idemKey)
		if err != nil {
			return Result{}, err
		}
		if !owned {
			return replay, nil
		}
	}

	res, err := s.run(ctx, span, req, idemKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(res.Phase))
	}
	if idemKey != "" && s.Redis != nil {
		s.settle(ctx, idemKey, res, err)
	}
	return res, err
}

type attempt struct {
	phase orders.Phase
	span  trace.Span
	log   *zap.Logger
}

func (a *attempt) advance(to orders.Phase) {
	if a.phase.Terminal() {
		a.log.Warn("checkout phase after terminal", zap.String("from", string(a.phase)), zap.String("to", string(to)))
		return
	}
	if !orders.CanAdvance(a.phase, to) {
		a.log.Warn("unexpected checkout phase", zap.String("from", string(a.phase)), zap.String("to", string(to)))
	}
	a.phase = to
	a.span.AddEvent(string(to))
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) run(ctx context.Context, span trace.Span, req Request, idemKey string) (Result, error) {
	log := s.logger()
	a := &attempt{phase: orders.PhaseReceived, span: span, log: log}
	fail := func(err error) (Result, error) {
		return Result{Phase: a.phase}, err
	}

	// an order placed earlier under this key stands; its Redis record may be
	// gone (expired or lost) while the row still carries the key
	if idemKey != "" {
		prev, err := s.Orders.FindByExternalID(ctx, idemKey)
		switch {
		case err == nil && prev.Status == orders.StatusPending:
			log.Info("replaying stored order", zap.String("order_id", prev.ID))
			return Result{OrderID: prev.ID, Total: prev.Total, Replayed: true}, nil
		case err == nil:
			return fail(fmt.Errorf("idempotency key held by %s order %s", prev.Status, prev.ID))
		case !errors.Is(err, orders.ErrNotFound):
			log.Error("idempotency lookup failed", zap.Error(err))
			return fail(fmt.Errorf("idempotency lookup: %w", err))
		}
	}

	lines := make([]stock.Line, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		name := it.Name
		if name == "" {
			name = it.VariantID
		}
		lines = append(lines, stock.Line{VariantID: it.VariantID, Quantity: it.Quantity, Name: name})
	}

	// 1) stock snapshot + reservation plan
	snap, err := s.Stock.Levels(ctx, stock.VariantIDs(lines))
	if err != nil {
		log.Error("stock snapshot failed", zap.Error(err))
		return fail(fmt.Errorf("stock snapshot: %w", err))
	}
	plan, err := stock.Reserve(lines, snap)
	if err != nil {
		a.advance(orders.PhaseRejected)
		log.Info("checkout rejected", zap.Error(err))
		return fail(err)
	}
	a.advance(orders.PhaseStockValidated)

	o := orders.Order{ExternalID: idemKey, Customer: req.customer()}
	for _, l := range lines {
		o.Lines = append(o.Lines, orders.Line{
			VariantID: l.VariantID,
			Name:      l.Name,
			Price:     snap[l.VariantID].Price,
			Quantity:  l.Quantity,
		})
	}
	o.Total = orders.Total(o.Lines)
	if req.CartTotal != 0 && req.CartTotal != o.Total {
		log.Warn("client total differs from server total", zap.Int64("client", req.CartTotal), zap.Int64("server", o.Total))
	}

	// 2) order header
	if err := s.Orders.CreateOrder(ctx, &o); err != nil {
		if errors.Is(err, orders.ErrDuplicate) {
			// a concurrent attempt with the same key got its row in first
			log.Info("checkout raced on idempotency key", zap.Error(err))
			return fail(ErrInProgress)
		}
		a.advance(orders.PhaseFailed)
		log.Error("create order failed", zap.Error(err))
		return fail(fmt.Errorf("create order: %w", err))
	}
	a.advance(orders.PhaseOrderPersisted)
	span.SetAttributes(attribute.String("order.id", o.ID))
	log = log.With(zap.String("order_id", o.ID))
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}

	// 3) lines
	if err := s.Orders.CreateLines(ctx, o.ID, o.Lines); err != nil {
		s.compensate(ctx, a, log, o.ID)
		log.Error("create order lines failed", zap.Error(err))
		return fail(fmt.Errorf("create order lines: %w", err))
	}
	a.advance(orders.PhaseLinesPersisted)

	// 4) stock write
	if err := s.Stock.Apply(ctx, plan); err != nil {
		s.compensate(ctx, a, log, o.ID)
		log.Error("stock commit failed", zap.Error(err))
		return fail(fmt.Errorf("commit stock: %w", err))
	}
	a.advance(orders.PhaseStockCommitted)

	res := Result{OrderID: o.ID, Total: o.Total}

	// 5) cache; stale entries still expire on their own
	if err := s.Catalog.Invalidate(ctx); err != nil {
		log.Warn("cache invalidation failed", zap.Error(err))
	}
	a.advance(orders.PhaseCacheInvalidated)

	// 6) confirmation; the order stands either way
	if err := s.Notifier.Notify(ctx, o); err != nil {
		log.Error("confirmation not sent", zap.Error(err))
		res.Phase = a.phase
		return res, nil
	}
	a.advance(orders.PhaseNotificationSent)
	res.EmailSent = true
	res.Phase = a.phase
	log.Info("order placed", zap.Int64("total", o.Total), zap.Int("lines", len(o.Lines)))
	return res, nil
}

// compensate marks the persisted order Failed, which also frees its
// idempotency key. Stock is only written in the last persistence step and
// atomically, so there is nothing to give back.
func (s *Service) compensate(ctx context.Context, a *attempt, log *zap.Logger, orderID string) {
	a.advance(orders.PhaseFailed)
	if err := s.Orders.MarkFailed(ctx, orderID); err != nil {
		log.Error("mark order failed", zap.Error(err))
	}
}

type idemRecord struct {
	OrderID string `json:"orderId"`
	Total   int64  `json:"total"`
}

// claim takes the idempotency key for this request. If another request
// already finished with it, that result is returned with owned=false.
func (s *Service) claim(ctx context.Context, key string) (replay Result, owned bool, err error) {
	rkey := fmt.Sprintf(redisx.KeyIdemCheckout, key)
	ok, err := redisx.Claim(ctx, s.Redis, rkey, idemPending, redisx.TTLIdempotency)
	if err != nil {
		return Result{}, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return Result{}, true, nil
	}
	val, err := s.Redis.Get(ctx, rkey).Result()
	if errors.Is(err, redis.Nil) {
		// released between SETNX and GET; let the caller retry
		return Result{}, false, ErrInProgress
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("idempotency read: %w", err)
	}
	if val == idemPending {
		return Result{}, false, ErrInProgress
	}
	var rec idemRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Result{}, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return Result{OrderID: rec.OrderID, Total: rec.Total, Replayed: true}, false, nil
}

// settle stores the outcome under the key, or releases it when the attempt
// failed so the client can try again.
func (s *Service) settle(ctx context.Context, key string, res Result, runErr error) {
	rkey := fmt.Sprintf(redisx.KeyIdemCheckout, key)
	if runErr != nil {
		_ = s.Redis.Del(ctx, rkey).Err()
		return
	}
	b, _ := json.Marshal(idemRecord{OrderID: res.OrderID, Total: res.Total})
	if err := s.Redis.Set(ctx, rkey, b, redisx.TTLIdempotency).Err(); err != nil {
		s.logger().Warn("idempotency store failed", zap.String("order_id", res.OrderID), zap.Error(err))
	}
}
