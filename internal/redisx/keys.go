package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{idempotency key} -> "pending" or {"orderId","total"}
	KeyIdemCheckout = "idem:checkout:%s"

	// Cached order status: order_status:{order_id} -> {"orderId","status"}
	KeyOrderStatus = "order_status:%s"

	// Event dedup: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cart session: cart:{cart_id} -> JSON cart
	KeyCart = "cart:%s"

	// Cache entries and the tag sets that index them.
	KeyCache    = "cache:%s"
	KeyCacheTag = "cache:tag:%s"
)

const (
	TagAllProducts = "all-products"
	TagProducts    = "products"
	TagCategories  = "categories"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
