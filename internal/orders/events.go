package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced = "OrderPlaced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "storefront-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID  string      `json:"order_id"`
	Customer Customer    `json:"customer"`
	Items    []ItemPrice `json:"items"`
	Total    int64       `json:"total"`
}

func PlacedPayload(o Order) OrderPlacedPayload {
	items := make([]ItemPrice, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, ItemPrice{VariantID: l.VariantID, Name: l.Name, Qty: l.Quantity, Price: l.Price})
	}
	return OrderPlacedPayload{OrderID: o.ID, Customer: o.Customer, Items: items, Total: o.Total}
}
