package orders

import "time"

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Order struct {
	ID         string
	ExternalID string // Idempotency-Key of the checkout that created it, if any
	Customer   Customer
	Status     Status // lihat status.go
	Total      int64
	Lines      []Line
	CreatedAt  time.Time
}

// Line is one purchased variant. Price is the unit price captured at checkout.
type Line struct {
	OrderID   string `json:"order_id"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

func (l Line) Subtotal() int64 { return l.Price * int64(l.Quantity) }

func Total(lines []Line) int64 {
	var t int64
	for _, l := range lines {
		t += l.Subtotal()
	}
	return t
}
