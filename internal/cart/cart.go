// Package cart holds the server-side shopping cart: an explicit value with an
// expiry, mutated by handlers and persisted in Redis between requests.
package cart

import (
	"errors"
	"github.com/google/uuid"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("cart line not found")
)

type Line struct {
	VariantID   string `json:"variant_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
}

// DisplayName is how the line is named to the customer, e.g. "Áo thun - M".
func (l Line) DisplayName() string {
	if l.VariantName == "" {
		return l.ProductName
	}
	return l.ProductName + " - " + l.VariantName
}

type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func New() *Cart {
	return &Cart{ID: uuid.NewString(), Lines: []Line{}}
}

func (c *Cart) find(variantID string) int {
	for i := range c.Lines {
		if c.Lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// Add appends l, or merges its quantity into an existing line for the same
// variant. Price and names are refreshed from l.
func (c *Cart) Add(l Line) error {
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.find(l.VariantID); i >= 0 {
		l.Quantity += c.Lines[i].Quantity
		c.Lines[i] = l
		return nil
	}
	c.Lines = append(c.Lines, l)
	return nil
}

// Increase adjusts a line by delta (which may be negative). Quantity never
// drops below 1; use Remove for that.
func (c *Cart) Increase(variantID string, delta int) error {
	i := c.find(variantID)
	if i < 0 {
		return ErrLineNotFound
	}
	q := c.Lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.Lines[i].Quantity = q
	return nil
}

func (c *Cart) SetQuantity(variantID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	i := c.find(variantID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(variantID string) error {
	i := c.find(variantID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

func (c *Cart) Reset() { c.Lines = []Line{} }

func (c *Cart) Total() int64 {
	var t int64
	for _, l := range c.Lines {
		t += l.Price * int64(l.Quantity)
	}
	return t
}

func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Expired reports whether the cart's lifetime has run out. A cart that was
// never touched does not expire.
func (c *Cart) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}
