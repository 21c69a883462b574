// Package stock validates a cart against on-hand quantities and stages the
// decrements a successful checkout applies.
package stock

import (
	"errors"
	"fmt"
)

// Level is a variant's stock record at snapshot time.
type Level struct {
	OnHand int
	Price  int64
	Name   string
}

// Snapshot maps variant id to its level. It is read once per checkout and is
// not locked.
type Snapshot map[string]Level

// Line is one cart entry to reserve. Name is only used in messages.
type Line struct {
	VariantID string
	Quantity  int
	Name      string
}

type Decrement struct {
	VariantID string
	From      int
	To        int
}

var ErrConflict = errors.New("stock changed concurrently")

// NotFoundError: the snapshot has no record for the line's variant.
type NotFoundError struct {
	Line Line
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Không tìm thấy sản phẩm %s.", e.Line.Name)
}

// InsufficientError: fewer units on hand than requested.
type InsufficientError struct {
	Line      Line
	Available int
	Requested int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("Sản phẩm \"%s\" chỉ còn %d sản phẩm (bạn đang đặt %d).", e.Line.Name, e.Available, e.Requested)
}

// IsRejection reports whether err is a per-line stock failure (as opposed to a
// backend error).
func IsRejection(err error) bool {
	var nf *NotFoundError
	var ins *InsufficientError
	return errors.As(err, &nf) || errors.As(err, &ins)
}

// VariantIDs lists the distinct variant ids of lines in order; this is the
// exact set a snapshot is fetched for.
func VariantIDs(lines []Line) []string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.VariantID] {
			seen[l.VariantID] = true
			out = append(out, l.VariantID)
		}
	}
	return out
}

// Reserve checks lines in order against snap and returns one decrement per
// line. The first line that cannot be satisfied aborts with no plan at all.
// Repeated variants draw from the same running balance.
func Reserve(lines []Line, snap Snapshot) ([]Decrement, error) {
	remaining := make(map[string]int, len(snap))
	plan := make([]Decrement, 0, len(lines))
	for _, l := range lines {
		lvl, ok := snap[l.VariantID]
		if !ok {
			return nil, &NotFoundError{Line: l}
		}
		onHand, seen := remaining[l.VariantID]
		if !seen {
			onHand = lvl.OnHand
		}
		if onHand < l.Quantity {
			return nil, &InsufficientError{Line: l, Available: onHand, Requested: l.Quantity}
		}
		plan = append(plan, Decrement{VariantID: l.VariantID, From: onHand, To: onHand - l.Quantity})
		remaining[l.VariantID] = onHand - l.Quantity
	}
	return plan, nil
}
