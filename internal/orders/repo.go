package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrNotFound          = errors.New("order not found")
	ErrDuplicate         = errors.New("order with this external id already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

const uniqueViolation = "23505"

// CreateOrder inserts the order header with status Pending and fills in ID
// and CreatedAt. Lines are written separately by CreateLines.
func (r *Repo) CreateOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Status = StatusPending
	o.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, external_id, name, phone, email, address, status, total, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.ExternalID, o.Customer.Name, o.Customer.Phone, o.Customer.Email, o.Customer.Address,
		string(o.Status), o.Total, o.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "orders_external_id_key" {
		return fmt.Errorf("insert order %s: %w", o.ExternalID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateLines writes all lines of an order in one batch and one transaction.
func (r *Repo) CreateLines(ctx context.Context, orderID string, lines []Line) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for i, l := range lines {
		b.Queue(`
			INSERT INTO order_lines(order_id, position, variant_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, i, l.VariantID, l.Name, l.Price, l.Quantity)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkFailed moves an order to Failed and releases its external id, so a
// retry with the same idempotency key can place a new order.
func (r *Repo) MarkFailed(ctx context.Context, orderID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("mark failed %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if !CanTransition(Status(cur), StatusFailed) {
		return fmt.Errorf("mark failed %s: %s -> %s: %w", orderID, cur, StatusFailed, ErrInvalidTransition)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, external_id = NULL WHERE id = $1`,
		orderID, string(StatusFailed)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// FindByExternalID returns the header (no lines) of the order a previous
// checkout with the same idempotency key created. Failed orders give their
// key up, so only live orders are found.
func (r *Repo) FindByExternalID(ctx context.Context, externalID string) (Order, error) {
	o := Order{ExternalID: externalID}
	var status string
	err := r.DB.QueryRow(ctx, `SELECT id, status, total, created_at FROM orders WHERE external_id=$1`, externalID).
		Scan(&o.ID, &status, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}

// Get loads an order with its lines.
func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	var (
		o      Order
		ext    *string
		status string
	)
	err := r.DB.QueryRow(ctx, `
		SELECT id, external_id, name, phone, email, address, status, total, created_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &ext, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email, &o.Customer.Address,
			&status, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	if ext != nil {
		o.ExternalID = *ext
	}

	rows, err := r.DB.Query(ctx, `
		SELECT order_id, variant_id, name, price, quantity
		FROM order_lines WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	o.Lines = []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderID, &l.VariantID, &l.Name, &l.Price, &l.Quantity); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}
