package stock

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Levels reads stock for exactly ids in one round-trip. Unknown ids are simply
// absent from the snapshot.
func (r *Repo) Levels(ctx context.Context, ids []string) (Snapshot, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, inhouse, price, name FROM variants WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := make(Snapshot, len(ids))
	for rows.Next() {
		var (
			id  string
			lvl Level
		)
		if err := rows.Scan(&id, &lvl.OnHand, &lvl.Price, &lvl.Name); err != nil {
			return nil, err
		}
		snap[id] = lvl
	}
	return snap, rows.Err()
}

// Apply writes the staged decrements as one batch inside one transaction. Each
// update only lands if the row still holds the value the plan was computed
// from; if any does not, nothing is written and ErrConflict is returned.
func (r *Repo) Apply(ctx context.Context, plan []Decrement) error {
	if len(plan) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for _, d := range plan {
		b.Queue(`UPDATE variants SET inhouse = $3 WHERE id = $1 AND inhouse = $2`, d.VariantID, d.From, d.To)
	}
	br := tx.SendBatch(ctx, b)
	for _, d := range plan {
		ct, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("decrement %s: %w", d.VariantID, err)
		}
		if ct.RowsAffected() != 1 {
			_ = br.Close()
			return fmt.Errorf("decrement %s: %w", d.VariantID, ErrConflict)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
