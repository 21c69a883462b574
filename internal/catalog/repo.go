package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `
	SELECT p.id, p.name, p.description, COALESCE(p.slug, ''), p.images, p.featured, p.created_at,
	       COALESCE(array_agg(pc.category_id) FILTER (WHERE pc.category_id IS NOT NULL), '{}')
	FROM products p
	LEFT JOIN product_categories pc ON pc.product_id = p.id`

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	ps, err := r.queryProducts(ctx, productColumns+` GROUP BY p.id ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, err
	}
	if err := r.attachVariants(ctx, ps, `SELECT id, product_id, name, price, inhouse, image
		FROM variants ORDER BY product_id, position`); err != nil {
		return nil, err
	}
	return ps, nil
}

// FeaturedProducts returns up to limit products flagged featured, oldest
// first.
func (r *Repo) FeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	ps, err := r.queryProducts(ctx, productColumns+` WHERE p.featured GROUP BY p.id ORDER BY p.created_at, p.id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	if err := r.attachVariants(ctx, ps, `SELECT id, product_id, name, price, inhouse, image
		FROM variants WHERE product_id = ANY($1) ORDER BY product_id, position`, ids); err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	ps, err := r.queryProducts(ctx, productColumns+` WHERE p.id = $1 GROUP BY p.id`, id)
	if err != nil {
		return Product{}, err
	}
	if len(ps) == 0 {
		return Product{}, ErrNotFound
	}
	if err := r.attachVariants(ctx, ps, `SELECT id, product_id, name, price, inhouse, image
		FROM variants WHERE product_id = $1 ORDER BY position`, id); err != nil {
		return Product{}, err
	}
	return ps[0], nil
}

func (r *Repo) CategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `SELECT id, name, slug FROM categories WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var (
			p      Product
			images []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Slug, &images, &p.Featured, &p.CreatedAt, &p.Categories); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("product %s images: %w", p.ID, err)
		}
		p.Variants = []Variant{}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) attachVariants(ctx context.Context, ps []Product, sql string, args ...any) error {
	idx := make(map[string]int, len(ps))
	for i, p := range ps {
		idx[p.ID] = i
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.OnHand, &v.Image); err != nil {
			return err
		}
		if i, ok := idx[v.ProductID]; ok {
			ps[i].Variants = append(ps[i].Variants, v)
		}
	}
	return rows.Err()
}

// UpsertProduct writes a product with its categories and variants, replacing
// whatever was stored for it before. Used by the importer.
func (r *Repo) UpsertProduct(ctx context.Context, p Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO products(id, name, description, slug, images, featured, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    slug = EXCLUDED.slug, images = EXCLUDED.images, featured = EXCLUDED.featured`,
		p.ID, p.Name, p.Description, p.Slug, images, p.Featured, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	ids := make([]string, 0, len(p.Variants))
	b := &pgx.Batch{}
	for _, c := range p.Categories {
		b.Queue(`INSERT INTO product_categories(product_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, p.ID, c)
	}
	for i, v := range p.Variants {
		ids = append(ids, v.ID)
		b.Queue(`
			INSERT INTO variants(id, product_id, position, name, price, inhouse, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET product_id = EXCLUDED.product_id, position = EXCLUDED.position, name = EXCLUDED.name,
			    price = EXCLUDED.price, inhouse = EXCLUDED.inhouse, image = EXCLUDED.image`,
			v.ID, p.ID, i, v.Name, v.Price, v.OnHand, v.Image)
	}
	b.Queue(`DELETE FROM variants WHERE product_id = $1 AND NOT (id = ANY($2))`, p.ID, ids)
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return tx.Commit(ctx)
}

func (r *Repo) UpsertCategory(ctx context.Context, c Category) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO categories(id, name, slug) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`,
		c.ID, c.Name, c.Slug)
	return err
}
