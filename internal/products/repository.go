package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for products and their rates.
type Repository interface {
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Product, int64, error)
	AdjustStock(ctx context.Context, id int64, delta int) error

	UpsertRate(ctx context.Context, rate Rate) error
	RateSummary(ctx context.Context, productID int64) (avg float64, count int, err error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productSelect = `
	SELECT p.id, p.provider_id, p.category_id,
	       p.title_ar, p.title_en, p.description_ar, p.description_en,
	       p.price, p.discount_pct, p.stock,
	       COALESCE(avg(r.score), 0) AS avg_rating,
	       count(r.score) AS rating_count,
	       p.created_at, p.updated_at
	FROM products p
	LEFT JOIN product_rates r ON r.product_id = p.id`

const productGroup = ` GROUP BY p.id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ProviderID, &p.CategoryID,
		&p.TitleAR, &p.TitleEN, &p.DescriptionAR, &p.DescriptionEN,
		&p.Price, &p.DiscountPct, &p.Stock,
		&p.AvgRating, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product.
func (r *PGRepository) Create(ctx context.Context, p *Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (provider_id, category_id, title_ar, title_en, description_ar, description_en, price, discount_pct, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.ProviderID, p.CategoryID, p.TitleAR, p.TitleEN, p.DescriptionAR, p.DescriptionEN,
		p.Price, p.DiscountPct, p.Stock).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("%w: category or provider", httpx.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites a product's listing fields.
func (r *PGRepository) Update(ctx context.Context, p *Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET category_id = $2, title_ar = $3, title_en = $4, description_ar = $5, description_en = $6,
		    price = $7, discount_pct = $8, stock = $9, updated_at = now()
		WHERE id = $1
	`, p.ID, p.CategoryID, p.TitleAR, p.TitleEN, p.DescriptionAR, p.DescriptionEN,
		p.Price, p.DiscountPct, p.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: product is referenced by orders", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Get fetches one product with its rating aggregate.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.id = $1`+productGroup, id))
}

// List returns a page of products. Search runs over the bilingual
// tsvector column maintained by a trigger on the table.
func (r *PGRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Product, int64, error) {
	where := "TRUE"
	args := []any{}
	if filter.ProviderID > 0 {
		args = append(args, filter.ProviderID)
		where += fmt.Sprintf(" AND p.provider_id = $%d", len(args))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		where += fmt.Sprintf(" AND p.search_tsv @@ websearch_to_tsquery('simple', $%d)", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		productSelect+` WHERE `+where+productGroup+
			fmt.Sprintf(` ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ProviderID, &p.CategoryID,
			&p.TitleAR, &p.TitleEN, &p.DescriptionAR, &p.DescriptionEN,
			&p.Price, &p.DiscountPct, &p.Stock,
			&p.AvgRating, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AdjustStock moves stock by delta, refusing to go negative.
func (r *PGRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
	`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: insufficient stock", httpx.ErrConflict)
	}
	return nil
}

// UpsertRate writes the user's score, replacing an earlier one.
func (r *PGRepository) UpsertRate(ctx context.Context, rate Rate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_rates (user_id, product_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET score = EXCLUDED.score, created_at = now()
	`, rate.UserID, rate.ProductID, rate.Score)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.ErrNotFound
		}
	}
	return err
}

// RateSummary returns the average score and vote count for a product.
func (r *PGRepository) RateSummary(ctx context.Context, productID int64) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(avg(score), 0), count(*) FROM product_rates WHERE product_id = $1
	`, productID).Scan(&avg, &count)
	return avg, count, err
}

var _ Repository = (*PGRepository)(nil)
