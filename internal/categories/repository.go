package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for the taxonomy.
type Repository interface {
	Create(ctx context.Context, c *Category) (int64, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Category, error)
	ListAll(ctx context.Context) ([]Category, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a category.
func (r *PGRepository) Create(ctx context.Context, c *Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (parent_id, title_ar, title_en)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.ParentID, c.TitleAR, c.TitleEN).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, httpx.ErrDuplicate
			case "23503":
				return 0, httpx.ErrNotFound
			}
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites the category's titles and parent.
func (r *PGRepository) Update(ctx context.Context, c *Category) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE categories SET parent_id = $2, title_ar = $3, title_en = $4
		WHERE id = $1
	`, c.ID, c.ParentID, c.TitleAR, c.TitleEN)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a category. Children are rejected at the schema level.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Get fetches one category.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, parent_id, title_ar, title_en, created_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.ParentID, &c.TitleAR, &c.TitleEN, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListAll returns the whole taxonomy ordered for stable tree building.
func (r *PGRepository) ListAll(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, parent_id, title_ar, title_en, created_at
		FROM categories
		ORDER BY parent_id NULLS FIRST, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.TitleAR, &c.TitleEN, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
