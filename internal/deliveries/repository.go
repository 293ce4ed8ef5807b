package deliveries

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for deliveries.
type Repository interface {
	Create(ctx context.Context, d *Delivery) (int64, error)
	Get(ctx context.Context, id int64) (*Delivery, error)
	SetStatus(ctx context.Context, id int64, status, note string) error
	ListForBuyer(ctx context.Context, buyerID int64) ([]Delivery, error)
	ListForProvider(ctx context.Context, providerID int64) ([]Delivery, error)
	ItemMeta(ctx context.Context, orderItemID int64) (*ItemMeta, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const deliveryColumns = `id, order_item_id, status, courier, note, created_at, updated_at`

// Create inserts a delivery. One delivery per order item.
func (r *PGRepository) Create(ctx context.Context, d *Delivery) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO deliveries (order_item_id, status, courier, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, d.OrderItemID, d.Status, d.Courier, d.Note).Scan(&id)
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

// Get fetches one delivery.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Delivery, error) {
	var d Delivery
	err := r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id).
		Scan(&d.ID, &d.OrderItemID, &d.Status, &d.Courier, &d.Note, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// SetStatus advances the delivery.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deliveries SET status = $2, note = $3, updated_at = now() WHERE id = $1
	`, id, status, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) list(ctx context.Context, query string, arg any) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.OrderItemID, &d.Status, &d.Courier, &d.Note, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListForBuyer returns deliveries on the buyer's order items.
func (r *PGRepository) ListForBuyer(ctx context.Context, buyerID int64) ([]Delivery, error) {
	return r.list(ctx, `
		SELECT d.id, d.order_item_id, d.status, d.courier, d.note, d.created_at, d.updated_at
		FROM deliveries d
		JOIN order_items oi ON oi.id = d.order_item_id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1
		ORDER BY d.created_at DESC
	`, buyerID)
}

// ListForProvider returns deliveries on the provider's order items.
func (r *PGRepository) ListForProvider(ctx context.Context, providerID int64) ([]Delivery, error) {
	return r.list(ctx, `
		SELECT d.id, d.order_item_id, d.status, d.courier, d.note, d.created_at, d.updated_at
		FROM deliveries d
		JOIN order_items oi ON oi.id = d.order_item_id
		WHERE oi.provider_id = $1
		ORDER BY d.created_at DESC
	`, providerID)
}

// ItemMeta loads ownership facts about an order item.
func (r *PGRepository) ItemMeta(ctx context.Context, orderItemID int64) (*ItemMeta, error) {
	var meta ItemMeta
	err := r.pool.QueryRow(ctx, `
		SELECT oi.order_id, oi.provider_id, o.user_id, o.status
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.id = $1
	`, orderItemID).Scan(&meta.OrderID, &meta.ProviderID, &meta.BuyerID, &meta.OrderStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &meta, nil
}

var _ Repository = (*PGRepository)(nil)
