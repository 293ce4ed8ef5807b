package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/db"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID     int64
	ProviderID int64
	Status     string
}

// Repository defines persistence for carts, orders and rejections.
// Checkout and Reject run their multi-statement work inside a single
// transaction.
type Repository interface {
	AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error)
	UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveCartItem(ctx context.Context, userID, itemID int64) error
	ListCart(ctx context.Context, userID int64) ([]CartItem, error)

	Checkout(ctx context.Context, userID int64) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]Order, int64, error)
	Accept(ctx context.Context, orderID int64) error
	Reject(ctx context.Context, orderID int64, reason string, rejectedBy int64) error

	ListRejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error)
	MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// AddCartItem merges the quantity into an existing line or creates one.
func (r *PGRepository) AddCartItem(ctx context.Context, userID, productID int64, quantity int) (*CartItem, error) {
	var item CartItem
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity, created_at
	`, userID, productID, quantity).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: product", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// UpdateCartItem sets the quantity of a line the user owns.
func (r *PGRepository) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE id = $2 AND user_id = $1
	`, userID, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// RemoveCartItem deletes a line the user owns.
func (r *PGRepository) RemoveCartItem(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $2 AND user_id = $1`, userID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListCart returns the user's cart lines.
func (r *PGRepository) ListCart(ctx context.Context, userID int64) ([]CartItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Checkout converts the cart into a PENDING order in one transaction:
// lock product rows, verify and decrement stock, snapshot discounted
// unit prices, then empty the cart.
func (r *PGRepository) Checkout(ctx context.Context, userID int64) (*Order, error) {
	var orderID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT ci.product_id, ci.quantity, p.provider_id, p.stock,
			       p.price * (1 - p.discount_pct / 100) AS unit_price
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.user_id = $1
			ORDER BY ci.product_id
			FOR UPDATE OF p
		`, userID)
		if err != nil {
			return err
		}

		type line struct {
			productID  int64
			providerID int64
			quantity   int
			stock      int
			unitPrice  float64
		}
		var lines []line
		for rows.Next() {
			var l line
			if err := rows.Scan(&l.productID, &l.quantity, &l.providerID, &l.stock, &l.unitPrice); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: cart is empty", httpx.ErrUnprocessable)
		}

		var total float64
		for _, l := range lines {
			if l.stock < l.quantity {
				return fmt.Errorf("%w: insufficient stock for product %d", httpx.ErrConflict, l.productID)
			}
			total += l.unitPrice * float64(l.quantity)
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, status, total) VALUES ($1, $2, $3) RETURNING id
		`, userID, StatusPending, total).Scan(&orderID); err != nil {
			return err
		}

		for _, l := range lines {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, provider_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5)
			`, orderID, l.productID, l.providerID, l.quantity, l.unitPrice); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE products SET stock = stock - $2 WHERE id = $1
			`, l.productID, l.quantity); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

// GetOrder fetches one order with its items.
func (r *PGRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, provider_id, quantity, unit_price, quantity * unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProviderID,
			&item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

// ListOrders returns a page of orders matching the filter.
func (r *PGRepository) ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]Order, int64, error) {
	where := "TRUE"
	args := []any{}
	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND o.user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if filter.ProviderID > 0 {
		args = append(args, filter.ProviderID)
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.provider_id = $%d)", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders o WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at FROM orders o WHERE `+where+
			fmt.Sprintf(` ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// Accept moves a PENDING order to ACCEPTED.
func (r *PGRepository) Accept(ctx context.Context, orderID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND status = $3
	`, orderID, StatusAccepted, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order is not pending", httpx.ErrConflict)
	}
	return nil
}

// Reject moves a PENDING order to REJECTED, restores stock and records
// the reason, all in one transaction.
func (r *PGRepository) Reject(ctx context.Context, orderID int64, reason string, rejectedBy int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 AND status = $3
		`, orderID, StatusRejected, StatusPending)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: order is not pending", httpx.ErrConflict)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products p SET stock = p.stock + oi.quantity
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id
		`, orderID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO rejected_orders (order_id, reason, rejected_by) VALUES ($1, $2, $3)
		`, orderID, reason, rejectedBy)
		return err
	})
}

// ListRejections returns the buyer's rejection records.
func (r *PGRepository) ListRejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error) {
	query := `
		SELECT ro.id, ro.order_id, ro.reason, ro.read, ro.rejected_by, ro.created_at
		FROM rejected_orders ro
		JOIN orders o ON o.id = ro.order_id
		WHERE o.user_id = $1`
	if unreadOnly {
		query += ` AND NOT ro.read`
	}
	query += ` ORDER BY ro.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var rej Rejection
		if err := rows.Scan(&rej.ID, &rej.OrderID, &rej.Reason, &rej.Read, &rej.RejectedBy, &rej.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rej)
	}
	return out, rows.Err()
}

// MarkRejectionRead flips the read flag on a rejection the buyer owns.
func (r *PGRepository) MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rejected_orders ro SET read = TRUE
		FROM orders o
		WHERE ro.id = $2 AND o.id = ro.order_id AND o.user_id = $1
	`, userID, rejectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
