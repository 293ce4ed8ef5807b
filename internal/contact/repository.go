package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for contact messages.
type Repository interface {
	Create(ctx context.Context, m *Message) (int64, error)
	Get(ctx context.Context, id int64) (*Message, error)
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Message, int64, error)
	MarkRead(ctx context.Context, id, staffID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const messageColumns = `id, user_id, subject, body, COALESCE(read_by, 0), created_at`

// Create stores a submission.
func (r *PGRepository) Create(ctx context.Context, m *Message) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contact_messages (user_id, subject, body)
		VALUES ($1, $2, $3)
		RETURNING id
	`, m.UserID, m.Subject, m.Body).Scan(&id)
	return id, err
}

// Get fetches one message.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, id).
		Scan(&m.ID, &m.UserID, &m.Subject, &m.Body, &m.ReadBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns a page of messages, newest first.
func (r *PGRepository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Message, int64, error) {
	var where string
	if unreadOnly {
		where = " WHERE read_by IS NULL"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contact_messages`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM contact_messages%s ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		messageColumns, where)
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Subject, &m.Body, &m.ReadBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// MarkRead stamps the handling staff member on an unread message.
func (r *PGRepository) MarkRead(ctx context.Context, id, staffID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contact_messages SET read_by = $2 WHERE id = $1 AND read_by IS NULL
	`, id, staffID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrConflict
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
