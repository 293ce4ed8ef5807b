package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, user *User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	ActivateUser(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateEmail(ctx context.Context, id int64, email string) error

	SaveConfirmation(ctx context.Context, c EmailConfirmation) error
	ConsumeConfirmation(ctx context.Context, token string) (*EmailConfirmation, error)
	SaveReset(ctx context.Context, r PasswordReset) error
	ConsumeReset(ctx context.Context, email, code string) (*PasswordReset, error)
	SaveEmailChange(ctx context.Context, c EmailChange) error
	ConsumeEmailChange(ctx context.Context, token string) (*EmailChange, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, phone, first_name, last_name, role, is_active, is_staff, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.IsStaff, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new account. Email and phone are unique.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, phone, first_name, last_name, role, is_active, is_staff, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, user.Email, user.Phone, user.FirstName, user.LastName, user.Role,
		user.IsActive, user.IsStaff, user.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ActivateUser flips the account active after email confirmation.
func (r *PGRepository) ActivateUser(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_active = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}

// UpdatePassword stores a new password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	return err
}

// UpdateEmail stores a confirmed address change.
func (r *PGRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET email = $2, updated_at = now() WHERE id = $1`, id, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
	}
	return err
}

// SaveConfirmation stores the signup confirmation token, replacing any
// earlier one for the same user.
func (r *PGRepository) SaveConfirmation(ctx context.Context, c EmailConfirmation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_confirmations (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	`, c.UserID, c.Token, c.ExpiresAt)
	return err
}

// ConsumeConfirmation deletes and returns the confirmation for the token.
func (r *PGRepository) ConsumeConfirmation(ctx context.Context, token string) (*EmailConfirmation, error) {
	var c EmailConfirmation
	err := r.pool.QueryRow(ctx, `
		DELETE FROM email_confirmations WHERE token = $1
		RETURNING user_id, token, expires_at
	`, token).Scan(&c.UserID, &c.Token, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SaveReset stores a password reset code, replacing any earlier one.
func (r *PGRepository) SaveReset(ctx context.Context, reset PasswordReset) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_resets (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at
	`, reset.UserID, reset.Code, reset.ExpiresAt)
	return err
}

// ConsumeReset deletes and returns the reset matching the email and code.
func (r *PGRepository) ConsumeReset(ctx context.Context, email, code string) (*PasswordReset, error) {
	var reset PasswordReset
	err := r.pool.QueryRow(ctx, `
		DELETE FROM password_resets pr
		USING users u
		WHERE pr.user_id = u.id AND u.email = $1 AND pr.code = $2
		RETURNING pr.user_id, pr.code, pr.expires_at
	`, email, code).Scan(&reset.UserID, &reset.Code, &reset.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &reset, nil
}

// SaveEmailChange stores a pending address change.
func (r *PGRepository) SaveEmailChange(ctx context.Context, c EmailChange) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_changes (user_id, new_email, token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET new_email = EXCLUDED.new_email, token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
	`, c.UserID, c.NewEmail, c.Token, c.ExpiresAt)
	return err
}

// ConsumeEmailChange deletes and returns the pending change for the token.
func (r *PGRepository) ConsumeEmailChange(ctx context.Context, token string) (*EmailChange, error) {
	var c EmailChange
	err := r.pool.QueryRow(ctx, `
		DELETE FROM email_changes WHERE token = $1
		RETURNING user_id, new_email, token, expires_at
	`, token).Scan(&c.UserID, &c.NewEmail, &c.Token, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DeleteExpiredCodes purges expired confirmations, resets and pending
// changes. The cleanup job runs it on a schedule.
func (r *PGRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"email_confirmations", "password_resets", "email_changes"} {
		tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE expires_at < $1`, now)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

var _ Repository = (*PGRepository)(nil)
