package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/db"
	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) (int64, error)
	Get(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Appointment, int64, error)
	Accept(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64, reason string, rejectedBy int64) error
	Cancel(ctx context.Context, id, userID int64) error
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

const appointmentColumns = `id, user_id, service_id, provider_id, scheduled_at, status, note, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.ServiceID, &a.ProviderID, &a.ScheduledAt, &a.Status, &a.Note, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create books a slot. The provider id is copied from the service so a
// later ownership transfer cannot reroute existing bookings. A unique
// index on (service_id, scheduled_at) stops double booking.
func (r *PGRepository) Create(ctx context.Context, a *Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (user_id, service_id, provider_id, scheduled_at, status, note)
		SELECT $1, s.id, s.provider_id, $3, $4, $5
		FROM services s WHERE s.id = $2
		RETURNING id
	`, a.UserID, a.ServiceID, a.ScheduledAt, StatusPending, a.Note).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: service does not exist", httpx.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: slot already booked", httpx.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

// Get fetches one appointment.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

// List returns a filtered page of appointments, newest first.
func (r *PGRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Appointment, int64, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.UserID != 0 {
		add("user_id = $%d", filter.UserID)
	}
	if filter.ProviderID != 0 {
		add("provider_id = $%d", filter.ProviderID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM appointments%s ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`,
		appointmentColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// Accept moves a pending appointment to accepted.
func (r *PGRepository) Accept(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE id = $1 AND status = $3
	`, id, StatusAccepted, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment is not pending", httpx.ErrConflict)
	}
	return nil
}

// Reject flips a pending appointment and records the reason.
func (r *PGRepository) Reject(ctx context.Context, id int64, reason string, rejectedBy int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE appointments SET status = $2 WHERE id = $1 AND status = $3
		`, id, StatusRejected, StatusPending)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: appointment is not pending", httpx.ErrConflict)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO rejected_appointments (appointment_id, reason, rejected_by)
			VALUES ($1, $2, $3)
		`, id, reason, rejectedBy)
		return err
	})
}

// Cancel lets the booker drop a still pending appointment.
func (r *PGRepository) Cancel(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1 AND user_id = $2 AND status = $3
	`, id, userID, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment cannot be cancelled", httpx.ErrConflict)
	}
	return nil
}

// ListRejections returns the booker's rejection records.
func (r *PGRepository) ListRejections(ctx context.Context, userID int64, unreadOnly bool) ([]Rejection, error) {
	query := `
		SELECT ra.id, ra.appointment_id, ra.reason, ra.read, ra.rejected_by, ra.created_at
		FROM rejected_appointments ra
		JOIN appointments a ON a.id = ra.appointment_id
		WHERE a.user_id = $1`
	if unreadOnly {
		query += ` AND NOT ra.read`
	}
	query += ` ORDER BY ra.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var rej Rejection
		if err := rows.Scan(&rej.ID, &rej.AppointmentID, &rej.Reason, &rej.Read, &rej.RejectedBy, &rej.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rej)
	}
	return out, rows.Err()
}

// MarkRejectionRead flips the read flag on the booker's own record.
func (r *PGRepository) MarkRejectionRead(ctx context.Context, userID, rejectionID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rejected_appointments ra SET read = TRUE
		FROM appointments a
		WHERE ra.id = $1 AND a.id = ra.appointment_id AND a.user_id = $2
	`, rejectionID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
