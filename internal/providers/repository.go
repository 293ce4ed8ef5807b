package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for provider profiles and branches.
type Repository interface {
	Create(ctx context.Context, p *Provider) (int64, error)
	Get(ctx context.Context, id int64) (*Provider, error)
	GetByUser(ctx context.Context, userID int64) (*Provider, error)
	List(ctx context.Context, status string, limit, offset int) ([]Provider, int64, error)
	SetStatus(ctx context.Context, id int64, status string, reviewerID int64) error
	ApplyProfile(ctx context.Context, id int64, businessName, iban string) error

	CreateLocation(ctx context.Context, l *Location) (int64, error)
	UpdateLocation(ctx context.Context, l *Location) error
	DeleteLocation(ctx context.Context, id int64) error
	GetLocation(ctx context.Context, id int64) (*Location, error)
	ListLocations(ctx context.Context, providerID int64) ([]Location, error)
	Nearby(ctx context.Context, lat, lng float64, limit int) ([]NearbyLocation, error)

	CreateRequest(ctx context.Context, req *ProfileRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (*ProfileRequest, error)
	ListRequests(ctx context.Context, status string, limit, offset int) ([]ProfileRequest, int64, error)
	ReviewRequest(ctx context.Context, id int64, status string, reviewerID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const providerColumns = `id, user_id, business_name, iban, account_status, approved_by, created_at, updated_at`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.UserID, &p.BusinessName, &p.IBAN,
		&p.AccountStatus, &p.ApprovedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a provider profile. One profile per user.
func (r *PGRepository) Create(ctx context.Context, p *Provider) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO service_providers (user_id, business_name, iban, account_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.UserID, p.BusinessName, p.IBAN, p.AccountStatus).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

// Get fetches a profile by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Provider, error) {
	return scanProvider(r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM service_providers WHERE id = $1`, id))
}

// GetByUser fetches the profile owned by a user.
func (r *PGRepository) GetByUser(ctx context.Context, userID int64) (*Provider, error) {
	return scanProvider(r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM service_providers WHERE user_id = $1`, userID))
}

// List returns a page of profiles, optionally filtered by status.
func (r *PGRepository) List(ctx context.Context, status string, limit, offset int) ([]Provider, int64, error) {
	where := "TRUE"
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = "account_status = $1"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM service_providers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+providerColumns+` FROM service_providers WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.UserID, &p.BusinessName, &p.IBAN,
			&p.AccountStatus, &p.ApprovedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// SetStatus records the admin decision on a profile.
func (r *PGRepository) SetStatus(ctx context.Context, id int64, status string, reviewerID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_providers
		SET account_status = $2, approved_by = $3, updated_at = now()
		WHERE id = $1
	`, id, status, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ApplyProfile writes approved business details onto the profile.
func (r *PGRepository) ApplyProfile(ctx context.Context, id int64, businessName, iban string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE service_providers
		SET business_name = $2, iban = $3, updated_at = now()
		WHERE id = $1
	`, id, businessName, iban)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const locationColumns = `id, provider_id, label, latitude, longitude, opening_time, closing_time, created_at`

// CreateLocation inserts a branch.
func (r *PGRepository) CreateLocation(ctx context.Context, l *Location) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO provider_locations (provider_id, label, latitude, longitude, opening_time, closing_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, l.ProviderID, l.Label, l.Latitude, l.Longitude, l.OpeningTime, l.ClosingTime).Scan(&id)
	return id, err
}

// UpdateLocation rewrites a branch.
func (r *PGRepository) UpdateLocation(ctx context.Context, l *Location) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE provider_locations
		SET label = $2, latitude = $3, longitude = $4, opening_time = $5, closing_time = $6
		WHERE id = $1
	`, l.ID, l.Label, l.Latitude, l.Longitude, l.OpeningTime, l.ClosingTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteLocation removes a branch.
func (r *PGRepository) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM provider_locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// GetLocation fetches one branch.
func (r *PGRepository) GetLocation(ctx context.Context, id int64) (*Location, error) {
	var l Location
	err := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM provider_locations WHERE id = $1`, id).
		Scan(&l.ID, &l.ProviderID, &l.Label, &l.Latitude, &l.Longitude, &l.OpeningTime, &l.ClosingTime, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListLocations returns all branches of one provider.
func (r *PGRepository) ListLocations(ctx context.Context, providerID int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+locationColumns+` FROM provider_locations WHERE provider_id = $1 ORDER BY id`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.ProviderID, &l.Label, &l.Latitude, &l.Longitude,
			&l.OpeningTime, &l.ClosingTime, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Nearby returns accepted providers' branches ordered by great-circle
// distance from the given point.
func (r *PGRepository) Nearby(ctx context.Context, lat, lng float64, limit int) ([]NearbyLocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pl.id, pl.provider_id, pl.label, pl.latitude, pl.longitude,
		       pl.opening_time, pl.closing_time, pl.created_at,
		       sp.business_name,
		       6371 * acos(
		           least(1.0,
		               cos(radians($1)) * cos(radians(pl.latitude)) * cos(radians(pl.longitude) - radians($2))
		               + sin(radians($1)) * sin(radians(pl.latitude))))
		           AS distance_km
		FROM provider_locations pl
		JOIN service_providers sp ON sp.id = pl.provider_id
		WHERE sp.account_status = 'ACCEPTED'
		ORDER BY distance_km
		LIMIT $3
	`, lat, lng, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NearbyLocation
	for rows.Next() {
		var n NearbyLocation
		if err := rows.Scan(&n.ID, &n.ProviderID, &n.Label, &n.Latitude, &n.Longitude,
			&n.OpeningTime, &n.ClosingTime, &n.CreatedAt, &n.BusinessName, &n.DistanceKM); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const requestColumns = `id, provider_id, business_name, iban, status, reviewed_by, created_at`

// CreateRequest stores a pending profile edit.
func (r *PGRepository) CreateRequest(ctx context.Context, req *ProfileRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO provider_profile_requests (provider_id, business_name, iban, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, req.ProviderID, req.BusinessName, req.IBAN, req.Status).Scan(&id)
	return id, err
}

// GetRequest fetches one profile edit request.
func (r *PGRepository) GetRequest(ctx context.Context, id int64) (*ProfileRequest, error) {
	var req ProfileRequest
	err := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM provider_profile_requests WHERE id = $1`, id).
		Scan(&req.ID, &req.ProviderID, &req.BusinessName, &req.IBAN, &req.Status, &req.ReviewedBy, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListRequests returns a page of edit requests, optionally by status.
func (r *PGRepository) ListRequests(ctx context.Context, status string, limit, offset int) ([]ProfileRequest, int64, error) {
	where := "TRUE"
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = "status = $1"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM provider_profile_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM provider_profile_requests WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ProfileRequest
	for rows.Next() {
		var req ProfileRequest
		if err := rows.Scan(&req.ID, &req.ProviderID, &req.BusinessName, &req.IBAN,
			&req.Status, &req.ReviewedBy, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

// ReviewRequest records the admin decision on an edit request.
func (r *PGRepository) ReviewRequest(ctx context.Context, id int64, status string, reviewerID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE provider_profile_requests
		SET status = $2, reviewed_by = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, status, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrConflict
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
