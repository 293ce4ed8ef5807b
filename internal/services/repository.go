package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Repository defines persistence for services and their rates.
type Repository interface {
	Create(ctx context.Context, s *Service) (int64, error)
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Service, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Service, int64, error)

	UpsertRate(ctx context.Context, rate Rate) error
	RateSummary(ctx context.Context, serviceID int64) (avg float64, count int, err error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const serviceSelect = `
	SELECT s.id, s.provider_id, s.category_id,
	       s.title_ar, s.title_en, s.description_ar, s.description_en,
	       s.price, s.discount_pct, s.duration_minutes,
	       COALESCE(avg(r.score), 0) AS avg_rating,
	       count(r.score) AS rating_count,
	       s.created_at, s.updated_at
	FROM services s
	LEFT JOIN service_rates r ON r.service_id = s.id`

const serviceGroup = ` GROUP BY s.id`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.CategoryID,
		&s.TitleAR, &s.TitleEN, &s.DescriptionAR, &s.DescriptionEN,
		&s.Price, &s.DiscountPct, &s.DurationMinutes,
		&s.AvgRating, &s.RatingCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a service.
func (r *PGRepository) Create(ctx context.Context, s *Service) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (provider_id, category_id, title_ar, title_en, description_ar, description_en, price, discount_pct, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.ProviderID, s.CategoryID, s.TitleAR, s.TitleEN, s.DescriptionAR, s.DescriptionEN,
		s.Price, s.DiscountPct, s.DurationMinutes).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("%w: category or provider", httpx.ErrNotFound)
		}
		return 0, err
	}
	return id, nil
}

// Update rewrites a service's listing fields.
func (r *PGRepository) Update(ctx context.Context, s *Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET category_id = $2, title_ar = $3, title_en = $4, description_ar = $5, description_en = $6,
		    price = $7, discount_pct = $8, duration_minutes = $9, updated_at = now()
		WHERE id = $1
	`, s.ID, s.CategoryID, s.TitleAR, s.TitleEN, s.DescriptionAR, s.DescriptionEN,
		s.Price, s.DiscountPct, s.DurationMinutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a service.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: service is referenced by appointments", httpx.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Get fetches one service with its rating aggregate.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Service, error) {
	return scanService(r.pool.QueryRow(ctx, serviceSelect+` WHERE s.id = $1`+serviceGroup, id))
}

// List returns a page of services. Search runs over the bilingual
// tsvector column maintained by a trigger on the table.
func (r *PGRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Service, int64, error) {
	where := "TRUE"
	args := []any{}
	if filter.ProviderID > 0 {
		args = append(args, filter.ProviderID)
		where += fmt.Sprintf(" AND s.provider_id = $%d", len(args))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where += fmt.Sprintf(" AND s.category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		where += fmt.Sprintf(" AND s.search_tsv @@ websearch_to_tsquery('simple', $%d)", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM services s WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx,
		serviceSelect+` WHERE `+where+serviceGroup+
			fmt.Sprintf(` ORDER BY s.created_at DESC, s.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.CategoryID,
			&s.TitleAR, &s.TitleEN, &s.DescriptionAR, &s.DescriptionEN,
			&s.Price, &s.DiscountPct, &s.DurationMinutes,
			&s.AvgRating, &s.RatingCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpsertRate writes the user's score, replacing an earlier one.
func (r *PGRepository) UpsertRate(ctx context.Context, rate Rate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO service_rates (user_id, service_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, service_id) DO UPDATE SET score = EXCLUDED.score, created_at = now()
	`, rate.UserID, rate.ServiceID, rate.Score)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.ErrNotFound
		}
	}
	return err
}

// RateSummary returns the average score and vote count for a service.
func (r *PGRepository) RateSummary(ctx context.Context, serviceID int64) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(avg(score), 0), count(*) FROM service_rates WHERE service_id = $1
	`, serviceID).Scan(&avg, &count)
	return avg, count, err
}

var _ Repository = (*PGRepository)(nil)
