package i18n

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL-backed preference store. Rows never expire.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns the stored language code for the IP.
func (s *Store) Get(ctx context.Context, ip string) (string, error) {
	var code string
	err := s.pool.QueryRow(ctx, `SELECT language_code FROM user_ips WHERE ip_address = $1`, ip).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotSeen
		}
		return "", err
	}
	return code, nil
}

// Upsert writes the preference. Concurrent first sightings of an IP race on
// the insert; ON CONFLICT makes the last writer win without a lock.
func (s *Store) Upsert(ctx context.Context, ip, code string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_ips (ip_address, language_code)
		VALUES ($1, $2)
		ON CONFLICT (ip_address) DO UPDATE SET language_code = EXCLUDED.language_code
	`, ip, code)
	return err
}
