// Package intel serves drainer-to-phishing-domain associations harvested by
// the external incident scraper. The scraper writes rows; this service only
// reads them, through a read-mostly in-memory cache.
package intel

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store loads the full association table. The cache calls it once, lazily.
type Store interface {
	All(ctx context.Context) (map[string][]string, error)
}

// PGStore reads drainer-domain associations from Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// All returns every known association as drainer address -> domains.
func (s *PGStore) All(ctx context.Context) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT drainer_address, domain
		 FROM drainer_domains
		 ORDER BY drainer_address, first_seen`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var address, domain string
		if err := rows.Scan(&address, &domain); err != nil {
			return nil, err
		}
		out[address] = append(out[address], domain)
	}
	return out, rows.Err()
}
