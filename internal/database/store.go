package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles all catalog persistence operations behind one injected
// dependency instead of ambient package state.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on top of an existing connection pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
