package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Store bundles the roster and game repositories into the single
// persistence surface the game engine consumes.
type Store struct {
	*RosterRepository
	*GameRepository
}

// NewStore creates a Store backed by one connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		RosterRepository: NewRosterRepository(pool),
		GameRepository:   NewGameRepository(pool),
	}
}
