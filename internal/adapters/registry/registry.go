// Package registry defines the persisted player-rating store contract
// plus in-memory and SQLite implementations.
package registry

import "context"

// ExternalKey identifies a player in the persistence layer's ID space.
// It is distinct from the engine's model.PlayerKey; conversion between
// the two is explicit and happens at the orchestrator boundary.
type ExternalKey string

// PlayerRating is one persisted rating row.
type PlayerRating struct {
	Key    ExternalKey
	Rating float64
}

// Store provides read/write access to persisted ratings.
type Store interface {
	// FetchByKeys returns the persisted ratings for the given keys.
	// Keys with no persisted rating are simply absent from the result,
	// never an error.
	FetchByKeys(ctx context.Context, keys []ExternalKey) ([]PlayerRating, error)

	// WriteRating persists a new rating for one player, creating the
	// row if needed. A failure for one key must not prevent callers
	// from attempting the remaining keys of a batch.
	WriteRating(ctx context.Context, key ExternalKey, rating float64) error
}
