// Package history defines the game-history source contract and a
// filesystem-backed implementation.
package history

import (
	"context"

	"github.com/riftline/mmr/internal/domain/model"
)

// Record is one loaded history file: an identifier, an optional human
// name, and the games it contains in played order.
type Record struct {
	ID    string
	Name  string
	Games []model.Game
}

// Source lists and loads historical game records.
type Source interface {
	// List returns all available record identifiers in chronological
	// order. Identifiers must sort chronologically as strings, which
	// the zero-padded date naming scheme guarantees.
	List(ctx context.Context) ([]string, error)

	// Load fetches and parses one record.
	// Returns ErrNotFound if the identifier is unknown and ErrParse if
	// the record is malformed.
	Load(ctx context.Context, id string) (*Record, error)
}
