// Package repository stores finished game records.
package repository

import (
	"context"
	"errors"

	"github.com/tecu23/match-server/pkg/game"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("game record not found")

// GameRepository persists finished sessions. Save is called off the
// hub loop with a snapshot, so implementations must be safe for
// concurrent use.
type GameRepository interface {
	// Save writes a record and returns its id. One attempt per
	// finished game; a failed store is terminal for that record.
	Save(ctx context.Context, record *game.GameRecord) (string, error)

	// ListRecent returns the most recently created records, newest
	// first, at most limit of them.
	ListRecent(ctx context.Context, limit int) ([]*game.GameRecord, error)

	// Get fetches one record by id, ErrNotFound when absent.
	Get(ctx context.Context, id string) (*game.GameRecord, error)
}
