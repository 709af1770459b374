package repository

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/game"
)

// InMemoryRepository is an in-memory GameRepository, used in tests and
// when no database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*game.GameRecord
	order   []string // insertion order, oldest first
	logger  *zap.Logger
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(logger *zap.Logger) *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*game.GameRecord),
		logger:  logger,
	}
}

// Save stores a record and returns its id.
func (r *InMemoryRepository) Save(_ context.Context, record *game.GameRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.ID] = record
	r.order = append(r.order, record.ID)

	r.logger.Info("game record stored", zap.String("record_id", record.ID))
	return record.ID, nil
}

// ListRecent returns up to limit records, newest first.
func (r *InMemoryRepository) ListRecent(_ context.Context, limit int) ([]*game.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*game.GameRecord
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[r.order[i]])
	}
	return out, nil
}

// Get retrieves a record by id.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*game.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}
