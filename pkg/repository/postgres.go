package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/game"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_records (
	id              TEXT PRIMARY KEY,
	white_player    TEXT NOT NULL,
	black_player    TEXT NOT NULL,
	moves           TEXT NOT NULL,
	result          TEXT NOT NULL,
	duration_sec    BIGINT NOT NULL,
	move_log        TEXT NOT NULL,
	final_position  TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
)`

// PostgresRepository stores game records in Postgres.
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRepository opens a pooled connection, verifies it and
// ensures the schema exists.
func NewPostgresRepository(databaseURL string, logger *zap.Logger) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresRepository{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save inserts a finished game record.
func (r *PostgresRepository) Save(ctx context.Context, record *game.GameRecord) (string, error) {
	moves, err := json.Marshal(record.Moves)
	if err != nil {
		return "", err
	}

	const q = `INSERT INTO game_records (
		id, white_player, black_player, moves, result,
		duration_sec, move_log, final_position, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = r.db.ExecContext(ctx, q,
		record.ID,
		record.WhitePlayer, record.BlackPlayer,
		string(moves), record.Result,
		record.DurationSec, record.MoveLog, record.FinalPosition,
		record.CreatedAt,
	)
	if err != nil {
		return "", err
	}

	r.logger.Info("game record stored", zap.String("record_id", record.ID))
	return record.ID, nil
}

// ListRecent returns the newest records, at most limit of them.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*game.GameRecord, error) {
	const q = `SELECT id, white_player, black_player, moves, result,
		duration_sec, move_log, final_position, created_at
	FROM game_records ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.GameRecord
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Get fetches one record by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*game.GameRecord, error) {
	const q = `SELECT id, white_player, black_player, moves, result,
		duration_sec, move_log, final_position, created_at
	FROM game_records WHERE id = $1`

	record, err := scanRecord(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func scanRecord(scan func(dest ...any) error) (*game.GameRecord, error) {
	var record game.GameRecord
	var moves string

	err := scan(
		&record.ID,
		&record.WhitePlayer, &record.BlackPlayer,
		&moves, &record.Result,
		&record.DurationSec, &record.MoveLog, &record.FinalPosition,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(moves), &record.Moves); err != nil {
		return nil, err
	}
	return &record, nil
}
