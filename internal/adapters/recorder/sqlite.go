package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/pkg/logger"
)

// SQLiteRecorder appends valuations and reputation scores to a SQLite
// database so they can be inspected after the fact.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logger.Logger
}

// NewSQLiteRecorder opens (or creates) the database at path and runs
// migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers don't block the write path.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.Get().Named("recorder"),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info(context.Background(), "sqlite recorder opened", logger.String("path", path))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuations (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			property_id        TEXT NOT NULL,
			fmv                INTEGER,
			confidence         TEXT,
			guess_count        INTEGER,
			official_value     INTEGER,
			asking_price       INTEGER,
			divergence_percent REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_property ON valuations(property_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS reputations (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			user_id        TEXT NOT NULL,
			public_score   INTEGER,
			internal_score INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reputations_user ON reputations(user_id, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordValuation implements Recorder.
func (r *SQLiteRecorder) RecordValuation(ctx context.Context, propertyID string, result model.FMVResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO valuations
			(timestamp, property_id, fmv, confidence, guess_count, official_value, asking_price, divergence_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Unix(),
		propertyID,
		nullableInt64(result.FMV),
		string(result.Confidence),
		result.GuessCount,
		nullableInt64(result.OfficialValue),
		nullableInt64(result.AskingPrice),
		nullableFloat64(result.DivergencePercent),
	)
	if err != nil {
		return fmt.Errorf("insert valuation: %w", err)
	}
	return nil
}

// RecordReputation implements Recorder.
func (r *SQLiteRecorder) RecordReputation(ctx context.Context, userID string, result model.ReputationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reputations (timestamp, user_id, public_score, internal_score)
		 VALUES (?, ?, ?, ?)`,
		time.Now().Unix(),
		userID,
		result.PublicScore,
		result.InternalScore,
	)
	if err != nil {
		return fmt.Errorf("insert reputation: %w", err)
	}
	return nil
}

// Close implements Recorder.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
