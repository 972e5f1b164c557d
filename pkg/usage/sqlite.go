package usage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists usage records in a SQLite database.
//
// The store uses WAL mode for concurrent read performance and a background
// checkpoint loop to bound WAL growth. Suitable for single-instance
// deployments; there is no cross-process coordination.
type SQLiteStore struct {
	db        *sql.DB
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex

	insertStmt *sql.Stmt
	listStmt   *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration
}

// NewSQLiteStore opens (creating if needed) a SQLite usage store.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:   db,
		done: make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop(cfg.CheckpointInterval)

	return store, nil
}

// initSchema creates the records table if it does not exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		key_id TEXT NOT NULL,
		model TEXT NOT NULL,
		outcome TEXT NOT NULL,
		failed_over INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_usage_key ON usage_records(key_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (id, request_id, recorded_at, key_id, model, outcome, failed_over, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, request_id, recorded_at, key_id, model, outcome, failed_over, latency_ms
		FROM usage_records
		WHERE recorded_at >= ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM usage_records WHERE recorded_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	recordedAt := rec.Time
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	failedOver := 0
	if rec.FailedOver {
		failedOver = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.insertStmt.ExecContext(ctx,
		id,
		rec.RequestID,
		recordedAt.UnixMilli(),
		rec.KeyID,
		rec.Model,
		rec.Outcome,
		failedOver,
		rec.LatencyMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, since time.Time, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx, since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec        Record
			recordedAt int64
			failedOver int
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &recordedAt, &rec.KeyID,
			&rec.Model, &rec.Outcome, &failedOver, &rec.LatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Time = time.UnixMilli(recordedAt)
		rec.FailedOver = failedOver != 0
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close implements Store. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints until Close.
func (s *SQLiteStore) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
