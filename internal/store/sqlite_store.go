package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"indexchat/internal/model"
)

// SQLiteStore keeps snapshot documents as JSON rows in a local database
// file. The ID and Date fields are mirrored into indexed columns so the
// latest-snapshot lookup never decodes more than one row.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
  row_id INTEGER PRIMARY KEY AUTOINCREMENT,
  index_id TEXT NOT NULL,
  date_key TEXT NOT NULL DEFAULT '',
  doc TEXT NOT NULL
);

-- latest-by-id lookups walk this index backwards and stop at the first row.
CREATE INDEX IF NOT EXISTS idx_snapshots_index_date ON snapshots(index_id, date_key);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Ping opens the database if needed and checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, indexID string) (model.Snapshot, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return nil, err
	}

	var raw string
	err = db.QueryRowContext(
		ctx,
		`SELECT doc FROM snapshots
		 WHERE index_id = ?
		 ORDER BY date_key DESC, row_id DESC
		 LIMIT 1`,
		indexID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot for %q: %w", indexID, err)
	}

	var doc model.Snapshot
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot for %q: %w", indexID, err)
	}
	return doc.Clean(), nil
}

func (s *SQLiteStore) InsertSnapshots(ctx context.Context, docs []model.Snapshot) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	db, err := s.ensureDB(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshots(index_id, date_key, doc) VALUES(?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i, doc := range docs {
		payload, err := json.Marshal(doc.Clean())
		if err != nil {
			return 0, fmt.Errorf("encode snapshot %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID(), doc.DateKey(), string(payload)); err != nil {
			return 0, fmt.Errorf("insert snapshot %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) ensureDB(ctx context.Context) (*sql.DB, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("sqlite db not initialized")
	}
	return s.db, nil
}
