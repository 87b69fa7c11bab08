package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	name       TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, name string) (*Checkpoint, error) {
	var (
		runID     string
		data      string
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, data, updated_at FROM checkpoints WHERE name = ?`, name,
	).Scan(&runID, &data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get checkpoint %s", name)
	}

	cp := &Checkpoint{}
	if err := json.Unmarshal([]byte(data), cp); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode checkpoint %s", name)
	}
	cp.RunID = runID
	cp.UpdatedAt = updatedAt
	return cp, nil
}

func (s *SQLiteStore) PutCheckpoint(ctx context.Context, name string, cp *Checkpoint) error {
	if cp.RunID == "" {
		cp.RunID = uuid.New().String()
	}
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cp)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal checkpoint %s", name)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (name, run_id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET run_id = excluded.run_id, data = excluded.data, updated_at = excluded.updated_at`,
		name, cp.RunID, string(data), cp.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: put checkpoint %s", name)
}
