package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/eanna95/trevilleroofing/internal/db"
	"github.com/eanna95/trevilleroofing/pkg/affinity"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var organizationColumns = []string{
	"checkpoint_name", "search_term", "affinity_id",
	"name", "domain", "latest_interaction_date", "latest_interaction_person_ids",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS checkpoints (
	name            TEXT PRIMARY KEY,
	run_id          UUID NOT NULL,
	completed_terms JSONB NOT NULL DEFAULT '[]',
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checkpoint_organizations (
	checkpoint_name               TEXT NOT NULL REFERENCES checkpoints(name),
	search_term                   TEXT NOT NULL,
	affinity_id                   BIGINT NOT NULL,
	name                          TEXT NOT NULL,
	domain                        TEXT NOT NULL DEFAULT '',
	latest_interaction_date       TEXT NOT NULL DEFAULT '',
	latest_interaction_person_ids TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (checkpoint_name, search_term, affinity_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetCheckpoint(ctx context.Context, name string) (*Checkpoint, error) {
	var (
		runID     string
		terms     []byte
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, completed_terms, updated_at FROM checkpoints WHERE name = $1`, name,
	).Scan(&runID, &terms, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get checkpoint %s", name)
	}

	cp := &Checkpoint{RunID: runID, UpdatedAt: updatedAt}
	if err := json.Unmarshal(terms, &cp.CompletedTerms); err != nil {
		return nil, eris.Wrapf(err, "postgres: decode completed terms %s", name)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT search_term, affinity_id, name, domain, latest_interaction_date, latest_interaction_person_ids
		 FROM checkpoint_organizations WHERE checkpoint_name = $1 ORDER BY search_term, affinity_id`, name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get checkpoint organizations %s", name)
	}
	defer rows.Close()

	for rows.Next() {
		var org affinity.Organization
		if err := rows.Scan(&org.SearchTerm, &org.AffinityID, &org.Name, &org.Domain,
			&org.LatestInteractionDate, &org.LatestInteractionPersonIDs); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan organization %s", name)
		}
		cp.Organizations = append(cp.Organizations, org)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate organizations %s", name)
	}
	return cp, nil
}

func (s *PostgresStore) PutCheckpoint(ctx context.Context, name string, cp *Checkpoint) error {
	if cp.RunID == "" {
		cp.RunID = uuid.New().String()
	}
	cp.UpdatedAt = time.Now().UTC()

	terms, err := json.Marshal(cp.CompletedTerms)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal completed terms %s", name)
	}
	if cp.CompletedTerms == nil {
		terms = []byte(`[]`)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO checkpoints (name, run_id, completed_terms, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET run_id = EXCLUDED.run_id, completed_terms = EXCLUDED.completed_terms, updated_at = EXCLUDED.updated_at`,
		name, cp.RunID, terms, cp.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put checkpoint %s", name)
	}

	rows := make([][]any, 0, len(cp.Organizations))
	for _, org := range cp.Organizations {
		rows = append(rows, []any{
			name, org.SearchTerm, org.AffinityID,
			org.Name, org.Domain, org.LatestInteractionDate, org.LatestInteractionPersonIDs,
		})
	}
	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "checkpoint_organizations",
		Columns:      organizationColumns,
		ConflictKeys: []string{"checkpoint_name", "search_term", "affinity_id"},
	}, rows); err != nil {
		return eris.Wrapf(err, "postgres: put checkpoint organizations %s", name)
	}
	return nil
}
