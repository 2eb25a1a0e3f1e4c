package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/logging"
)

// stageTableDDL backs the stage with a single artifact table. A stage
// artifact is addressed by (database, schema, stage, name); writes
// overwrite in place.
const stageTableDDL = `
	CREATE TABLE IF NOT EXISTS modelsmith_stage_artifacts (
		id UUID PRIMARY KEY,
		stage_database TEXT NOT NULL,
		stage_schema TEXT NOT NULL,
		stage_name TEXT NOT NULL,
		artifact_name TEXT NOT NULL,
		content BYTEA NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (stage_database, stage_schema, stage_name, artifact_name)
	)
`

// StageStore implements warehouse.StageStore over a PostgreSQL-backed
// artifact table.
type StageStore struct {
	pool      *pgxpool.Pool
	ownedPool bool
	logger    *zap.Logger
}

var _ warehouse.StageStore = (*StageStore)(nil)

// NewStageStore connects to the stage database and ensures the artifact
// table exists. If logger is nil, a no-op logger is used.
func NewStageStore(ctx context.Context, cfg *Config, logger *zap.Logger) (*StageStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := buildConnectionString(cfg)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		logger.Error("Failed to connect to stage database",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connect to stage database: %w", err)
	}

	store := &StageStore{pool: pool, ownedPool: true, logger: logger.Named("pg-stage")}
	if err := store.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewStageStoreFromPool wraps an existing pool. The caller retains
// ownership of the pool; Close is a no-op. Used by tests.
func NewStageStoreFromPool(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*StageStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &StageStore{pool: pool, logger: logger.Named("pg-stage")}
	if err := store.bootstrap(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *StageStore) bootstrap(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, stageTableDDL); err != nil {
		return fmt.Errorf("create stage artifact table: %w", err)
	}
	return nil
}

// Ping verifies the stage connection is alive.
func (s *StageStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool if this store created it.
func (s *StageStore) Close() error {
	if s.ownedPool && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Write stores content under name, overwriting any prior artifact. The
// write runs in a transaction so a failed overwrite never leaves the
// stage without the prior artifact.
func (s *StageStore) Write(ctx context.Context, stage warehouse.StageRef, name string, content []byte) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin stage write: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `
		INSERT INTO modelsmith_stage_artifacts (
			id, stage_database, stage_schema, stage_name, artifact_name, content, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (stage_database, stage_schema, stage_name, artifact_name)
		DO UPDATE SET content = EXCLUDED.content, uploaded_at = now()`

	if _, err := tx.Exec(ctx, query,
		uuid.New(), stage.Database, stage.Schema, stage.Name, name, content,
	); err != nil {
		return fmt.Errorf("write stage artifact %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stage write: %w", err)
	}

	s.logger.Info("Wrote stage artifact",
		zap.String("stage", stage.Name),
		zap.String("artifact", name),
		zap.Int("bytes", len(content)))
	return nil
}

// Delete removes the named artifact. A missing artifact is not an error.
func (s *StageStore) Delete(ctx context.Context, stage warehouse.StageRef, name string) error {
	const query = `
		DELETE FROM modelsmith_stage_artifacts
		WHERE stage_database = $1 AND stage_schema = $2 AND stage_name = $3 AND artifact_name = $4`

	tag, err := s.pool.Exec(ctx, query, stage.Database, stage.Schema, stage.Name, name)
	if err != nil {
		return fmt.Errorf("delete stage artifact %s: %w", name, err)
	}

	s.logger.Info("Deleted stage artifact",
		zap.String("stage", stage.Name),
		zap.String("artifact", name),
		zap.Int64("rows", tag.RowsAffected()))
	return nil
}
