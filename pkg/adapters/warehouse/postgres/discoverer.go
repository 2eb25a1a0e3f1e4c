package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/logging"
)

// qualifiedTableName returns a properly quoted table reference.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	return pgx.Identifier{schemaName}.Sanitize() + "." + quotedTable
}

// SchemaDiscoverer implements warehouse.SchemaDiscoverer for PostgreSQL.
type SchemaDiscoverer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ warehouse.SchemaDiscoverer = (*SchemaDiscoverer)(nil)

// NewSchemaDiscoverer creates a PostgreSQL schema discoverer with its own
// pool. If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg *Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := buildConnectionString(cfg)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		logger.Error("Failed to connect to warehouse",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &SchemaDiscoverer{
		pool:   pool,
		logger: logger.Named("pg-discoverer"),
	}, nil
}

// NewSchemaDiscovererFromPool wraps an existing pool. The caller retains
// ownership of the pool; Close is a no-op. Used by tests.
func NewSchemaDiscovererFromPool(pool *pgxpool.Pool, logger *zap.Logger) *SchemaDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaDiscoverer{pool: pool, logger: logger.Named("pg-discoverer")}
}

// Ping verifies the warehouse connection is alive.
func (d *SchemaDiscoverer) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Close releases the pool if this discoverer created it.
func (d *SchemaDiscoverer) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

// DiscoverColumns returns the columns of a physical table in ordinal
// order. Primary key and unique detection go through pg_index, which
// catches keys created as unique indexes too.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, ref warehouse.TableRef) ([]warehouse.Column, error) {
	const query = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			COALESCE(pk.is_pk, false) AS is_primary_key,
			COALESCE(uq.is_unique, false) AS is_unique
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_pk
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE ix.indisprimary = true
			  AND n.nspname = $1
			  AND t.relname = $2
			  AND array_length(ix.indkey, 1) = 1
		) pk ON c.column_name = pk.column_name
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_unique
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE ix.indisunique = true
			  AND ix.indisprimary = false
			  AND n.nspname = $1
			  AND t.relname = $2
			  AND array_length(ix.indkey, 1) = 1
		) uq ON c.column_name = uq.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := d.pool.Query(ctx, query, ref.Schema, ref.Table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", ref.FQN(), err)
	}
	defer rows.Close()

	var columns []warehouse.Column
	for rows.Next() {
		var c warehouse.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsNullable, &c.IsPrimary, &c.IsUnique); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}

// GetDistinctValues returns up to limit distinct non-null values from a
// column, cast to text and sorted alphabetically.
func (d *SchemaDiscoverer) GetDistinctValues(ctx context.Context, ref warehouse.TableRef, column string, limit int) ([]string, error) {
	tableRef := qualifiedTableName(ref.Schema, ref.Table)
	quotedCol := pgx.Identifier{column}.Sanitize()

	query := fmt.Sprintf(`
		SELECT DISTINCT %s::text
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY 1
		LIMIT $1
	`, quotedCol, tableRef, quotedCol)

	rows, err := d.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get distinct values for %s.%s: %w", ref.FQN(), column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, val)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}

	return values, nil
}
