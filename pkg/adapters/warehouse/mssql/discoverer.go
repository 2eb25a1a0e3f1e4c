package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	"go.uber.org/zap"

	"github.com/modelsmith-ai/modelsmith/pkg/adapters/warehouse"
	"github.com/modelsmith-ai/modelsmith/pkg/logging"
)

// SchemaDiscoverer implements warehouse.SchemaDiscoverer for SQL Server.
type SchemaDiscoverer struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ warehouse.SchemaDiscoverer = (*SchemaDiscoverer)(nil)

// NewSchemaDiscoverer opens a SQL Server connection for schema lookups.
// If logger is nil, a no-op logger is used.
func NewSchemaDiscoverer(ctx context.Context, cfg *Config, logger *zap.Logger) (*SchemaDiscoverer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := buildConnectionString(cfg)
	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("Failed to connect to warehouse",
			zap.String("conn", logging.SanitizeConnectionString(connStr)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	return &SchemaDiscoverer{db: db, logger: logger.Named("mssql-discoverer")}, nil
}

// Ping verifies the warehouse connection is alive.
func (d *SchemaDiscoverer) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close releases the database connection.
func (d *SchemaDiscoverer) Close() error {
	return d.db.Close()
}

// DiscoverColumns returns the columns of a physical table in ordinal
// order, with primary key and unique index detection via sys.indexes.
func (d *SchemaDiscoverer) DiscoverColumns(ctx context.Context, ref warehouse.TableRef) ([]warehouse.Column, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    c.name AS column_name,
	    tp.name AS data_type,
	    CASE WHEN c.is_nullable = 1 THEN 1 ELSE 0 END AS is_nullable,
	    CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key,
	    CASE WHEN uq.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_unique
	FROM sys.columns c
	INNER JOIN sys.types tp ON c.user_type_id = tp.user_type_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	LEFT JOIN (
	    SELECT ic.object_id, ic.column_id
	    FROM sys.index_columns ic
	    INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	    WHERE i.is_unique = 1 AND i.is_primary_key = 0
	) uq ON c.object_id = uq.object_id AND c.column_id = uq.column_id
	WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + N'.' + QUOTENAME(@table))
	ORDER BY c.column_id
	`

	rows, err := d.db.QueryContext(ctx, query,
		sql.Named("schema", ref.Schema),
		sql.Named("table", ref.Table),
	)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", ref.FQN(), err)
	}
	defer rows.Close()

	var columns []warehouse.Column
	for rows.Next() {
		var col warehouse.Column
		var isNullable, isPrimary, isUnique int
		if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &isPrimary, &isUnique); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		col.IsNullable = isNullable == 1
		col.IsPrimary = isPrimary == 1
		col.IsUnique = isUnique == 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}

	return columns, nil
}

// GetDistinctValues returns up to limit distinct non-null values from a
// column, cast to nvarchar and sorted alphabetically.
func (d *SchemaDiscoverer) GetDistinctValues(ctx context.Context, ref warehouse.TableRef, column string, limit int) ([]string, error) {
	// QUOTENAME via the server side keeps identifier quoting dialect-correct.
	const lookup = `
	SET NOCOUNT ON;
	DECLARE @sql NVARCHAR(MAX) = N'SELECT DISTINCT TOP (@lim) CAST(' + QUOTENAME(@col) + N' AS NVARCHAR(4000)) AS v'
	    + N' FROM ' + QUOTENAME(@schema) + N'.' + QUOTENAME(@table)
	    + N' WHERE ' + QUOTENAME(@col) + N' IS NOT NULL ORDER BY v';
	EXEC sp_executesql @sql, N'@lim INT', @lim = @limit;
	`

	rows, err := d.db.QueryContext(ctx, lookup,
		sql.Named("col", column),
		sql.Named("schema", ref.Schema),
		sql.Named("table", ref.Table),
		sql.Named("limit", limit),
	)
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
