// Package warehouse defines the boundaries to the data warehouse: schema
// metadata lookup for inference and validation, and the stage store that
// published model artifacts are written to. Implementations live in the
// per-engine subpackages.
package warehouse

import "context"

// TableRef is a fully-qualified physical table reference.
type TableRef struct {
	Database string
	Schema   string
	Table    string
}

// FQN returns the database.schema.table form of the reference.
func (r TableRef) FQN() string {
	return r.Database + "." + r.Schema + "." + r.Table
}

// Column describes a physical column as reported by the warehouse.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	IsPrimary  bool
	IsUnique   bool
}

// SchemaDiscoverer looks up physical schema metadata. Calls are blocking
// with no built-in retry; cancellation is the caller's context.
// Each implementation owns its connection and must be closed when done.
type SchemaDiscoverer interface {
	// DiscoverColumns returns the columns of a physical table in
	// ordinal order. An unknown table yields an empty slice, not an
	// error; the caller decides whether that is fatal.
	DiscoverColumns(ctx context.Context, ref TableRef) ([]Column, error)

	// GetDistinctValues returns up to limit distinct non-null values
	// from a column, as strings, sorted alphabetically.
	GetDistinctValues(ctx context.Context, ref TableRef, column string, limit int) ([]string, error)

	// Ping verifies the warehouse connection is alive.
	Ping(ctx context.Context) error

	// Close releases the warehouse connection.
	Close() error
}

// StageRef identifies a stage: a named remote location inside a
// warehouse database and schema where serialized artifacts land.
type StageRef struct {
	Database string
	Schema   string
	Name     string
}

// StageStore writes serialized model artifacts to a stage.
// Each implementation owns its connection and must be closed when done.
type StageStore interface {
	// Write stores content under name in the stage, overwriting any
	// prior artifact with the same name.
	Write(ctx context.Context, stage StageRef, name string, content []byte) error

	// Delete removes the named artifact. Deleting a missing artifact is
	// not an error. Callers treat failures as best-effort cleanup.
	Delete(ctx context.Context, stage StageRef, name string) error

	// Ping verifies the stage connection is alive.
	Ping(ctx context.Context) error

	// Close releases the stage connection.
	Close() error
}
