package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all tabular engine adapters must implement.
// Beyond plain SQL execution it exposes the file-oriented operations the
// pipeline needs: loading JSON records and moving relations to and from
// partitioned Parquet.
type Adapter interface {
	// Connect establishes a connection to the engine.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the engine connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves the columns and row count of a relation.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// CountRows returns the number of rows in a relation.
	CountRows(ctx context.Context, table string) (int64, error)

	// LoadJSON creates (or replaces) a table from JSON files matching pattern.
	// Columns fixes the record schema; fields absent from a record load as NULL.
	LoadJSON(ctx context.Context, table, pattern string, columns []Column) error

	// ExportParquet writes a relation to dest as Parquet.
	ExportParquet(ctx context.Context, table, dest string, opts ExportOptions) error

	// ImportParquet creates (or replaces) a table from Parquet written by ExportParquet.
	ImportParquet(ctx context.Context, table, src string, columns []Column, partitionBy []string) error
}

// AdapterConfig holds configuration for connecting to an engine.
type AdapterConfig struct {
	Type     string
	Path     string
	Database string
	Options  map[string]string
	Params   map[string]any
}

// ExportOptions controls how a relation is written as Parquet.
type ExportOptions struct {
	// PartitionBy lists hive partition columns; empty writes a single file.
	PartitionBy []string

	// OrderBy fixes row order so repeated exports produce equivalent files.
	OrderBy []string

	// Overwrite replaces files already present at the destination.
	Overwrite bool
}

// Column represents a column in a table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a table.
type TableMetadata struct {
	Schema    string
	Name      string
	Columns   []Column
	RowCount  int64
	SizeBytes int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
