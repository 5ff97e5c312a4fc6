package duckdb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/leapstack-labs/songplays/pkg/core"
)

// singleFileName is the file written for unpartitioned exports.
const singleFileName = "data_0.parquet"

// LoadJSON creates or replaces table from the JSON files matching pattern.
// The column list fixes the schema: records missing a field load NULL and
// records that are not valid JSON (or cannot be cast) fail the whole load.
func (a *Adapter) LoadJSON(ctx context.Context, table, pattern string, columns []core.Column) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(columns) == 0 {
		return fmt.Errorf("no columns declared for %s", table)
	}

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_json(%s, columns = %s, format = 'auto')",
		table,
		quoteLiteral(resolveLocal(pattern)),
		columnStruct(columns),
	)

	a.Logger.Debug("loading json", "table", table, "pattern", pattern)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load JSON from %s: %w", pattern, err)
	}

	return nil
}

// ExportParquet writes table to dest. Partitioned exports produce a hive
// directory tree under dest; unpartitioned exports write dest/data_0.parquet.
// The destination directory must already exist for local paths.
func (a *Adapter) ExportParquet(ctx context.Context, table, dest string, opts adapter.ExportOptions) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	dest = resolveLocal(dest)
	query := exportSQL(table, dest, opts)

	a.Logger.Debug("exporting parquet", "table", table, "dest", dest, "partition_by", opts.PartitionBy)
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s to %s: %w", table, dest, err)
	}

	return nil
}

// ImportParquet creates or replaces table from Parquet previously written by
// ExportParquet. Partition keys are restored from the hive path with their
// declared types. A location holding no files yields an empty table with the
// declared schema.
func (a *Adapter) ImportParquet(ctx context.Context, table, src string, columns []core.Column, partitionBy []string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	src = resolveLocal(src)
	pattern := core.JoinPath(src, "*.parquet")
	if len(partitionBy) > 0 {
		pattern = core.JoinPath(src, "**", "*.parquet")
	}

	files, err := a.countFiles(ctx, pattern)
	if err != nil {
		return err
	}

	var query string
	if files == 0 {
		a.Logger.Debug("no parquet files found, creating empty table", "table", table, "pattern", pattern)
		query = emptyTableSQL(table, columns)
	} else {
		query = importSQL(table, pattern, columns, partitionBy)
	}

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to import %s from %s: %w", table, src, err)
	}

	return nil
}

// countFiles returns the number of files matching a glob pattern.
func (a *Adapter) countFiles(ctx context.Context, pattern string) (int64, error) {
	var count int64
	//nolint:gosec // pattern is quoted as a literal
	query := fmt.Sprintf("SELECT COUNT(*) FROM glob(%s)", quoteLiteral(pattern))
	if err := a.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to list files for %s: %w", pattern, err)
	}
	return count, nil
}

// exportSQL renders the COPY statement for an export.
func exportSQL(table, dest string, opts adapter.ExportOptions) string {
	source := "SELECT * FROM " + table
	if len(opts.OrderBy) > 0 {
		source += " ORDER BY " + strings.Join(opts.OrderBy, ", ")
	}

	options := []string{"FORMAT PARQUET"}
	target := dest
	if len(opts.PartitionBy) > 0 {
		options = append(options, "PARTITION_BY ("+strings.Join(opts.PartitionBy, ", ")+")")
		if opts.Overwrite {
			options = append(options, "OVERWRITE_OR_IGNORE true")
		}
	} else {
		target = core.JoinPath(dest, singleFileName)
	}

	return fmt.Sprintf("COPY (%s) TO %s (%s)", source, quoteLiteral(target), strings.Join(options, ", "))
}

// importSQL renders the CREATE TABLE statement reading exported Parquet back.
func importSQL(table, pattern string, columns []core.Column, partitionBy []string) string {
	selects := make([]string, len(columns))
	for i, c := range columns {
		selects[i] = fmt.Sprintf("CAST(%s AS %s) AS %s", c.Name, c.Type, c.Name)
	}

	options := "hive_partitioning = false"
	if len(partitionBy) > 0 {
		types := make([]string, 0, len(partitionBy))
		for _, key := range partitionBy {
			types = append(types, fmt.Sprintf("%s: %s", quoteLiteral(key), columnType(columns, key)))
		}
		options = fmt.Sprintf("hive_partitioning = true, hive_types = {%s}", strings.Join(types, ", "))
	}

	return fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT %s FROM read_parquet(%s, %s)",
		table,
		strings.Join(selects, ", "),
		quoteLiteral(pattern),
		options,
	)
}

// emptyTableSQL renders a CREATE TABLE statement for an empty typed table.
func emptyTableSQL(table string, columns []core.Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = c.Name + " " + c.Type
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", table, strings.Join(defs, ", "))
}

// columnStruct renders columns as a DuckDB struct literal for read_json.
func columnStruct(columns []core.Column) string {
	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = fmt.Sprintf("%s: %s", quoteLiteral(c.Name), quoteLiteral(c.Type))
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

// columnType returns the declared type of name, defaulting to VARCHAR.
func columnType(columns []core.Column, name string) string {
	for _, c := range columns {
		if c.Name == name {
			return c.Type
		}
	}
	return "VARCHAR"
}

// resolveLocal makes local paths absolute and leaves URLs untouched.
func resolveLocal(path string) string {
	if core.IsRemotePath(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
