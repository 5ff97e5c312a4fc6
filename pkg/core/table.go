package core

import "strings"

// Table describes a relation the pipeline builds and persists.
type Table struct {
	// Name is the engine relation holding the table's rows.
	Name string

	// Dir is the directory under the output root the table is written to.
	Dir string

	// Columns is the declared schema, in output order. Partition keys are included.
	Columns []Column

	// PartitionBy lists the hive partition keys (none, one or two).
	PartitionBy []string

	// OrderBy fixes the written row order.
	OrderBy []string
}

// ColumnNames returns the declared column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IsPartitioned reports whether the table is written with partition keys.
func (t Table) IsPartitioned() bool {
	return len(t.PartitionBy) > 0
}

// String returns the table name.
func (t Table) String() string {
	return t.Name
}

// JoinPath joins a storage root and a relative path with a single slash.
// Works for both local paths and URLs such as s3://bucket/prefix.
func JoinPath(root string, elem ...string) string {
	p := strings.TrimRight(root, "/")
	for _, e := range elem {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		if p == "" {
			p = e
			continue
		}
		p = p + "/" + e
	}
	return p
}

// IsRemotePath reports whether path addresses object storage (scheme://...).
func IsRemotePath(path string) bool {
	return strings.Contains(path, "://")
}
