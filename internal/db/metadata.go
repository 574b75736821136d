package db

import (
	"context"
	"fmt"
	"sort"
)

// ColumnMeta describes a single column as reported by the catalog.
type ColumnMeta struct {
	Name     string // Column name as declared
	Type     string // Declared type name (e.g. "integer", "varchar")
	Length   int    // Declared length or precision, 0 when not applicable
	Nullable bool   // Whether the column accepts NULL
	Position int    // 1-based ordinal position within the table
}

// TableMeta describes a table or view and its columns.
type TableMeta struct {
	Name       string       // Table name as declared
	View       bool         // True for views
	Columns    []ColumnMeta // Columns in ordinal order
	PrimaryKey []string     // Primary key columns in key order (supports composite PKs)
}

// ForeignKeyRef represents one column pair of a declared foreign key.
// Multi-column foreign keys produce one ForeignKeyRef per column, sharing
// the same ConstraintName and ordered by KeySeq.
type ForeignKeyRef struct {
	ConstraintName string // Declared constraint name
	ChildSchema    string // Schema of the referencing table
	ChildTable     string // Table containing the foreign key
	ChildColumn    string // Column in child table
	ParentSchema   string // Schema of the referenced table
	ParentTable    string // Referenced parent table
	ParentColumn   string // Referenced column in parent table
	KeySeq         int    // 1-based position of this pair within the constraint
	DeleteRule     string // ON DELETE action, e.g. "CASCADE"
	UpdateRule     string // ON UPDATE action
}

// Metadata contains the tables and declared foreign keys of one schema.
type Metadata struct {
	Schema      string
	Tables      []TableMeta
	ForeignKeys []ForeignKeyRef
}

// ProgressFunc is notified as each table's metadata is assembled.
type ProgressFunc func(current, total int, table string)

// Scanner reads catalog metadata for a single schema.
type Scanner interface {
	Scan(ctx context.Context, schema string, progress ProgressFunc) (*Metadata, error)
}

// ExtractMetadata scans the given schema using the scanner that matches the
// connection's driver. An empty schema selects the driver's default schema.
func (c *Connection) ExtractMetadata(ctx context.Context, schema string, progress ProgressFunc) (*Metadata, error) {
	if schema == "" {
		schema = c.DefaultSchema
	}

	scanner, err := c.Scanner()
	if err != nil {
		return nil, err
	}

	metadata, err := scanner.Scan(ctx, schema, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to scan schema %s: %w", schema, err)
	}

	return metadata, nil
}

// Scanner returns the catalog scanner for the connection's driver.
func (c *Connection) Scanner() (Scanner, error) {
	switch c.Driver {
	case DriverPostgres:
		return &postgresScanner{db: c.DB}, nil
	case DriverMySQL:
		return &mysqlScanner{db: c.DB}, nil
	case DriverSQLite:
		return &sqliteScanner{db: c.DB}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
}

// assembleTables turns per-table column and key rows into TableMeta values
// sorted by table name, reporting progress as it goes.
func assembleTables(names []string, views map[string]bool, columns map[string][]ColumnMeta, pks map[string][]string, progress ProgressFunc) []TableMeta {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	tables := make([]TableMeta, 0, len(sorted))
	for i, name := range sorted {
		cols := columns[name]
		sort.SliceStable(cols, func(a, b int) bool {
			return cols[a].Position < cols[b].Position
		})

		tables = append(tables, TableMeta{
			Name:       name,
			View:       views[name],
			Columns:    cols,
			PrimaryKey: pks[name],
		})

		if progress != nil {
			progress(i+1, len(sorted), name)
		}
	}

	return tables
}

// sortForeignKeys orders references by child table, constraint name and key sequence
// so that downstream grouping is deterministic.
func sortForeignKeys(refs []ForeignKeyRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].ChildTable != refs[j].ChildTable {
			return refs[i].ChildTable < refs[j].ChildTable
		}
		if refs[i].ConstraintName != refs[j].ConstraintName {
			return refs[i].ConstraintName < refs[j].ConstraintName
		}
		return refs[i].KeySeq < refs[j].KeySeq
	})
}
