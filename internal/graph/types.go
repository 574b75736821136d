// Package graph provides the relationship model of a relational schema:
// tables, columns and the foreign key constraints between them. It links
// declared constraints, infers implied ones and orders tables so that
// every parent precedes its children, breaking cycles where it must.
//
// A Database is not safe for concurrent use. Independent schemas must be
// modelled by independent Database values.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-insensitive lookup key for an identifier.
// A Caser carries state, so one is created per call.
func fold(name string) string {
	return cases.Fold().String(name)
}

func tableKey(schema, name string) string {
	return fold(schema) + "." + fold(name)
}

// Database is the registry of tables belonging to one scanned schema,
// together with any cross-schema tables they reference.
type Database struct {
	Name   string // Name of the scanned schema
	tables map[string]*Table
}

// NewDatabase returns an empty registry for the named schema.
func NewDatabase(name string) *Database {
	return &Database{
		Name:   name,
		tables: make(map[string]*Table),
	}
}

// AddTable registers a table or view. Names are unique per schema ignoring
// case; adding an existing table returns the registered one unchanged.
func (d *Database) AddTable(schema, name string, view bool) *Table {
	key := tableKey(schema, name)
	if t, ok := d.tables[key]; ok {
		return t
	}

	t := &Table{
		Schema:      schema,
		Name:        name,
		View:        view,
		columnIndex: make(map[string]*Column),
		constraints: make(map[string]*Constraint),
	}
	d.tables[key] = t
	return t
}

// Table looks up a table ignoring case. It returns nil if no such table exists.
func (d *Database) Table(schema, name string) *Table {
	return d.tables[tableKey(schema, name)]
}

// Tables returns every registered table ordered by name.
func (d *Database) Tables() []*Table {
	tables := make([]*Table, 0, len(d.tables))
	for _, t := range d.tables {
		tables = append(tables, t)
	}
	sortByName(tables)
	return tables
}

// Constraints returns every live constraint, ordered by child table and name.
func (d *Database) Constraints() []*Constraint {
	var all []*Constraint
	for _, t := range d.Tables() {
		all = append(all, t.Constraints()...)
	}
	return all
}

// ImpliedConstraints returns the live constraints that were inferred rather than declared.
func (d *Database) ImpliedConstraints() []*Constraint {
	var implied []*Constraint
	for _, c := range d.Constraints() {
		if c.Implied {
			implied = append(implied, c)
		}
	}
	return implied
}

// Table is a table or view. Its columns keep their declared order.
type Table struct {
	Schema string
	Name   string
	View   bool

	columns     []*Column
	columnIndex map[string]*Column
	primaryKey  []*Column

	// constraints are the constraints in which this table is the child,
	// keyed by folded constraint name.
	constraints map[string]*Constraint

	maxParents  int
	maxChildren int
}

// FullName returns the schema-qualified table name.
func (t *Table) FullName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t *Table) String() string {
	return t.FullName()
}

// ColumnSpec describes a column to add to a table.
type ColumnSpec struct {
	Name     string
	Type     string
	Length   int
	Nullable bool
}

// AddColumn appends a column. Adding a name that already exists, ignoring
// case, returns the existing column.
func (t *Table) AddColumn(spec ColumnSpec) *Column {
	key := fold(spec.Name)
	if c, ok := t.columnIndex[key]; ok {
		return c
	}

	c := &Column{
		Table:    t,
		Name:     spec.Name,
		Type:     spec.Type,
		Length:   spec.Length,
		Nullable: spec.Nullable,
		Position: len(t.columns) + 1,
		parents:  make(map[*Column]*Constraint),
		children: make(map[*Column]*Constraint),
	}
	t.columns = append(t.columns, c)
	t.columnIndex[key] = c
	return c
}

// Column looks up a column ignoring case. It returns nil if no such column exists.
func (t *Table) Column(name string) *Column {
	return t.columnIndex[fold(name)]
}

// Columns returns the columns in declared order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// SetPrimaryKey records the primary key columns in key order.
func (t *Table) SetPrimaryKey(names ...string) error {
	pk := make([]*Column, 0, len(names))
	for _, name := range names {
		c := t.Column(name)
		if c == nil {
			return fmt.Errorf("primary key column %s not found in table %s", name, t.FullName())
		}
		pk = append(pk, c)
	}
	t.primaryKey = pk
	return nil
}

// PrimaryKey returns the primary key columns, empty when the table has none.
func (t *Table) PrimaryKey() []*Column {
	return t.primaryKey
}

// Constraints returns the live constraints held by this table as the child,
// ordered by name.
func (t *Table) Constraints() []*Constraint {
	cs := make([]*Constraint, 0, len(t.constraints))
	for _, c := range t.constraints {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].Name < cs[j].Name
	})
	return cs
}

// Constraint looks up a live constraint held by this table, ignoring case.
func (t *Table) Constraint(name string) *Constraint {
	return t.constraints[fold(name)]
}

// Column is a table column. Its parents are the columns in other tables
// whose values it must match; its children are the columns that must
// match its values.
type Column struct {
	Table    *Table
	Name     string
	Type     string
	Length   int
	Nullable bool
	Position int // 1-based position within the table

	parents  map[*Column]*Constraint
	children map[*Column]*Constraint
}

func (c *Column) String() string {
	return c.Table.FullName() + "." + c.Name
}

// IsForeignKey reports whether the column currently references a parent column.
func (c *Column) IsForeignKey() bool {
	return len(c.parents) > 0
}

// IsPrimaryKey reports whether the column is part of its table's primary key.
func (c *Column) IsPrimaryKey() bool {
	for _, pk := range c.Table.primaryKey {
		if pk == c {
			return true
		}
	}
	return false
}

// Parents returns the referenced columns ordered by table and column name.
func (c *Column) Parents() []*Column {
	return sortedColumns(c.parents)
}

// Children returns the referencing columns ordered by table and column name.
func (c *Column) Children() []*Column {
	return sortedColumns(c.children)
}

// ParentConstraint returns the constraint linking c to parent, or nil.
func (c *Column) ParentConstraint(parent *Column) *Constraint {
	return c.parents[parent]
}

// ChildConstraint returns the constraint linking child to c, or nil.
func (c *Column) ChildConstraint(child *Column) *Constraint {
	return c.children[child]
}

// link records the edge child -> parent on both columns.
func link(child, parent *Column, constraint *Constraint) {
	child.parents[parent] = constraint
	parent.children[child] = constraint
}

// unlink removes the edge child -> parent from both columns.
func unlink(child, parent *Column) {
	delete(child.parents, parent)
	delete(parent.children, child)
}

// Constraint is a directed foreign key from child columns in one table to
// the same number of parent columns in one table, pairwise by position.
type Constraint struct {
	Name          string
	ChildTable    *Table
	ParentTable   *Table
	ChildColumns  []*Column
	ParentColumns []*Column
	Implied       bool
	DeleteRule    string
	UpdateRule    string
}

// IsSelfReferencing reports whether the constraint's parent and child table are the same.
func (c *Constraint) IsSelfReferencing() bool {
	return c.ParentTable == c.ChildTable
}

func (c *Constraint) String() string {
	child := make([]string, len(c.ChildColumns))
	for i, col := range c.ChildColumns {
		child[i] = col.Name
	}
	parent := make([]string, len(c.ParentColumns))
	for i, col := range c.ParentColumns {
		parent[i] = col.Name
	}
	return fmt.Sprintf("%s: %s(%s) -> %s(%s)", c.Name,
		c.ChildTable.FullName(), strings.Join(child, ", "),
		c.ParentTable.FullName(), strings.Join(parent, ", "))
}

func (c *Constraint) addPair(child, parent *Column) {
	c.ChildColumns = append(c.ChildColumns, child)
	c.ParentColumns = append(c.ParentColumns, parent)
}

func (c *Constraint) hasPair(child, parent *Column) bool {
	for i := range c.ChildColumns {
		if c.ChildColumns[i] == child && c.ParentColumns[i] == parent {
			return true
		}
	}
	return false
}

func sortedColumns(m map[*Column]*Constraint) []*Column {
	cols := make([]*Column, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool {
		return compareColumns(cols[i], cols[j]) < 0
	})
	return cols
}

func compareColumns(a, b *Column) int {
	if n := compareTables(a.Table, b.Table); n != 0 {
		return n
	}
	if a.Position != b.Position {
		if a.Position < b.Position {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

func compareTables(a, b *Table) int {
	if n := strings.Compare(fold(a.Name), fold(b.Name)); n != 0 {
		return n
	}
	if n := strings.Compare(fold(a.Schema), fold(b.Schema)); n != 0 {
		return n
	}
	return strings.Compare(a.Name, b.Name)
}

func sortByName(tables []*Table) {
	sort.Slice(tables, func(i, j int) bool {
		return compareTables(tables[i], tables[j]) < 0
	})
}
