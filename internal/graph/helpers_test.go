package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyasyash/schemaorder/internal/db"
)

const testSchema = "public"

func intCol(name string) db.ColumnMeta {
	return db.ColumnMeta{Name: name, Type: "int", Length: 10}
}

func textCol(name string) db.ColumnMeta {
	return db.ColumnMeta{Name: name, Type: "varchar", Length: 255, Nullable: true}
}

func tableMeta(name string, pk []string, cols ...db.ColumnMeta) db.TableMeta {
	for i := range cols {
		cols[i].Position = i + 1
	}
	return db.TableMeta{Name: name, Columns: cols, PrimaryKey: pk}
}

func fkRef(name, child, childCol, parent, parentCol string) db.ForeignKeyRef {
	return db.ForeignKeyRef{
		ConstraintName: name,
		ChildTable:     child,
		ChildColumn:    childCol,
		ParentTable:    parent,
		ParentColumn:   parentCol,
		KeySeq:         1,
	}
}

func threshold(v float64) *float64 {
	return &v
}

func build(t *testing.T, tables []db.TableMeta, refs ...db.ForeignKeyRef) *Database {
	t.Helper()
	d, unresolved, err := BuildGraph(&db.Metadata{Schema: testSchema, Tables: tables, ForeignKeys: refs})
	require.NoError(t, err)
	require.Empty(t, unresolved)
	return d
}

func names(tables []*Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

// assertSymmetric checks that every parent edge is mirrored by a child edge
// carrying the same constraint, and vice versa.
func assertSymmetric(t *testing.T, d *Database) {
	t.Helper()
	for _, tbl := range d.Tables() {
		for _, c := range tbl.Columns() {
			for parent, constraint := range c.parents {
				assert.Same(t, constraint, parent.children[c], "%s -> %s", c, parent)
			}
			for child, constraint := range c.children {
				assert.Same(t, constraint, child.parents[c], "%s <- %s", c, child)
			}
		}
	}
}

// assertParentsFirst checks that for every surviving constraint in before
// the parent table precedes the child table in order.
func assertParentsFirst(t *testing.T, order []string, constraints []*Constraint, removed []*Constraint) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	gone := make(map[string]bool, len(removed))
	for _, c := range removed {
		gone[c.ChildTable.FullName()+"/"+c.Name] = true
	}
	for _, c := range constraints {
		if gone[c.ChildTable.FullName()+"/"+c.Name] || c.IsSelfReferencing() {
			continue
		}
		assert.Less(t, pos[c.ParentTable.FullName()], pos[c.ChildTable.FullName()], "constraint %s", c)
	}
}
