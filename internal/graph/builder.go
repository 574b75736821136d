package graph

import (
	"fmt"
	"strings"

	"github.com/riyasyash/schemaorder/internal/db"
)

// UnresolvedReference is a declared foreign key column pair that could not
// be linked because one of its ends does not exist in the registry.
type UnresolvedReference struct {
	Ref    db.ForeignKeyRef
	Reason string
}

func (u *UnresolvedReference) Error() string {
	r := u.Ref
	return fmt.Sprintf("%s: %s.%s -> %s.%s: %s", r.ConstraintName,
		qualify(r.ChildSchema, r.ChildTable), r.ChildColumn,
		qualify(r.ParentSchema, r.ParentTable), r.ParentColumn, u.Reason)
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// BuildGraph constructs the table registry from scanned metadata and links
// its declared foreign keys. References that cannot be resolved are
// returned as diagnostics rather than failing the build.
func BuildGraph(metadata *db.Metadata) (*Database, []*UnresolvedReference, error) {
	d := NewDatabase(metadata.Schema)

	for _, tm := range metadata.Tables {
		t := d.AddTable(metadata.Schema, tm.Name, tm.View)
		for _, cm := range tm.Columns {
			t.AddColumn(ColumnSpec{
				Name:     cm.Name,
				Type:     cm.Type,
				Length:   cm.Length,
				Nullable: cm.Nullable,
			})
		}
		if err := t.SetPrimaryKey(tm.PrimaryKey...); err != nil {
			return nil, nil, err
		}
	}

	return d, Link(d, metadata.ForeignKeys), nil
}

// Link turns declared foreign key column pairs into constraints with edges
// in both directions. Pairs are grouped by child table and constraint name;
// a group becomes one constraint. Linking the same references again is a
// no-op.
func Link(d *Database, refs []db.ForeignKeyRef) []*UnresolvedReference {
	var unresolved []*UnresolvedReference

	for _, ref := range refs {
		if strings.TrimSpace(ref.ConstraintName) == "" {
			continue
		}

		childSchema := ref.ChildSchema
		if childSchema == "" {
			childSchema = d.Name
		}
		parentSchema := ref.ParentSchema
		if parentSchema == "" {
			parentSchema = childSchema
		}

		child, parent, reason := resolve(d, childSchema, parentSchema, ref)
		if reason != "" {
			unresolved = append(unresolved, &UnresolvedReference{Ref: ref, Reason: reason})
			continue
		}

		constraint := child.Table.Constraint(ref.ConstraintName)
		if constraint == nil {
			constraint = &Constraint{
				Name:        ref.ConstraintName,
				ChildTable:  child.Table,
				ParentTable: parent.Table,
				DeleteRule:  ref.DeleteRule,
				UpdateRule:  ref.UpdateRule,
			}
			child.Table.constraints[fold(constraint.Name)] = constraint
		} else if constraint.ParentTable != parent.Table {
			unresolved = append(unresolved, &UnresolvedReference{
				Ref:    ref,
				Reason: fmt.Sprintf("constraint already references %s", constraint.ParentTable.FullName()),
			})
			continue
		}

		if constraint.hasPair(child, parent) {
			continue
		}
		constraint.addPair(child, parent)

		if _, linked := child.parents[parent]; linked {
			continue
		}
		addEdge(child, parent, constraint)
	}

	return unresolved
}

func resolve(d *Database, childSchema, parentSchema string, ref db.ForeignKeyRef) (*Column, *Column, string) {
	childTable := d.Table(childSchema, ref.ChildTable)
	if childTable == nil {
		return nil, nil, "child table not found"
	}
	child := childTable.Column(ref.ChildColumn)
	if child == nil {
		return nil, nil, "child column not found"
	}

	parentTable := d.Table(parentSchema, ref.ParentTable)
	if parentTable == nil {
		return nil, nil, "parent table not found"
	}
	parent := parentTable.Column(ref.ParentColumn)
	if parent == nil {
		return nil, nil, "parent column not found"
	}

	return child, parent, ""
}
