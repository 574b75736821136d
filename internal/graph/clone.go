package graph

// Clone returns a deep copy of d: tables, columns, registered constraints,
// live edges and historical degree counters. Mutating the copy, for example
// by sequencing it, leaves d untouched.
func (d *Database) Clone() *Database {
	out := NewDatabase(d.Name)

	tables := make(map[*Table]*Table, len(d.tables))
	columns := make(map[*Column]*Column)

	for key, t := range d.tables {
		nt := &Table{
			Schema:      t.Schema,
			Name:        t.Name,
			View:        t.View,
			columns:     make([]*Column, 0, len(t.columns)),
			columnIndex: make(map[string]*Column, len(t.columnIndex)),
			constraints: make(map[string]*Constraint, len(t.constraints)),
			maxParents:  t.maxParents,
			maxChildren: t.maxChildren,
		}
		for _, c := range t.columns {
			nc := &Column{
				Table:    nt,
				Name:     c.Name,
				Type:     c.Type,
				Length:   c.Length,
				Nullable: c.Nullable,
				Position: c.Position,
				parents:  make(map[*Column]*Constraint, len(c.parents)),
				children: make(map[*Column]*Constraint, len(c.children)),
			}
			nt.columns = append(nt.columns, nc)
			nt.columnIndex[fold(c.Name)] = nc
			columns[c] = nc
		}
		out.tables[key] = nt
		tables[t] = nt
	}

	constraints := make(map[*Constraint]*Constraint)
	cloneConstraint := func(c *Constraint) *Constraint {
		if nc, ok := constraints[c]; ok {
			return nc
		}
		nc := &Constraint{
			Name:          c.Name,
			ChildTable:    tables[c.ChildTable],
			ParentTable:   tables[c.ParentTable],
			ChildColumns:  make([]*Column, len(c.ChildColumns)),
			ParentColumns: make([]*Column, len(c.ParentColumns)),
			Implied:       c.Implied,
			DeleteRule:    c.DeleteRule,
			UpdateRule:    c.UpdateRule,
		}
		for i := range c.ChildColumns {
			nc.ChildColumns[i] = columns[c.ChildColumns[i]]
			nc.ParentColumns[i] = columns[c.ParentColumns[i]]
		}
		constraints[c] = nc
		return nc
	}

	for t, nt := range tables {
		for _, pk := range t.primaryKey {
			nt.primaryKey = append(nt.primaryKey, columns[pk])
		}
		for key, c := range t.constraints {
			nt.constraints[key] = cloneConstraint(c)
		}
		for _, c := range t.columns {
			nc := columns[c]
			for parent, constraint := range c.parents {
				link(nc, columns[parent], cloneConstraint(constraint))
			}
		}
	}

	return out
}
