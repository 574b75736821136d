package graph

// Live degrees are read straight from the column edge maps. Only the
// historical maxima need bookkeeping: ordering prunes live edges, while its
// sort keys must keep reflecting the graph's shape before pruning.

func (t *Table) addedParent() {
	t.maxParents++
}

func (t *Table) addedChild() {
	t.maxChildren++
}

// NumParents returns the number of live edges from this table's columns to parent columns.
func (t *Table) NumParents() int {
	n := 0
	for _, c := range t.columns {
		n += len(c.parents)
	}
	return n
}

// NumChildren returns the number of live edges from child columns to this table's columns.
func (t *Table) NumChildren() int {
	n := 0
	for _, c := range t.columns {
		n += len(c.children)
	}
	return n
}

// MaxParents returns the highest number of parent edges the table ever had.
func (t *Table) MaxParents() int {
	return t.maxParents
}

// MaxChildren returns the highest number of child edges the table ever had.
func (t *Table) MaxChildren() int {
	return t.maxChildren
}

// IsRoot reports whether the table currently references no other table.
func (t *Table) IsRoot() bool {
	for _, c := range t.columns {
		if len(c.parents) > 0 {
			return false
		}
	}
	return true
}

// IsLeaf reports whether no table currently references this one.
func (t *Table) IsLeaf() bool {
	for _, c := range t.columns {
		if len(c.children) > 0 {
			return false
		}
	}
	return true
}

// IsUnattached reports whether the table has no live edges in either direction.
func (t *Table) IsUnattached() bool {
	return t.IsRoot() && t.IsLeaf()
}

// addEdge links child -> parent under constraint and updates both tables' maxima.
func addEdge(child, parent *Column, constraint *Constraint) {
	link(child, parent, constraint)
	child.Table.addedParent()
	parent.Table.addedChild()
}

// unlinkParents drops every edge from this table to its parents. The
// constraints stay registered; they are satisfied, not sacrificed.
func (t *Table) unlinkParents() {
	for _, c := range t.columns {
		for parent := range c.parents {
			unlink(c, parent)
		}
	}
}

// unlinkChildren drops every edge from child tables to this table.
func (t *Table) unlinkChildren() {
	for _, c := range t.columns {
		for child := range c.children {
			unlink(child, c)
		}
	}
}

// removeConstraint drops every edge owned by c and deregisters it from its
// child table. An edge that another live constraint also declares is handed
// to that constraint instead, so it stays in the graph until every
// constraint covering it has been removed.
func removeConstraint(c *Constraint) {
	delete(c.ChildTable.constraints, fold(c.Name))
	for i := range c.ChildColumns {
		child, parent := c.ChildColumns[i], c.ParentColumns[i]
		if child.parents[parent] != c {
			continue
		}
		if heir := sharedConstraint(c.ChildTable, child, parent); heir != nil {
			link(child, parent, heir)
			continue
		}
		unlink(child, parent)
	}
}

// sharedConstraint returns the first live constraint of t, by name, that
// also declares the pair child -> parent.
func sharedConstraint(t *Table, child, parent *Column) *Constraint {
	for _, c := range t.Constraints() {
		if c.hasPair(child, parent) {
			return c
		}
	}
	return nil
}
