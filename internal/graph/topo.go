package graph

import (
	"sort"
)

// Ordering is the result of Sequence: tables ordered so that every parent of
// a surviving foreign key precedes its child, plus the constraints that had
// to be removed to break cycles.
type Ordering struct {
	Heads      []*Table      // Tables peeled as roots, in peel order
	Tails      []*Table      // Tables peeled as leaves, in final position order
	Unattached []*Table      // Tables that never had an edge in either direction
	Removed    []*Constraint // Constraints removed to break cycles, in removal order
}

// Tables returns heads, then tails, then unattached tables.
func (o *Ordering) Tables() []*Table {
	all := make([]*Table, 0, len(o.Heads)+len(o.Tails)+len(o.Unattached))
	all = append(all, o.Heads...)
	all = append(all, o.Tails...)
	all = append(all, o.Unattached...)
	return all
}

// LoadOrder returns table names in an order suitable for inserting data.
func (o *Ordering) LoadOrder() []string {
	return tableNames(o.Tables())
}

// DeletionOrder returns table names in an order suitable for deleting data:
// the attached tables reversed, followed by the unattached ones.
func (o *Ordering) DeletionOrder() []string {
	attached := make([]*Table, 0, len(o.Heads)+len(o.Tails))
	attached = append(attached, o.Heads...)
	attached = append(attached, o.Tails...)

	names := make([]string, 0, len(attached)+len(o.Unattached))
	for i := len(attached) - 1; i >= 0; i-- {
		names = append(names, attached[i].FullName())
	}
	return append(names, tableNames(o.Unattached)...)
}

func tableNames(tables []*Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.FullName()
	}
	return names
}

// Sequence orders every table of d by referential integrity. Leaves are
// peeled from the end and roots from the front; when neither exists the
// remaining tables hold a cycle, and a single constraint is removed to
// break it. Every removed constraint is reported in the result.
//
// Sequence is destructive: it unlinks every edge of d as it peels tables.
// Callers that still need the graph afterwards must Clone it first.
func Sequence(d *Database) *Ordering {
	ordering := &Ordering{}

	remaining := make([]*Table, 0, len(d.tables))
	for _, t := range d.Tables() {
		if t.IsUnattached() {
			ordering.Unattached = append(ordering.Unattached, t)
			continue
		}
		remaining = append(remaining, t)
	}
	sortByDegree(ordering.Unattached)

	for len(remaining) > 0 {
		var leaves, roots []*Table

		leaves, remaining = partition(remaining, (*Table).IsLeaf)
		for _, t := range leaves {
			t.unlinkParents()
		}
		sortByDegree(leaves)
		ordering.Tails = append(leaves, ordering.Tails...)

		roots, remaining = partition(remaining, (*Table).IsRoot)
		for _, t := range roots {
			t.unlinkChildren()
		}
		sortByDegree(roots)
		ordering.Heads = append(ordering.Heads, roots...)

		if len(leaves) == 0 && len(roots) == 0 && len(remaining) > 0 {
			ordering.Removed = append(ordering.Removed, breakCycle(remaining)...)
		}
	}

	return ordering
}

// partition splits tables into those matching pred and the rest, keeping order.
func partition(tables []*Table, pred func(*Table) bool) (matched, rest []*Table) {
	for _, t := range tables {
		if pred(t) {
			matched = append(matched, t)
		} else {
			rest = append(rest, t)
		}
	}
	return matched, rest
}

// breakCycle removes self-referencing constraints when any exist among the
// remaining tables; otherwise it removes a single constraint from the table
// whose live parent and child counts differ most.
func breakCycle(remaining []*Table) []*Constraint {
	sorted := make([]*Table, len(remaining))
	copy(sorted, remaining)
	sortByName(sorted)

	var removed []*Constraint
	for _, t := range sorted {
		for _, c := range t.Constraints() {
			if c.IsSelfReferencing() {
				removeConstraint(c)
				removed = append(removed, c)
			}
		}
	}
	if len(removed) > 0 {
		return removed
	}

	var target *Table
	best := -1
	for _, t := range sorted {
		diff := t.NumChildren() - t.NumParents()
		if diff < 0 {
			diff = -diff
		}
		if diff > best {
			best = diff
			target = t
		}
	}

	var c *Constraint
	if target.NumParents() <= target.NumChildren() {
		c = firstParentConstraint(target)
	} else {
		c = firstChildConstraint(target)
	}
	removeConstraint(c)
	return []*Constraint{c}
}

func firstParentConstraint(t *Table) *Constraint {
	for _, col := range t.Columns() {
		if parents := col.Parents(); len(parents) > 0 {
			return col.parents[parents[0]]
		}
	}
	return nil
}

func firstChildConstraint(t *Table) *Constraint {
	for _, col := range t.Columns() {
		if children := col.Children(); len(children) > 0 {
			return col.children[children[0]]
		}
	}
	return nil
}

// sortByDegree orders tables by historical children descending, then
// historical parents ascending, then name.
func sortByDegree(tables []*Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		a, b := tables[i], tables[j]
		if a.maxChildren != b.maxChildren {
			return a.maxChildren > b.maxChildren
		}
		if a.maxParents != b.maxParents {
			return a.maxParents < b.maxParents
		}
		return compareTables(a, b) < 0
	})
}
