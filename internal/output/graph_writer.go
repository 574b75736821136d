package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/riyasyash/schemaorder/internal/graph"
)

// GraphWriter lists every table of a graph with the tables it references
// and the tables referencing it.
type GraphWriter struct {
	writer io.Writer
}

func NewGraphWriter(writer io.Writer) *GraphWriter {
	return &GraphWriter{writer: writer}
}

// Write prints d. It expects a graph that has not been sequenced, since
// sequencing unlinks every edge.
func (w *GraphWriter) Write(d *graph.Database) error {
	children := make(map[*graph.Table][]*graph.Constraint)
	for _, c := range d.Constraints() {
		children[c.ParentTable] = append(children[c.ParentTable], c)
	}

	fmt.Fprintf(w.writer, "Foreign Key Graph of %s:\n", d.Name)
	fmt.Fprintln(w.writer)

	for _, t := range d.Tables() {
		name := t.FullName()
		if t.View {
			name += " (view)"
		}
		fmt.Fprintf(w.writer, "%s\n", name)

		parents := t.Constraints()
		sort.SliceStable(parents, func(i, j int) bool {
			return parents[i].ParentTable.FullName() < parents[j].ParentTable.FullName()
		})
		for _, c := range parents {
			fmt.Fprintf(w.writer, "  ↑ %s (via %s)%s\n",
				c.ParentTable.FullName(), strings.Join(columnNames(c.ChildColumns), ", "), annotate(c))
		}

		refs := children[t]
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].ChildTable.FullName() < refs[j].ChildTable.FullName()
		})
		for _, c := range refs {
			via := make([]string, len(c.ChildColumns))
			for i, col := range c.ChildColumns {
				via[i] = c.ChildTable.Name + "." + col.Name
			}
			fmt.Fprintf(w.writer, "  ↓ %s (via %s)%s\n",
				c.ChildTable.FullName(), strings.Join(via, ", "), annotate(c))
		}

		fmt.Fprintln(w.writer)
	}

	return nil
}

func annotate(c *graph.Constraint) string {
	var notes []string
	if c.Implied {
		notes = append(notes, "implied")
	}
	if c.DeleteRule != "" && !strings.EqualFold(c.DeleteRule, "NO ACTION") {
		notes = append(notes, "on delete "+strings.ToLower(c.DeleteRule))
	}
	if len(notes) == 0 {
		return ""
	}
	return " [" + strings.Join(notes, ", ") + "]"
}
