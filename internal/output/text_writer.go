package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TextWriter renders reports as human-readable sections.
type TextWriter struct {
	writer  io.Writer
	heading *color.Color
	warning *color.Color
	muted   *color.Color
}

// NewTextWriter creates a text writer that outputs to the given writer.
func NewTextWriter(writer io.Writer) *TextWriter {
	return &TextWriter{
		writer:  writer,
		heading: color.New(color.FgCyan, color.Bold),
		warning: color.New(color.FgYellow),
		muted:   color.New(color.FgHiBlack),
	}
}

func (w *TextWriter) Write(reports []*Report) error {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w.writer)
		}
		w.writeReport(r)
	}
	return nil
}

func (w *TextWriter) writeReport(r *Report) {
	w.heading.Fprintf(w.writer, "Schema %s\n", r.Schema)
	fmt.Fprintln(w.writer, strings.Repeat("=", 60))

	w.section("Load order")
	writeNumbered(w.writer, r.LoadOrder)

	w.section("Deletion order")
	writeNumbered(w.writer, r.DeletionOrder)

	if len(r.Unattached) > 0 {
		w.section("Unattached tables")
		for _, name := range r.Unattached {
			fmt.Fprintf(w.writer, "  - %s\n", name)
		}
	}

	if len(r.Removed) > 0 {
		w.section("Removed constraints")
		for _, c := range r.Removed {
			w.warning.Fprintf(w.writer, "  - %s\n", formatConstraint(c))
		}
	}

	if len(r.Implied) > 0 {
		w.section("Implied constraints")
		for _, c := range r.Implied {
			fmt.Fprintf(w.writer, "  - %s\n", formatConstraint(c))
		}
	}
	if r.InferenceSkipped {
		w.muted.Fprintln(w.writer, "\nImplied constraints skipped: too many duplicated primary keys")
	}

	if len(r.Unresolved) > 0 {
		w.section("Unresolved references")
		for _, u := range r.Unresolved {
			w.warning.Fprintf(w.writer, "  - %s\n", u)
		}
	}
}

func (w *TextWriter) section(title string) {
	fmt.Fprintln(w.writer)
	w.heading.Fprintf(w.writer, "%s:\n", title)
}

func writeNumbered(out io.Writer, names []string) {
	for i, name := range names {
		fmt.Fprintf(out, "  %3d. %s\n", i+1, name)
	}
}

func formatConstraint(c ConstraintReport) string {
	return fmt.Sprintf("%s: %s(%s) -> %s(%s)", c.Name,
		c.Child, strings.Join(c.ChildColumns, ", "),
		c.Parent, strings.Join(c.ParentColumns, ", "))
}
