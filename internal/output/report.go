// Package output renders analysis results as text, JSON or YAML orderings,
// and lists the foreign key graph for inspection. All writers produce
// deterministic output.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/riyasyash/schemaorder/internal/analyzer"
	"github.com/riyasyash/schemaorder/internal/graph"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by NewWriter for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

// Report is the serializable view of one schema's analysis.
type Report struct {
	Schema           string             `json:"schema" yaml:"schema"`
	LoadOrder        []string           `json:"load_order" yaml:"load_order"`
	DeletionOrder    []string           `json:"deletion_order" yaml:"deletion_order"`
	Unattached       []string           `json:"unattached" yaml:"unattached"`
	Removed          []ConstraintReport `json:"removed_constraints" yaml:"removed_constraints"`
	Implied          []ConstraintReport `json:"implied_constraints" yaml:"implied_constraints"`
	Unresolved       []string           `json:"unresolved_references,omitempty" yaml:"unresolved_references,omitempty"`
	InferenceSkipped bool               `json:"inference_skipped,omitempty" yaml:"inference_skipped,omitempty"`
}

// ConstraintReport describes a constraint by table and column names.
type ConstraintReport struct {
	Name          string   `json:"name" yaml:"name"`
	Child         string   `json:"child" yaml:"child"`
	ChildColumns  []string `json:"child_columns" yaml:"child_columns"`
	Parent        string   `json:"parent" yaml:"parent"`
	ParentColumns []string `json:"parent_columns" yaml:"parent_columns"`
	Implied       bool     `json:"implied,omitempty" yaml:"implied,omitempty"`
}

// NewReport summarizes an analysis.
func NewReport(a *analyzer.Analysis) *Report {
	r := &Report{
		Schema:        a.Schema,
		LoadOrder:     a.Ordering.LoadOrder(),
		DeletionOrder: a.Ordering.DeletionOrder(),
		Unattached:    make([]string, 0, len(a.Ordering.Unattached)),
		Removed:       constraintReports(a.Ordering.Removed),
		Implied:       constraintReports(a.Graph.ImpliedConstraints()),
	}
	for _, t := range a.Ordering.Unattached {
		r.Unattached = append(r.Unattached, t.FullName())
	}
	for _, u := range a.Unresolved {
		r.Unresolved = append(r.Unresolved, u.Error())
	}
	if a.Inference != nil && a.Inference.BailedOut {
		r.InferenceSkipped = true
	}
	return r
}

// NewReports summarizes several analyses, keeping their order.
func NewReports(analyses []*analyzer.Analysis) []*Report {
	reports := make([]*Report, len(analyses))
	for i, a := range analyses {
		reports[i] = NewReport(a)
	}
	return reports
}

func constraintReports(constraints []*graph.Constraint) []ConstraintReport {
	out := make([]ConstraintReport, 0, len(constraints))
	for _, c := range constraints {
		out = append(out, ConstraintReport{
			Name:          c.Name,
			Child:         c.ChildTable.FullName(),
			ChildColumns:  columnNames(c.ChildColumns),
			Parent:        c.ParentTable.FullName(),
			ParentColumns: columnNames(c.ParentColumns),
			Implied:       c.Implied,
		})
	}
	return out
}

func columnNames(columns []*graph.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// Writer renders reports.
type Writer interface {
	Write(reports []*Report) error
}

// NewWriter returns the writer for format, writing to w.
func NewWriter(format string, w io.Writer) (Writer, error) {
	switch format {
	case "", FormatText:
		return NewTextWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// document is the top-level shape of JSON and YAML output.
type document struct {
	Schemas []*Report `json:"schemas" yaml:"schemas"`
}
