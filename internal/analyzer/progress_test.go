package analyzer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyasyash/schemaorder/internal/db"
)

func newTestTracker(t *testing.T, verbose bool) (*ProgressTracker, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	pt := NewProgressTracker(verbose)
	var buf bytes.Buffer
	pt.out = &buf
	return pt, &buf
}

func sampleAnalysis(t *testing.T) *Analysis {
	t.Helper()
	analysis, err := AnalyzeMetadata(&db.Metadata{
		Schema: "public",
		Tables: []db.TableMeta{
			{Name: "a", Columns: []db.ColumnMeta{{Name: "id", Type: "int", Position: 1}, {Name: "b_id", Type: "int", Position: 2}}, PrimaryKey: []string{"id"}},
			{Name: "b", Columns: []db.ColumnMeta{{Name: "id", Type: "int", Position: 1}, {Name: "a_id", Type: "int", Position: 2}}, PrimaryKey: []string{"id"}},
		},
		ForeignKeys: []db.ForeignKeyRef{
			{ConstraintName: "a_b_fk", ChildTable: "a", ChildColumn: "b_id", ParentTable: "b", ParentColumn: "id", KeySeq: 1},
			{ConstraintName: "b_a_fk", ChildTable: "b", ChildColumn: "a_id", ParentTable: "a", ParentColumn: "id", KeySeq: 1},
		},
	}, Options{SkipImplied: true})
	require.NoError(t, err)
	return analysis
}

func TestProgressTrackerQuietPrintsOnlySummary(t *testing.T) {
	pt, buf := newTestTracker(t, false)
	analysis := sampleAnalysis(t)

	pt.StartPhase("Scanning schema public")
	pt.Progress(1, 2, "public.a")
	pt.FinishProgress()
	pt.Analyzed(analysis)
	pt.Complete([]*Analysis{analysis})

	assert.NotContains(t, buf.String(), "Scanning")
	assert.Contains(t, buf.String(), "✓ Ordered 2 tables from 1 schemas in")
}

func TestProgressTrackerVerboseReportsRemovedConstraints(t *testing.T) {
	pt, buf := newTestTracker(t, true)
	analysis := sampleAnalysis(t)

	pt.StartPhase("Scanning schema public")
	pt.Analyzed(analysis)
	pt.Complete([]*Analysis{analysis})

	out := buf.String()
	assert.Contains(t, out, "🚀 Scanning schema public")
	assert.Contains(t, out, "✂  Removed a_b_fk: public.a(b_id) -> public.b(id)")
	assert.Contains(t, out, "Ordered 2 tables in public")
	assert.Contains(t, out, "• Removed FKs:  1")
}
