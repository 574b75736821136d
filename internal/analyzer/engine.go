// Package analyzer drives the ordering pipeline for one or more schemas:
// catalog scan, graph build, implied-constraint inference, snapshot and
// referential-integrity sequencing.
package analyzer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/riyasyash/schemaorder/internal/db"
	"github.com/riyasyash/schemaorder/internal/graph"
	"github.com/riyasyash/schemaorder/internal/logger"
)

// Options controls how a schema is analyzed.
type Options struct {
	SkipImplied bool                   // Do not infer implied constraints
	Inference   graph.InferenceOptions // Tuning for implied-constraint inference
	Verbose     bool                   // Show phases and scan progress
}

// Analysis is the outcome of analyzing a single schema.
type Analysis struct {
	Schema     string
	Metadata   *db.Metadata
	Graph      *graph.Database // Augmented graph captured before sequencing
	Ordering   *graph.Ordering
	Unresolved []*graph.UnresolvedReference
	Inference  *graph.InferenceResult // nil when inference was skipped
}

// HasRemovedConstraints reports whether sequencing had to break cycles.
func (a *Analysis) HasRemovedConstraints() bool {
	return len(a.Ordering.Removed) > 0
}

// Engine is the high-level orchestrator for schema analysis.
// It owns the database connection and the progress reporting.
type Engine struct {
	Connection *db.Connection
	options    Options
	progress   *ProgressTracker
}

// NewEngine creates an analysis engine over an open connection.
func NewEngine(conn *db.Connection, opts Options) *Engine {
	return &Engine{
		Connection: conn,
		options:    opts,
		progress:   NewProgressTracker(opts.Verbose),
	}
}

// Progress returns the tracker used to report phases and summaries.
func (e *Engine) Progress() *ProgressTracker {
	return e.progress
}

// Analyze scans one schema and orders its tables. An empty schema selects
// the connection's default schema.
func (e *Engine) Analyze(ctx context.Context, schema string) (*Analysis, error) {
	if schema == "" {
		schema = e.Connection.DefaultSchema
	}

	e.progress.StartPhase(fmt.Sprintf("Scanning schema %s", schema))
	metadata, err := e.Connection.ExtractMetadata(ctx, schema, func(current, total int, table string) {
		e.progress.Progress(current, total, fmt.Sprintf("%s.%s", schema, table))
	})
	e.progress.FinishProgress()
	if err != nil {
		return nil, fmt.Errorf("failed to extract metadata: %w", err)
	}
	e.progress.Success("Found %d tables and %d foreign key columns", len(metadata.Tables), len(metadata.ForeignKeys))

	analysis, err := AnalyzeMetadata(metadata, e.options)
	if err != nil {
		return nil, err
	}
	e.progress.Analyzed(analysis)

	return analysis, nil
}

// AnalyzeSchemas analyzes several schemas concurrently, one isolated graph
// per schema. Results keep the order of schemas; the first failure cancels
// the remaining scans. Verbose engines scan one schema at a time so that
// each scan owns the progress output while it runs.
func (e *Engine) AnalyzeSchemas(ctx context.Context, schemas []string) ([]*Analysis, error) {
	if len(schemas) == 0 {
		schemas = []string{e.Connection.DefaultSchema}
	}

	results := make([]*Analysis, len(schemas))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())

	for i, schema := range schemas {
		g.Go(func() error {
			analysis, err := e.Analyze(ctx, schema)
			if err != nil {
				return fmt.Errorf("schema %s: %w", schema, err)
			}
			results[i] = analysis
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// concurrency is the number of schemas scanned at once.
func (e *Engine) concurrency() int {
	if e.options.Verbose {
		return 1
	}
	return db.MaxConns
}

// AnalyzeMetadata runs the graph pipeline over already scanned metadata.
// The returned Analysis carries a snapshot of the augmented graph taken
// before the destructive sequencing pass.
func AnalyzeMetadata(metadata *db.Metadata, opts Options) (*Analysis, error) {
	log := logger.Graph().With("schema", metadata.Schema)

	d, unresolved, err := graph.BuildGraph(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	for _, u := range unresolved {
		log.Warn("skipping unresolved foreign key", "reference", u.Error())
	}

	var inference *graph.InferenceResult
	if !opts.SkipImplied {
		inference = graph.InferImplied(d, opts.Inference)
		if inference.BailedOut {
			log.Warn("implied constraints disabled by duplicated primary keys",
				"duplicates", inference.DuplicatePrimaries, "signatures", inference.Signatures)
		} else {
			log.Debug("inferred implied constraints", "count", len(inference.Constraints))
		}
	}

	snapshot := d.Clone()
	ordering := graph.Sequence(d)
	for _, c := range ordering.Removed {
		log.Warn("removed constraint to break a cycle", "constraint", c.String())
	}

	return &Analysis{
		Schema:     metadata.Schema,
		Metadata:   metadata,
		Graph:      snapshot,
		Ordering:   ordering,
		Unresolved: unresolved,
		Inference:  inference,
	}, nil
}
