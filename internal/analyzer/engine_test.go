package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyasyash/schemaorder/internal/db"
	"github.com/riyasyash/schemaorder/internal/graph"
)

func openSQLite(t *testing.T, statements ...string) *db.Connection {
	t.Helper()
	handle, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	handle.SetMaxOpenConns(1)
	t.Cleanup(func() { handle.Close() })

	for _, stmt := range statements {
		_, err := handle.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	return &db.Connection{DB: handle, Driver: db.DriverSQLite, DefaultSchema: "main"}
}

func quietEngine(conn *db.Connection, opts Options) (*Engine, *bytes.Buffer) {
	e := NewEngine(conn, opts)
	var buf bytes.Buffer
	e.progress.out = &buf
	return e, &buf
}

var shopSchema = []string{
	`CREATE TABLE customers (customer_id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE orders (order_id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers (customer_id))`,
	`CREATE TABLE invoices (invoice_id INTEGER PRIMARY KEY, order_id INTEGER)`,
	`CREATE TABLE employees (employee_id INTEGER PRIMARY KEY, manager_id INTEGER REFERENCES employees (employee_id))`,
	`CREATE TABLE audit_log (message TEXT)`,
}

func TestAnalyzeOrdersSQLiteSchema(t *testing.T) {
	e, _ := quietEngine(openSQLite(t, shopSchema...), Options{})

	analysis, err := e.Analyze(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "main", analysis.Schema)
	assert.Empty(t, analysis.Unresolved)

	require.NotNil(t, analysis.Inference)
	require.Len(t, analysis.Inference.Constraints, 1)
	assert.Equal(t, "implied:invoices.order_id", analysis.Inference.Constraints[0].Name)

	assert.Equal(t, []string{
		"main.customers",
		"main.employees",
		"main.orders",
		"main.invoices",
		"main.audit_log",
	}, analysis.Ordering.LoadOrder())

	require.True(t, analysis.HasRemovedConstraints())
	require.Len(t, analysis.Ordering.Removed, 1)
	assert.Equal(t, "fk_employees_0", analysis.Ordering.Removed[0].Name)

	// The snapshot still holds every constraint, declared and implied.
	employees := analysis.Graph.Table("main", "employees")
	require.NotNil(t, employees)
	assert.NotNil(t, employees.Constraint("fk_employees_0"))
	assert.Equal(t, 1, employees.NumParents())
	assert.Len(t, analysis.Graph.Constraints(), 3)
	assert.Len(t, analysis.Graph.ImpliedConstraints(), 1)
}

func TestAnalyzeSkipsImpliedConstraints(t *testing.T) {
	e, _ := quietEngine(openSQLite(t, shopSchema...), Options{SkipImplied: true})

	analysis, err := e.Analyze(context.Background(), "main")
	require.NoError(t, err)

	assert.Nil(t, analysis.Inference)
	assert.Empty(t, analysis.Graph.ImpliedConstraints())
	assert.Equal(t, []string{"main.audit_log", "main.invoices"}, tableNames(analysis.Ordering.Unattached))
}

func TestAnalyzeSchemasKeepsGraphsIsolated(t *testing.T) {
	conn := openSQLite(t, append(shopSchema,
		`ATTACH DATABASE ':memory:' AS archive`,
		`CREATE TABLE archive.orders (order_id INTEGER PRIMARY KEY, archived_at TEXT)`,
		`CREATE TABLE archive.order_notes (note_id INTEGER PRIMARY KEY, order_id INTEGER REFERENCES orders (order_id))`,
	)...)
	e, _ := quietEngine(conn, Options{})

	analyses, err := e.AnalyzeSchemas(context.Background(), []string{"main", "archive"})
	require.NoError(t, err)
	require.Len(t, analyses, 2)

	assert.Equal(t, "main", analyses[0].Schema)
	assert.Len(t, analyses[0].Graph.Tables(), 5)

	archive := analyses[1]
	assert.Equal(t, "archive", archive.Schema)
	assert.Equal(t, []string{"archive.orders", "archive.order_notes"}, archive.Ordering.LoadOrder())
	assert.Nil(t, archive.Graph.Table("main", "orders"))
	assert.Empty(t, archive.Ordering.Removed)
}

func TestAnalyzeSchemasScansSeriallyWhenVerbose(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	conn := openSQLite(t, append(shopSchema,
		`ATTACH DATABASE ':memory:' AS archive`,
		`CREATE TABLE archive.orders (order_id INTEGER PRIMARY KEY, archived_at TEXT)`,
	)...)
	e, buf := quietEngine(conn, Options{Verbose: true})
	assert.Equal(t, 1, e.concurrency())

	_, err := e.AnalyzeSchemas(context.Background(), []string{"main", "archive"})
	require.NoError(t, err)

	out := buf.String()
	mainDone := strings.Index(out, "Ordered 5 tables in main")
	archiveStart := strings.Index(out, "Scanning schema archive")
	require.NotEqual(t, -1, mainDone)
	require.NotEqual(t, -1, archiveStart)
	assert.Less(t, mainDone, archiveStart)

	quiet, _ := quietEngine(conn, Options{})
	assert.Equal(t, db.MaxConns, quiet.concurrency())
}

func TestAnalyzeSchemasStopsOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	boom := errors.New("permission denied for schema hr")
	mock.ExpectQuery(`FROM information_schema\.tables`).WillReturnError(boom)

	conn := &db.Connection{DB: sqlx.NewDb(mockDB, "sqlmock"), Driver: db.DriverPostgres, DefaultSchema: "public"}
	e, _ := quietEngine(conn, Options{})

	_, err = e.AnalyzeSchemas(context.Background(), []string{"hr"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "schema hr")
}

func TestAnalyzeMetadataReportsUnresolvedReferences(t *testing.T) {
	metadata := &db.Metadata{
		Schema: "public",
		Tables: []db.TableMeta{{
			Name:       "orders",
			Columns:    []db.ColumnMeta{{Name: "id", Type: "int", Position: 1}, {Name: "account_id", Type: "int", Position: 2}},
			PrimaryKey: []string{"id"},
		}},
		ForeignKeys: []db.ForeignKeyRef{{
			ConstraintName: "orders_account_fk",
			ChildTable:     "orders",
			ChildColumn:    "account_id",
			ParentTable:    "accounts",
			ParentColumn:   "id",
			KeySeq:         1,
		}},
	}

	analysis, err := AnalyzeMetadata(metadata, Options{})
	require.NoError(t, err)

	require.Len(t, analysis.Unresolved, 1)
	assert.Equal(t, "parent table not found", analysis.Unresolved[0].Reason)
	assert.Equal(t, []string{"public.orders"}, analysis.Ordering.LoadOrder())
	assert.False(t, analysis.HasRemovedConstraints())
}

func TestAnalyzeMetadataRejectsUnknownPrimaryKey(t *testing.T) {
	_, err := AnalyzeMetadata(&db.Metadata{
		Schema: "public",
		Tables: []db.TableMeta{{Name: "users", PrimaryKey: []string{"id"}}},
	}, Options{})
	assert.ErrorContains(t, err, "failed to build graph")
}

func tableNames(tables []*graph.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.FullName()
	}
	return names
}
