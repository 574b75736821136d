package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riyasyash/schemaorder/internal/config"
	"github.com/riyasyash/schemaorder/internal/db"
)

func createSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")

	handle, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer handle.Close()

	for _, stmt := range []string{
		`CREATE TABLE customers (customer_id INTEGER PRIMARY KEY, referrer_id INTEGER REFERENCES customers (customer_id))`,
		`CREATE TABLE orders (order_id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers (customer_id))`,
	} {
		_, err := handle.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCHEMAORDER_CONFIG", "")
	t.Setenv("SCHEMAORDER_SOURCE", "")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "schemaorder v"+Version+"\n", out)
}

func TestOrderCommandWritesJSON(t *testing.T) {
	path := createSQLite(t)

	out, err := run(t, "order", "--driver", "sqlite", "--source", path, "--format", "json", "--strict=false")
	require.NoError(t, err)

	var doc struct {
		Schemas []struct {
			Schema    string   `json:"schema"`
			LoadOrder []string `json:"load_order"`
			Removed   []struct {
				Name string `json:"name"`
			} `json:"removed_constraints"`
		} `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Schemas, 1)
	assert.Equal(t, "main", doc.Schemas[0].Schema)
	assert.Equal(t, []string{"main.customers", "main.orders"}, doc.Schemas[0].LoadOrder)
	require.Len(t, doc.Schemas[0].Removed, 1)
	assert.Equal(t, "fk_customers_0", doc.Schemas[0].Removed[0].Name)
}

func TestOrderCommandStrictFailsOnRemovedConstraints(t *testing.T) {
	path := createSQLite(t)

	_, err := run(t, "order", "--driver", "sqlite", "--source", path, "--format", "text", "--strict")
	assert.ErrorIs(t, err, ErrConstraintsRemoved)
}

func TestInspectCommandPrintsGraph(t *testing.T) {
	path := createSQLite(t)

	out, err := run(t, "inspect", "--driver", "sqlite", "--source", path)
	require.NoError(t, err)
	assert.Contains(t, out, "main.customers\n  ↑ main.customers (via referrer_id)\n")
	assert.Contains(t, out, "  ↓ main.orders (via orders.customer_id)\n")
}

func TestOrderCommandRequiresSource(t *testing.T) {
	_, err := run(t, "order", "--driver", "postgres", "--source", "")
	assert.ErrorContains(t, err, "connection failed")
}

func TestInitCommandWritesConfig(t *testing.T) {
	t.Cleanup(func() {
		initDriver, initSource, initSchemas = db.DriverPostgres, "", nil
		initNoImplied, initForce = false, false
	})
	path := filepath.Join(t.TempDir(), "schemaorder.yaml")

	out, err := run(t, "init", "--path", path, "--driver", "sqlite3", "--source", "shop.db", "--schema", "main", "--no-implied")
	require.NoError(t, err)
	assert.Equal(t, "Created "+path+"\n", out)

	written, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, db.DriverSQLite, written.Database.Driver)
	assert.Equal(t, "shop.db", written.Database.DSN)
	assert.Equal(t, []string{"main"}, written.Database.Schemas)
	assert.False(t, written.InferenceEnabled())
	require.NotNil(t, written.Inference.DuplicateThreshold)
	assert.Equal(t, config.DefaultDuplicateThreshold, *written.Inference.DuplicateThreshold)

	_, err = run(t, "init", "--path", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--path", path, "--force")
	require.NoError(t, err)
}

func TestInitCommandRejectsUnknownDriver(t *testing.T) {
	t.Cleanup(func() { initDriver = db.DriverPostgres })
	path := filepath.Join(t.TempDir(), "schemaorder.yaml")

	_, err := run(t, "init", "--path", path, "--driver", "oracle")
	assert.ErrorIs(t, err, db.ErrUnsupportedDriver)
	assert.NoFileExists(t, path)
}
