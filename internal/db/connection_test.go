package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: DriverPostgres},
		{in: "postgresql", want: DriverPostgres},
		{in: "pgx", want: DriverPostgres},
		{in: "mariadb", want: DriverMySQL},
		{in: "mysql", want: DriverMySQL},
		{in: "sqlite3", want: DriverSQLite},
		{in: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDriver(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedDriver)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewConnectionRequiresSource(t *testing.T) {
	t.Setenv("SCHEMAORDER_SOURCE", "")

	_, err := NewConnection(context.Background(), DriverPostgres, "")
	assert.ErrorContains(t, err, "SCHEMAORDER_SOURCE")
}

func TestNewConnectionRejectsBadInput(t *testing.T) {
	_, err := NewConnection(context.Background(), "oracle", "scott/tiger")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = NewConnection(context.Background(), DriverMySQL, "root:secret@tcp(localhost:3306)/")
	assert.ErrorContains(t, err, "must name a database")
}

func TestNewConnectionOpensSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	t.Setenv("SCHEMAORDER_SOURCE", path)

	conn, err := NewConnection(context.Background(), "sqlite3", "")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, DriverSQLite, conn.Driver)
	assert.Equal(t, "main", conn.DefaultSchema)

	metadata, err := conn.ExtractMetadata(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "main", metadata.Schema)
	assert.Empty(t, metadata.Tables)
}

func TestScannerRejectsUnknownDriver(t *testing.T) {
	conn := &Connection{Driver: "oracle"}
	_, err := conn.ExtractMetadata(context.Background(), "hr", nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
