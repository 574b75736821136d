// Package db provides database connection management and catalog metadata
// extraction. It supports PostgreSQL (via pgx), MySQL and SQLite, and turns
// each catalog into the driver-neutral Metadata consumed by the graph builder.
package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/riyasyash/schemaorder/internal/logger"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// MaxConns caps the number of open connections held by a Connection.
const MaxConns = 5

// ErrUnsupportedDriver is returned for driver names other than the supported ones.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Connection wraps a sqlx handle for catalog queries.
type Connection struct {
	DB            *sqlx.DB
	Driver        string // Normalized driver name
	DefaultSchema string // Schema scanned when none is requested
}

// NormalizeDriver maps driver aliases onto the supported driver names.
func NormalizeDriver(driver string) (string, error) {
	switch driver {
	case "", "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// NewConnection opens a connection for the given driver and DSN.
// If dsn is empty, it falls back to the SCHEMAORDER_SOURCE environment variable.
// Returns an error if the DSN cannot be parsed or the database is unreachable.
func NewConnection(ctx context.Context, driver, dsn string) (*Connection, error) {
	if dsn == "" {
		dsn = os.Getenv("SCHEMAORDER_SOURCE")
	}
	if dsn == "" {
		return nil, fmt.Errorf("database connection not specified. Use --source flag or set SCHEMAORDER_SOURCE environment variable")
	}

	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	var conn *Connection
	switch driver {
	case DriverPostgres:
		conn, err = openPostgres(dsn)
	case DriverMySQL:
		conn, err = openMySQL(dsn)
	case DriverSQLite:
		conn, err = openSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}

	conn.DB.SetMaxOpenConns(MaxConns)

	if err := conn.DB.PingContext(ctx); err != nil {
		conn.DB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.DB().Debug("connected", "driver", driver, "default_schema", conn.DefaultSchema)

	return conn, nil
}

func openPostgres(dsn string) (*Connection, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	return &Connection{
		DB:            sqlx.NewDb(stdlib.OpenDB(*config), "pgx"),
		Driver:        DriverPostgres,
		DefaultSchema: "public",
	}, nil
}

func openMySQL(dsn string) (*Connection, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if config.DBName == "" {
		return nil, fmt.Errorf("mysql DSN must name a database")
	}

	db, err := sqlx.Open("mysql", config.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Connection{
		DB:            db,
		Driver:        DriverMySQL,
		DefaultSchema: config.DBName,
	}, nil
}

func openSQLite(dsn string) (*Connection, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Connection{
		DB:            db,
		Driver:        DriverSQLite,
		DefaultSchema: "main",
	}, nil
}

// Close releases the underlying connection pool.
func (c *Connection) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}
