package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riyasyash/schemaorder/internal/logger"
)

type postgresScanner struct {
	db *sqlx.DB
}

type postgresKeyRow struct {
	TableName string         `db:"table_name"`
	Columns   pq.StringArray `db:"columns"`
}

// Scan extracts tables, columns, primary keys and foreign keys of one
// PostgreSQL schema from information_schema.
func (s *postgresScanner) Scan(ctx context.Context, schema string, progress ProgressFunc) (*Metadata, error) {
	log := logger.DB().With("driver", DriverPostgres, "schema", schema)
	cat := catalog{db: s.db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}

	names, views, err := cat.tables(ctx, schema)
	if err != nil {
		return nil, err
	}
	log.Debug("found tables and views", "count", len(names))

	columns, err := cat.columns(ctx, schema)
	if err != nil {
		return nil, err
	}

	pks, err := s.primaryKeys(ctx, cat, schema)
	if err != nil {
		return nil, err
	}

	fkQuery := cat.builder.
		Select(
			"kcu.constraint_name AS constraint_name",
			"kcu.table_schema AS child_schema",
			"kcu.table_name AS child_table",
			"kcu.column_name AS child_column",
			"pk.table_schema AS parent_schema",
			"pk.table_name AS parent_table",
			"pk.column_name AS parent_column",
			"kcu.ordinal_position AS key_seq",
			"rc.delete_rule AS delete_rule",
			"rc.update_rule AS update_rule",
		).
		From("information_schema.referential_constraints rc").
		Join("information_schema.key_column_usage kcu ON kcu.constraint_schema = rc.constraint_schema AND kcu.constraint_name = rc.constraint_name").
		Join("information_schema.key_column_usage pk ON pk.constraint_schema = rc.unique_constraint_schema AND pk.constraint_name = rc.unique_constraint_name AND pk.ordinal_position = kcu.position_in_unique_constraint").
		Where(sq.Eq{"kcu.table_schema": schema}).
		OrderBy("kcu.table_name", "kcu.constraint_name", "kcu.ordinal_position")

	refs, err := cat.foreignKeys(ctx, fkQuery)
	if err != nil {
		return nil, err
	}
	log.Debug("found foreign key column pairs", "count", len(refs))

	return &Metadata{
		Schema:      schema,
		Tables:      assembleTables(names, views, columns, pks, progress),
		ForeignKeys: refs,
	}, nil
}

func (s *postgresScanner) primaryKeys(ctx context.Context, cat catalog, schema string) (map[string][]string, error) {
	query := cat.builder.
		Select("tc.table_name AS table_name", "array_agg(kcu.column_name ORDER BY kcu.ordinal_position) AS columns").
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema AND tc.table_name = kcu.table_name").
		Where(sq.Eq{"tc.constraint_type": "PRIMARY KEY", "tc.table_schema": schema}).
		GroupBy("tc.table_name")

	var rows []postgresKeyRow
	if err := cat.selectRows(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}

	pks := make(map[string][]string, len(rows))
	for _, row := range rows {
		pks[row.TableName] = []string(row.Columns)
	}

	return pks, nil
}
