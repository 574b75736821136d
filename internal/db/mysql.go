package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/riyasyash/schemaorder/internal/logger"
)

type mysqlScanner struct {
	db *sqlx.DB
}

type mysqlKeyRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
}

// Scan extracts tables, columns, primary keys and foreign keys of one
// MySQL database. MySQL has no schemas distinct from databases, so schema
// names the database.
func (s *mysqlScanner) Scan(ctx context.Context, schema string, progress ProgressFunc) (*Metadata, error) {
	log := logger.DB().With("driver", DriverMySQL, "schema", schema)
	cat := catalog{db: s.db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Question)}

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
			"kcu.referenced_table_schema AS parent_schema",
			"kcu.referenced_table_name AS parent_table",
			"kcu.referenced_column_name AS parent_column",
			"kcu.ordinal_position AS key_seq",
			"rc.delete_rule AS delete_rule",
			"rc.update_rule AS update_rule",
		).
		From("information_schema.key_column_usage kcu").
		Join("information_schema.referential_constraints rc ON rc.constraint_schema = kcu.constraint_schema AND rc.constraint_name = kcu.constraint_name AND rc.table_name = kcu.table_name").
		Where(sq.Eq{"kcu.table_schema": schema}).
		Where(sq.NotEq{"kcu.referenced_table_name": nil}).
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

func (s *mysqlScanner) primaryKeys(ctx context.Context, cat catalog, schema string) (map[string][]string, error) {
	query := cat.builder.
		Select("table_name AS table_name", "column_name AS column_name").
		From("information_schema.key_column_usage").
		Where(sq.Eq{"table_schema": schema, "constraint_name": "PRIMARY"}).
		OrderBy("table_name", "ordinal_position")

	var rows []mysqlKeyRow
	if err := cat.selectRows(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query primary keys: %w", err)
	}

	pks := make(map[string][]string)
	for _, row := range rows {
		pks[row.TableName] = append(pks[row.TableName], row.ColumnName)
	}

	return pks, nil
}
