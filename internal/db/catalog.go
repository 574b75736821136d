package db

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// tableRow, columnRow and foreignKeyRow mirror the information_schema
// queries shared by the postgres and mysql scanners. Every selected column
// is aliased so that mysql's upper-case labels map onto the db tags.
type tableRow struct {
	TableName string `db:"table_name"`
	TableType string `db:"table_type"`
}

type columnRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
	Length     int    `db:"length"`
	IsNullable string `db:"is_nullable"`
	Position   int    `db:"ordinal_position"`
}

type foreignKeyRow struct {
	ConstraintName string `db:"constraint_name"`
	ChildSchema    string `db:"child_schema"`
	ChildTable     string `db:"child_table"`
	ChildColumn    string `db:"child_column"`
	ParentSchema   string `db:"parent_schema"`
	ParentTable    string `db:"parent_table"`
	ParentColumn   string `db:"parent_column"`
	KeySeq         int    `db:"key_seq"`
	DeleteRule     string `db:"delete_rule"`
	UpdateRule     string `db:"update_rule"`
}

func (r foreignKeyRow) ref() ForeignKeyRef {
	return ForeignKeyRef{
		ConstraintName: r.ConstraintName,
		ChildSchema:    r.ChildSchema,
		ChildTable:     r.ChildTable,
		ChildColumn:    r.ChildColumn,
		ParentSchema:   r.ParentSchema,
		ParentTable:    r.ParentTable,
		ParentColumn:   r.ParentColumn,
		KeySeq:         r.KeySeq,
		DeleteRule:     r.DeleteRule,
		UpdateRule:     r.UpdateRule,
	}
}

// catalog runs the information_schema queries common to postgres and mysql.
type catalog struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

func (c catalog) selectRows(ctx context.Context, dest interface{}, query sq.SelectBuilder) error {
	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	return c.db.SelectContext(ctx, dest, stmt, args...)
}

func (c catalog) tables(ctx context.Context, schema string) ([]string, map[string]bool, error) {
	query := c.builder.
		Select("table_name AS table_name", "table_type AS table_type").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": schema, "table_type": []string{"BASE TABLE", "VIEW"}}).
		OrderBy("table_name")

	var rows []tableRow
	if err := c.selectRows(ctx, &rows, query); err != nil {
		return nil, nil, fmt.Errorf("failed to query tables: %w", err)
	}

	names := make([]string, 0, len(rows))
	views := make(map[string]bool)
	for _, row := range rows {
		names = append(names, row.TableName)
		if strings.EqualFold(row.TableType, "VIEW") {
			views[row.TableName] = true
		}
	}

	return names, views, nil
}

func (c catalog) columns(ctx context.Context, schema string) (map[string][]ColumnMeta, error) {
	query := c.builder.
		Select(
			"table_name AS table_name",
			"column_name AS column_name",
			"data_type AS data_type",
			"COALESCE(character_maximum_length, numeric_precision, 0) AS length",
			"is_nullable AS is_nullable",
			"ordinal_position AS ordinal_position",
		).
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema}).
		OrderBy("table_name", "ordinal_position")

	var rows []columnRow
	if err := c.selectRows(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}

	columns := make(map[string][]ColumnMeta)
	for _, row := range rows {
		columns[row.TableName] = append(columns[row.TableName], ColumnMeta{
			Name:     row.ColumnName,
			Type:     row.DataType,
			Length:   row.Length,
			Nullable: strings.EqualFold(row.IsNullable, "YES"),
			Position: row.Position,
		})
	}

	return columns, nil
}

func (c catalog) foreignKeys(ctx context.Context, query sq.SelectBuilder) ([]ForeignKeyRef, error) {
	var rows []foreignKeyRow
	if err := c.selectRows(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}

	refs := make([]ForeignKeyRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.ref())
	}
	sortForeignKeys(refs)

	return refs, nil
}
