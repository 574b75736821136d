package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/riyasyash/schemaorder/internal/logger"
)

type sqliteScanner struct {
	db *sqlx.DB
}

type sqliteColumnRow struct {
	CID     int    `db:"cid"`
	Name    string `db:"name"`
	Type    string `db:"type"`
	NotNull bool   `db:"not_null"`
	PK      int    `db:"pk"`
}

type sqliteForeignKeyRow struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"parent_table"`
	From     string         `db:"from_column"`
	To       sql.NullString `db:"to_column"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
}

var sqliteTypePattern = regexp.MustCompile(`^\s*([^(]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*\d+\s*)?\))?\s*$`)

// parseSQLiteType splits a declared type such as "VARCHAR(20)" into its
// lower-cased name and length.
func parseSQLiteType(declared string) (string, int) {
	m := sqliteTypePattern.FindStringSubmatch(declared)
	if m == nil {
		return strings.ToLower(strings.TrimSpace(declared)), 0
	}
	length := 0
	if m[2] != "" {
		length, _ = strconv.Atoi(m[2])
	}
	return strings.ToLower(m[1]), length
}

// Scan extracts tables, columns, primary keys and foreign keys from one
// attached SQLite database ("main" unless another is attached).
func (s *sqliteScanner) Scan(ctx context.Context, schema string, progress ProgressFunc) (*Metadata, error) {
	log := logger.DB().With("driver", DriverSQLite, "schema", schema)
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)

	stmt, args, err := builder.
		Select("name AS table_name", "type AS table_type").
		From(quoteSQLiteIdent(schema) + ".sqlite_master").
		Where(sq.Eq{"type": []string{"table", "view"}}).
		Where(sq.NotLike{"name": "sqlite_%"}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var tableRows []tableRow
	if err := s.db.SelectContext(ctx, &tableRows, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	log.Debug("found tables and views", "count", len(tableRows))

	metadata := &Metadata{Schema: schema}
	for i, row := range tableRows {
		table, refs, err := s.scanTable(ctx, schema, row)
		if err != nil {
			return nil, err
		}
		metadata.Tables = append(metadata.Tables, table)
		metadata.ForeignKeys = append(metadata.ForeignKeys, refs...)

		if progress != nil {
			progress(i+1, len(tableRows), row.TableName)
		}
	}
	sortForeignKeys(metadata.ForeignKeys)

	return metadata, nil
}

func (s *sqliteScanner) scanTable(ctx context.Context, schema string, row tableRow) (TableMeta, []ForeignKeyRef, error) {
	table := TableMeta{Name: row.TableName, View: row.TableType == "view"}

	var cols []sqliteColumnRow
	err := s.db.SelectContext(ctx, &cols,
		`SELECT cid, name, type, "notnull" AS not_null, pk FROM pragma_table_info(?, ?) ORDER BY cid`,
		row.TableName, schema)
	if err != nil {
		return table, nil, fmt.Errorf("failed to query columns of %s: %w", row.TableName, err)
	}

	keyed := make(map[int]string)
	for _, col := range cols {
		typeName, length := parseSQLiteType(col.Type)
		table.Columns = append(table.Columns, ColumnMeta{
			Name:     col.Name,
			Type:     typeName,
			Length:   length,
			Nullable: !col.NotNull && col.PK == 0,
			Position: col.CID + 1,
		})
		if col.PK > 0 {
			keyed[col.PK] = col.Name
		}
	}
	for i := 1; i <= len(keyed); i++ {
		table.PrimaryKey = append(table.PrimaryKey, keyed[i])
	}

	if table.View {
		return table, nil, nil
	}

	var fks []sqliteForeignKeyRow
	err = s.db.SelectContext(ctx, &fks,
		`SELECT id, seq, "table" AS parent_table, "from" AS from_column, "to" AS to_column, on_update, on_delete FROM pragma_foreign_key_list(?, ?) ORDER BY id, seq`,
		row.TableName, schema)
	if err != nil {
		return table, nil, fmt.Errorf("failed to query foreign keys of %s: %w", row.TableName, err)
	}

	refs := make([]ForeignKeyRef, 0, len(fks))
	for _, fk := range fks {
		parentColumn := fk.To.String
		if !fk.To.Valid || parentColumn == "" {
			// "REFERENCES parent" without a column list targets the parent's primary key.
			parentColumn, err = s.primaryKeyColumn(ctx, schema, fk.Table, fk.Seq)
			if err != nil {
				return table, nil, err
			}
		}

		refs = append(refs, ForeignKeyRef{
			ConstraintName: fmt.Sprintf("fk_%s_%d", row.TableName, fk.ID),
			ChildSchema:    schema,
			ChildTable:     row.TableName,
			ChildColumn:    fk.From,
			ParentSchema:   schema,
			ParentTable:    fk.Table,
			ParentColumn:   parentColumn,
			KeySeq:         fk.Seq + 1,
			DeleteRule:     fk.OnDelete,
			UpdateRule:     fk.OnUpdate,
		})
	}

	return table, refs, nil
}

func (s *sqliteScanner) primaryKeyColumn(ctx context.Context, schema, table string, seq int) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name,
		`SELECT name FROM pragma_table_info(?, ?) WHERE pk = ?`,
		table, schema, seq+1)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve primary key of %s: %w", table, err)
	}
	return name, nil
}

func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
