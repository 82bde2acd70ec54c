// Package extractor walks the Oracle data dictionary for one schema and
// produces an immutable metadata snapshot. Each catalog view is read with a
// single set-based query per schema to keep the snapshot consistent and the
// round-trip count low.
package extractor

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"oracle-rag/internal/db"
	"oracle-rag/internal/models"
)

const (
	tablesQuery = `SELECT table_name FROM all_tables WHERE owner = :1 ORDER BY table_name`

	tableCommentsQuery = `SELECT table_name, comments FROM all_tab_comments WHERE owner = :1 AND comments IS NOT NULL`

	columnsQuery = `SELECT table_name, column_name, data_type, data_length, data_precision, data_scale, nullable, data_default
FROM all_tab_columns WHERE owner = :1 ORDER BY table_name, column_id`

	columnCommentsQuery = `SELECT table_name, column_name, comments FROM all_col_comments WHERE owner = :1 AND comments IS NOT NULL`

	primaryKeysQuery = `SELECT cons.table_name, cols.column_name, cols.position
FROM all_constraints cons
JOIN all_cons_columns cols ON cols.owner = cons.owner AND cols.constraint_name = cons.constraint_name
WHERE cons.constraint_type = 'P' AND cons.owner = :1
ORDER BY cons.table_name, cols.position`

	foreignKeysQuery = `SELECT a.table_name, a.column_name, c_pk.owner, c_pk.table_name, b.column_name, c.constraint_name
FROM all_cons_columns a
JOIN all_constraints c ON a.owner = c.owner AND a.constraint_name = c.constraint_name
JOIN all_constraints c_pk ON c.r_owner = c_pk.owner AND c.r_constraint_name = c_pk.constraint_name
JOIN all_cons_columns b ON b.owner = c_pk.owner AND b.constraint_name = c_pk.constraint_name AND b.position = a.position
WHERE c.constraint_type = 'R' AND a.owner = :1
ORDER BY a.table_name, a.position`
)

type columnRow struct {
	Table  string
	Column models.Column
}

type commentRow struct {
	Table   string
	Column  string
	Comment string
}

type pkRow struct {
	Table string
	Key   models.PrimaryKey
}

type fkRow struct {
	Table string
	Key   models.ForeignKey
}

type Extractor struct {
	conn    *sql.DB
	schema  string
	timeout time.Duration
}

func New(conn *sql.DB, schema string, timeout time.Duration) *Extractor {
	return &Extractor{conn: conn, schema: strings.ToUpper(schema), timeout: timeout}
}

// Extract reads the full catalog metadata for the schema. The result is
// complete or the call fails; no partial snapshot is returned.
func (e *Extractor) Extract(ctx context.Context) (*models.Schema, error) {
	tables, err := e.tableNames(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("schema", e.schema).Int("tables", len(tables)).Msg("listed tables")

	tableComments, err := e.tableComments(ctx)
	if err != nil {
		return nil, err
	}
	columns, err := e.columns(ctx)
	if err != nil {
		return nil, err
	}
	colComments, err := e.columnComments(ctx)
	if err != nil {
		return nil, err
	}
	pks, err := e.primaryKeys(ctx)
	if err != nil {
		return nil, err
	}
	fks, err := e.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}

	return assemble(e.schema, tables, tableComments, columns, colComments, pks, fks), nil
}

// assemble joins the per-view row sets into the snapshot. Pure so it can be
// exercised without a database.
func assemble(schema string, tables []string, tableComments map[string]string, columns []columnRow, colComments []commentRow, pks []pkRow, fks []fkRow) *models.Schema {
	commentIdx := make(map[string]string, len(colComments))
	for _, c := range colComments {
		commentIdx[c.Table+"."+c.Column] = c.Comment
	}

	byTable := make(map[string]*models.Table, len(tables))
	for _, name := range tables {
		byTable[name] = &models.Table{Name: name, Comment: tableComments[name]}
	}
	for _, row := range columns {
		t, ok := byTable[row.Table]
		if !ok {
			continue // view or recycle-bin object, not in ALL_TABLES
		}
		col := row.Column
		col.Comment = commentIdx[row.Table+"."+col.Name]
		t.Columns = append(t.Columns, col)
	}
	for _, row := range pks {
		if t, ok := byTable[row.Table]; ok {
			t.PrimaryKeys = append(t.PrimaryKeys, row.Key)
		}
	}
	for _, row := range fks {
		if t, ok := byTable[row.Table]; ok {
			t.ForeignKeys = append(t.ForeignKeys, row.Key)
		}
	}

	out := &models.Schema{Name: schema}
	names := make([]string, 0, len(byTable))
	for name := range byTable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Tables = append(out.Tables, *byTable[name])
	}
	return out
}

func (e *Extractor) tableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := e.query(ctx, "list tables", tablesQuery, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	})
	return names, err
}

func (e *Extractor) tableComments(ctx context.Context) (map[string]string, error) {
	comments := make(map[string]string)
	err := e.query(ctx, "table comments", tableCommentsQuery, func(rows *sql.Rows) error {
		var table string
		var comment sql.NullString
		if err := rows.Scan(&table, &comment); err != nil {
			return err
		}
		comments[table] = comment.String
		return nil
	})
	return comments, err
}

func (e *Extractor) columns(ctx context.Context) ([]columnRow, error) {
	var out []columnRow
	err := e.query(ctx, "columns", columnsQuery, func(rows *sql.Rows) error {
		var table, column, dataType, nullable string
		var length, precision, scale sql.NullInt64
		var dflt sql.NullString
		if err := rows.Scan(&table, &column, &dataType, &length, &precision, &scale, &nullable, &dflt); err != nil {
			return err
		}
		out = append(out, columnRow{
			Table: table,
			Column: models.Column{
				Name:      column,
				DataType:  dataType,
				Length:    int(length.Int64),
				Precision: int(precision.Int64),
				Scale:     int(scale.Int64),
				Nullable:  nullable == "Y",
				Default:   strings.TrimSpace(dflt.String),
			},
		})
		return nil
	})
	return out, err
}

func (e *Extractor) columnComments(ctx context.Context) ([]commentRow, error) {
	var out []commentRow
	err := e.query(ctx, "column comments", columnCommentsQuery, func(rows *sql.Rows) error {
		var table, column string
		var comment sql.NullString
		if err := rows.Scan(&table, &column, &comment); err != nil {
			return err
		}
		out = append(out, commentRow{Table: table, Column: column, Comment: comment.String})
		return nil
	})
	return out, err
}

func (e *Extractor) primaryKeys(ctx context.Context) ([]pkRow, error) {
	var out []pkRow
	err := e.query(ctx, "primary keys", primaryKeysQuery, func(rows *sql.Rows) error {
		var table, column string
		var position int
		if err := rows.Scan(&table, &column, &position); err != nil {
			return err
		}
		out = append(out, pkRow{Table: table, Key: models.PrimaryKey{ColumnName: column, Position: position}})
		return nil
	})
	return out, err
}

func (e *Extractor) foreignKeys(ctx context.Context) ([]fkRow, error) {
	var out []fkRow
	err := e.query(ctx, "foreign keys", foreignKeysQuery, func(rows *sql.Rows) error {
		var table, column, refOwner, refTable, refColumn, constraint string
		if err := rows.Scan(&table, &column, &refOwner, &refTable, &refColumn, &constraint); err != nil {
			return err
		}
		out = append(out, fkRow{Table: table, Key: models.ForeignKey{
			ColumnName:       column,
			ReferencedOwner:  refOwner,
			ReferencedTable:  refTable,
			ReferencedColumn: refColumn,
			ConstraintName:   constraint,
		}})
		return nil
	})
	return out, err
}

// query runs one catalog query with the configured timeout and feeds each row
// to scan.
func (e *Extractor) query(ctx context.Context, op, stmt string, scan func(*sql.Rows) error) error {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.conn.QueryContext(qctx, stmt, e.schema)
	if err != nil {
		return db.Classify(err, op)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return db.Classify(err, op)
		}
	}
	return db.Classify(rows.Err(), op)
}
