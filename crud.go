package userdb

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/syssam/userdb/dialect"
	"github.com/syssam/userdb/dialect/sql"
)

// Options is the per-call read options of every relation operation.
type Options = sql.Options

// Engine runs the generic count/list/get/create/update/remove statements
// against any table. It holds no table-specific state and is safe for
// concurrent use when its ExecQuerier is.
type Engine struct {
	driver dialect.ExecQuerier
	logger *slog.Logger
}

// NewEngine returns an Engine issuing statements through drv.
// A nil logger discards engine logs.
func NewEngine(drv dialect.ExecQuerier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{driver: drv, logger: logger}
}

// Count returns the number of rows of table matching opts.Filter.
func (e *Engine) Count(ctx context.Context, table string, opts Options) (int64, error) {
	return e.count(ctx, "SELECT COUNT(*) AS value FROM "+table+sql.FilterClause(opts, false), nil)
}

// List returns the rows of table selected by opts, mapped through m.
func (e *Engine) List(ctx context.Context, table string, m *Mapping, opts Options) ([]Object, error) {
	query := "SELECT " + sql.AttributesClause(opts, "") + " FROM " + table +
		sql.FilterClause(opts, false) + sql.SortClause(opts) + sql.LimitClause(opts)
	rows, err := e.query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return MapRows(rows, m)
}

// Get returns the row of table with the given id, mapped through m.
// A missing row yields an empty Object.
func (e *Engine) Get(ctx context.Context, table string, m *Mapping, id int64, opts Options) (Object, error) {
	if id == 0 {
		return nil, MissingArgument("Get", "id")
	}
	rows, err := e.query(ctx, "SELECT "+sql.AttributesClause(opts, "")+" FROM "+table+" WHERE id=?", []any{id})
	if err != nil {
		return nil, err
	}
	return MapFirstRow(rows, m)
}

// Create inserts obj into table and returns the driver result.
func (e *Engine) Create(ctx context.Context, table string, obj Object) (sql.Result, error) {
	if len(obj) == 0 {
		return nil, MissingArgument("Create", "object")
	}
	cols, args := columns(obj)
	query := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	return e.exec(ctx, query, args)
}

// Update sets the columns of obj on the row of table with the given id.
func (e *Engine) Update(ctx context.Context, table string, id int64, obj Object) (sql.Result, error) {
	if id == 0 || len(obj) == 0 {
		return nil, MissingArgument("Update", "id", "object")
	}
	set, args := assignments(obj)
	return e.exec(ctx, "UPDATE "+table+" SET "+set+" WHERE id=?", append(args, id))
}

// Remove deletes the row of table with the given id.
func (e *Engine) Remove(ctx context.Context, table string, id int64) (sql.Result, error) {
	if id == 0 {
		return nil, MissingArgument("Remove", "id")
	}
	return e.exec(ctx, "DELETE FROM "+table+" WHERE id=?", []any{id})
}

// query runs a row-returning statement and scans every row.
func (e *Engine) query(ctx context.Context, query string, args []any) ([]Object, error) {
	if args == nil {
		args = []any{}
	}
	rows := &sql.Rows{}
	if err := e.driver.Query(ctx, query, args, rows); err != nil {
		return nil, e.failed(ctx, "query", query, err)
	}
	defer rows.Close()
	maps, err := sql.ScanMaps(rows)
	if err != nil {
		return nil, e.failed(ctx, "scan", query, err)
	}
	out := make([]Object, len(maps))
	for i, r := range maps {
		out[i] = r
	}
	return out, nil
}

// count runs a COUNT(*) statement and returns its single value.
func (e *Engine) count(ctx context.Context, query string, args []any) (int64, error) {
	if args == nil {
		args = []any{}
	}
	rows := &sql.Rows{}
	if err := e.driver.Query(ctx, query, args, rows); err != nil {
		return 0, e.failed(ctx, "count", query, err)
	}
	defer rows.Close()
	n, err := sql.ScanInt64(rows)
	if err != nil {
		return 0, e.failed(ctx, "count", query, err)
	}
	return n, nil
}

// exec runs a statement that returns no rows.
func (e *Engine) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	var res sql.Result
	if err := e.driver.Exec(ctx, query, args, &res); err != nil {
		return nil, e.failed(ctx, "exec", query, err)
	}
	return res, nil
}

func (e *Engine) failed(ctx context.Context, op, query string, err error) error {
	ne := ToError(err)
	e.logger.ErrorContext(ctx, "userdb: statement failed",
		"op", op, "sql", query, "errno", int(ne.Errno), "error", err)
	return ne
}

// columns returns the keys of obj in sorted order with their values.
func columns(obj Object) ([]string, []any) {
	cols := make([]string, 0, len(obj))
	for k := range obj {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = obj[c]
	}
	return cols, args
}

// assignments returns "a=?, b=?" for the sorted keys of obj with their values.
func assignments(obj Object) (string, []any) {
	cols, args := columns(obj)
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString("=?")
	}
	return b.String(), args
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
