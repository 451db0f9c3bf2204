package userdb

import (
	"context"
	"database/sql/driver"

	"github.com/syssam/userdb/dialect/sql"
	"github.com/syssam/userdb/dialect/sql/sqlgraph"
)

// ManyToManyRelation links one owner to rows of a target table through a
// junction table with columns (OwnerColumn, TargetColumn).
type ManyToManyRelation struct {
	engine        *Engine
	ownerID       int64
	table         string
	mapping       *Mapping
	junctionTable string
}

// NewManyToManyRelation returns the table rows linked to ownerID by junctionTable.
func NewManyToManyRelation(engine *Engine, ownerID int64, table string, mapping *Mapping, junctionTable string) *ManyToManyRelation {
	return &ManyToManyRelation{
		engine:        engine,
		ownerID:       ownerID,
		table:         table,
		mapping:       mapping,
		junctionTable: junctionTable,
	}
}

// OwnerID returns the owner every statement is scoped to.
func (r *ManyToManyRelation) OwnerID() int64 { return r.ownerID }

// Count returns the number of junction rows of the owner.
func (r *ManyToManyRelation) Count(ctx context.Context) (int64, error) {
	if r.ownerID == 0 {
		return 0, MissingArgument("Count", OwnerColumn)
	}
	return r.engine.count(ctx, "SELECT COUNT(*) AS value FROM "+r.junctionTable+" WHERE "+OwnerColumn+"=?", []any{r.ownerID})
}

// All returns the target rows linked to the owner, selected by opts.
// Attributes, filter and sort columns may be qualified with the "t." alias.
func (r *ManyToManyRelation) All(ctx context.Context, opts Options) ([]Object, error) {
	if r.ownerID == 0 {
		return nil, MissingArgument("All", OwnerColumn)
	}
	query := "SELECT " + sql.AttributesClause(opts, "t.") + " FROM " + r.table + " t INNER JOIN " + r.junctionTable +
		" tr ON t.id = tr." + TargetColumn + " WHERE tr." + OwnerColumn + "=?" +
		sql.FilterClause(opts, true) + sql.SortClause(opts) + sql.LimitClause(opts)
	rows, err := r.engine.query(ctx, query, []any{r.ownerID})
	if err != nil {
		return nil, err
	}
	return MapRows(rows, r.mapping)
}

// Assign links targetID to the owner. Assignment is idempotent when the
// junction table has a unique index on (OwnerColumn, TargetColumn): a
// duplicate link succeeds with zero affected rows.
func (r *ManyToManyRelation) Assign(ctx context.Context, targetID int64) (sql.Result, error) {
	if r.ownerID == 0 || targetID == 0 {
		return nil, MissingArgument("Assign", OwnerColumn, "id")
	}
	res, err := r.engine.Create(ctx, r.junctionTable, Object{OwnerColumn: r.ownerID, TargetColumn: targetID})
	if err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return driver.RowsAffected(0), nil
		}
		return nil, err
	}
	return res, nil
}

// Revoke removes the link between the owner and targetID.
func (r *ManyToManyRelation) Revoke(ctx context.Context, targetID int64) (sql.Result, error) {
	if r.ownerID == 0 || targetID == 0 {
		return nil, MissingArgument("Revoke", OwnerColumn, "id")
	}
	return r.engine.exec(ctx, "DELETE FROM "+r.junctionTable+" WHERE "+OwnerColumn+"=? AND "+TargetColumn+"=?",
		[]any{r.ownerID, targetID})
}
