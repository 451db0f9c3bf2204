package userdb

import (
	"context"
	"maps"

	"github.com/syssam/userdb/dialect/sql"
)

// Column names of the owner foreign key and the junction target.
const (
	OwnerColumn  = "user_id"
	TargetColumn = "rel_id"
)

// OneToManyRelation is a table whose rows belong to one owner through the
// OwnerColumn foreign key. Every statement is scoped to that owner.
type OneToManyRelation struct {
	engine  *Engine
	ownerID int64
	table   string
	mapping *Mapping

	rel *Relation // set by Relation.Owned; its cache is invalidated on writes
}

// NewOneToManyRelation returns the rows of table owned by ownerID.
func NewOneToManyRelation(engine *Engine, ownerID int64, table string, mapping *Mapping) *OneToManyRelation {
	return &OneToManyRelation{engine: engine, ownerID: ownerID, table: table, mapping: mapping}
}

// OwnerID returns the owner every statement is scoped to.
func (r *OneToManyRelation) OwnerID() int64 { return r.ownerID }

// All returns the owner's rows selected by opts.
func (r *OneToManyRelation) All(ctx context.Context, opts Options) ([]Object, error) {
	if r.ownerID == 0 {
		return nil, MissingArgument("All", OwnerColumn)
	}
	query := "SELECT " + sql.AttributesClause(opts, "") + " FROM " + r.table + " WHERE " + OwnerColumn + "=?" +
		sql.FilterClause(opts, true) + sql.SortClause(opts) + sql.LimitClause(opts)
	rows, err := r.engine.query(ctx, query, []any{r.ownerID})
	if err != nil {
		return nil, err
	}
	return MapRows(rows, r.mapping)
}

// Count returns the number of rows owned by the owner.
func (r *OneToManyRelation) Count(ctx context.Context) (int64, error) {
	if r.ownerID == 0 {
		return 0, MissingArgument("Count", OwnerColumn)
	}
	return r.engine.count(ctx, "SELECT COUNT(*) AS value FROM "+r.table+" WHERE "+OwnerColumn+"=?", []any{r.ownerID})
}

// Create inserts obj for the owner. The owner id is written to OwnerColumn,
// replacing any value obj carries. obj itself is not modified.
func (r *OneToManyRelation) Create(ctx context.Context, obj Object) (sql.Result, error) {
	if len(obj) == 0 {
		return nil, MissingArgument("Create", "object")
	}
	if r.ownerID == 0 {
		return nil, MissingArgument("Create", OwnerColumn)
	}
	return r.engine.Create(ctx, r.table, r.owned(obj))
}

// Update sets obj on the owner's rows matching opts.Filter. The filter is
// required, and OwnerColumn cannot be changed through obj.
func (r *OneToManyRelation) Update(ctx context.Context, obj Object, opts Options) (sql.Result, error) {
	if len(obj) == 0 || opts.Filter == "" {
		return nil, MissingArgument("Update", "object", "filter")
	}
	if r.ownerID == 0 {
		return nil, MissingArgument("Update", OwnerColumn)
	}
	set, args := assignments(r.owned(obj))
	query := "UPDATE " + r.table + " SET " + set + " WHERE " + OwnerColumn + "=?" + sql.FilterClause(opts, true)
	res, err := r.engine.exec(ctx, query, append(args, r.ownerID))
	if err == nil {
		r.invalidate(ctx)
	}
	return res, err
}

// Remove deletes the owner's rows matching opts.Filter, or all of them when
// no filter is given.
func (r *OneToManyRelation) Remove(ctx context.Context, opts Options) (sql.Result, error) {
	if r.ownerID == 0 {
		return nil, MissingArgument("Remove", OwnerColumn)
	}
	res, err := r.engine.exec(ctx, "DELETE FROM "+r.table+" WHERE "+OwnerColumn+"=?"+sql.FilterClause(opts, true), []any{r.ownerID})
	if err == nil {
		r.invalidate(ctx)
	}
	return res, err
}

func (r *OneToManyRelation) invalidate(ctx context.Context) {
	if r.rel != nil {
		r.rel.invalidateAll(ctx)
	}
}

// owned returns a copy of obj with OwnerColumn set to the owner id.
func (r *OneToManyRelation) owned(obj Object) Object {
	out := maps.Clone(obj)
	out[OwnerColumn] = r.ownerID
	return out
}
