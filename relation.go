package userdb

import (
	"context"
	"time"

	"github.com/syssam/userdb/dialect/sql"
	"golang.org/x/sync/singleflight"
)

// Relation binds one table and its mapping to the Engine.
// Its table and mapping never change after construction.
type Relation struct {
	engine  *Engine
	table   string
	mapping *Mapping

	cache    Cache
	cacheTTL time.Duration
	group    *singleflight.Group
}

// RelationOption configures a Relation.
type RelationOption func(*Relation)

// WithRelationCache caches GetByID results in c for ttl (0 means no expiry).
// Update and Remove through the relation invalidate the cached row.
func WithRelationCache(c Cache, ttl time.Duration) RelationOption {
	return func(r *Relation) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// NewRelation returns a Relation over table. mapping may be nil.
func NewRelation(engine *Engine, table string, mapping *Mapping, opts ...RelationOption) *Relation {
	r := &Relation{engine: engine, table: table, mapping: mapping}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache != nil {
		r.group = &singleflight.Group{}
	}
	return r
}

// Table returns the table name.
func (r *Relation) Table() string { return r.table }

// Mapping returns the row mapping, or nil.
func (r *Relation) Mapping() *Mapping { return r.mapping }

// Count returns the number of rows matching opts.Filter.
func (r *Relation) Count(ctx context.Context, opts Options) (int64, error) {
	return r.engine.Count(ctx, r.table, opts)
}

// All returns the rows selected by opts.
func (r *Relation) All(ctx context.Context, opts Options) ([]Object, error) {
	return r.engine.List(ctx, r.table, r.mapping, opts)
}

// GetByID returns the row with the given id, or an empty Object.
func (r *Relation) GetByID(ctx context.Context, id int64, opts Options) (Object, error) {
	if r.cache == nil || id == 0 {
		return r.engine.Get(ctx, r.table, r.mapping, id, opts)
	}
	key := CacheKey{Table: r.table, Operation: "get", ID: id, Attributes: opts.Attributes}.String()
	if b, err := r.cache.Get(ctx, key); err == nil && b != nil {
		if obj, err := decodeObject(b); err == nil {
			return obj, nil
		}
	}
	// Shared by every waiter on key; detached from this caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		obj, err := r.engine.Get(loadCtx, r.table, r.mapping, id, opts)
		if err != nil {
			return nil, err
		}
		// Not-found results are not cached so a later Create is visible.
		if len(obj) > 0 {
			if b, err := encodeObject(obj); err == nil {
				if err := r.cache.Set(loadCtx, key, b, r.cacheTTL); err != nil {
					r.engine.logger.WarnContext(loadCtx, "userdb: cache set failed", "key", key, "error", err)
				}
			}
		}
		return obj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

// Create inserts obj and returns the driver result.
func (r *Relation) Create(ctx context.Context, obj Object) (sql.Result, error) {
	return r.engine.Create(ctx, r.table, obj)
}

// Update updates the row with the given id.
func (r *Relation) Update(ctx context.Context, id int64, obj Object) (sql.Result, error) {
	res, err := r.engine.Update(ctx, r.table, id, obj)
	if err == nil {
		r.invalidate(ctx, id)
	}
	return res, err
}

// Remove deletes the row with the given id.
func (r *Relation) Remove(ctx context.Context, id int64) (sql.Result, error) {
	res, err := r.engine.Remove(ctx, r.table, id)
	if err == nil {
		r.invalidate(ctx, id)
	}
	return res, err
}

// Owned returns the rows of the relation owned by ownerID. Writes through
// the returned relation invalidate every cached row of the table.
func (r *Relation) Owned(ownerID int64) *OneToManyRelation {
	o := NewOneToManyRelation(r.engine, ownerID, r.table, r.mapping)
	o.rel = r
	return o
}

func (r *Relation) invalidate(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	r.dropPrefix(ctx, CacheKey{Table: r.table, Operation: "get", ID: id}.Prefix())
}

// invalidateAll drops every cached row of the table. Filtered writes cannot
// name the ids they touch.
func (r *Relation) invalidateAll(ctx context.Context) {
	if r.cache == nil {
		return
	}
	r.dropPrefix(ctx, r.table+":get:")
}

func (r *Relation) dropPrefix(ctx context.Context, prefix string) {
	if err := r.cache.DeletePrefix(ctx, prefix); err != nil {
		r.engine.logger.WarnContext(ctx, "userdb: cache invalidation failed", "prefix", prefix, "error", err)
	}
}

// ownerAlias is the alias of the owner table in reverse-join statements.
// Caller filters and sort columns may qualify owner columns with it.
const ownerAlias = "users"

// ExtendedRelation is a Relation whose rows are linked to owner rows through
// a junction table (user_id, rel_id). It adds the reverse traversal: the
// owners linked to one of its rows.
type ExtendedRelation struct {
	*Relation
	ownerTable    string
	ownerMapping  *Mapping
	junctionTable string
}

// NewExtendedRelation returns an ExtendedRelation over rel, whose rows are
// linked to ownerTable rows by junctionTable. Owner rows are mapped through
// ownerMapping.
func NewExtendedRelation(rel *Relation, ownerTable string, ownerMapping *Mapping, junctionTable string) *ExtendedRelation {
	return &ExtendedRelation{
		Relation:      rel,
		ownerTable:    ownerTable,
		ownerMapping:  ownerMapping,
		junctionTable: junctionTable,
	}
}

func (r *ExtendedRelation) ownersJoin() string {
	return " FROM " + r.ownerTable + " " + ownerAlias + " INNER JOIN " + r.junctionTable +
		" ug ON user_id = " + ownerAlias + ".id WHERE ug.rel_id=?"
}

// ListOwners returns the owner rows linked to relationID.
func (r *ExtendedRelation) ListOwners(ctx context.Context, relationID int64, opts Options) ([]Object, error) {
	if relationID == 0 {
		return nil, MissingArgument("ListOwners", "id")
	}
	query := "SELECT " + sql.AttributesClause(opts, ownerAlias+".") + r.ownersJoin() +
		sql.FilterClause(opts, true) + sql.SortClause(opts) + sql.LimitClause(opts)
	rows, err := r.engine.query(ctx, query, []any{relationID})
	if err != nil {
		return nil, err
	}
	return MapRows(rows, r.ownerMapping)
}

// CountOwners returns the number of owner rows linked to relationID.
func (r *ExtendedRelation) CountOwners(ctx context.Context, relationID int64, opts Options) (int64, error) {
	if relationID == 0 {
		return 0, MissingArgument("CountOwners", "id")
	}
	return r.engine.count(ctx, "SELECT COUNT(*) AS value"+r.ownersJoin()+sql.FilterClause(opts, true), []any{relationID})
}
