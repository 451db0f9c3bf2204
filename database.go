package userdb

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/syssam/userdb/dialect"
	"github.com/syssam/userdb/dialect/sql"
)

// TableConfig names a table and the mapping applied to its rows.
type TableConfig struct {
	Name    string
	Mapping *Mapping
}

// Tables configures the tables of the users domain.
type Tables struct {
	Users              TableConfig
	Types              TableConfig
	UserGroups         TableConfig
	UserGroupsRelation TableConfig // junction (user_id, rel_id)
	UserEmails         TableConfig
}

// Relation names accepted by Database.Relation.
const (
	UsersRelation  = "users"
	TypesRelation  = "types"
	GroupsRelation = "groups"
	EmailsRelation = "emails"
)

// Database holds every relation of the users domain. All relations are built
// once by New; Database is safe for concurrent use when its driver is.
type Database struct {
	engine *Engine
	tables Tables

	users  *Relation
	types  *Relation
	groups *ExtendedRelation
	emails *Relation
}

type options struct {
	logger   *slog.Logger
	cache    Cache
	cacheTTL time.Duration
}

// Option configures a Database.
type Option func(*options)

// WithLogger sets the logger used for statement failures and cache warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCache caches GetByID results of the direct relations.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// New validates the table names and builds every relation over drv.
func New(drv dialect.ExecQuerier, tables Tables, opts ...Option) (*Database, error) {
	if drv == nil {
		return nil, MissingArgument("New", "driver")
	}
	for _, t := range []struct {
		key  string
		name string
	}{
		{"users", tables.Users.Name},
		{"types", tables.Types.Name},
		{"user_groups", tables.UserGroups.Name},
		{"user_groups_relation", tables.UserGroupsRelation.Name},
		{"user_emails", tables.UserEmails.Name},
	} {
		if !sql.ValidIdentifier(t.name) {
			return nil, NewError(ErrnoValidation, fmt.Sprintf("New: invalid table name %q for %s", t.name, t.key))
		}
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var relOpts []RelationOption
	if o.cache != nil {
		relOpts = append(relOpts, WithRelationCache(o.cache, o.cacheTTL))
	}
	engine := NewEngine(drv, o.logger)
	return &Database{
		engine: engine,
		tables: tables,
		users:  NewRelation(engine, tables.Users.Name, tables.Users.Mapping, relOpts...),
		types:  NewRelation(engine, tables.Types.Name, tables.Types.Mapping, relOpts...),
		groups: NewExtendedRelation(
			NewRelation(engine, tables.UserGroups.Name, tables.UserGroups.Mapping, relOpts...),
			tables.Users.Name, tables.Users.Mapping, tables.UserGroupsRelation.Name,
		),
		emails: NewRelation(engine, tables.UserEmails.Name, tables.UserEmails.Mapping, relOpts...),
	}, nil
}

// Engine returns the engine shared by all relations.
func (db *Database) Engine() *Engine { return db.engine }

// Users returns the users relation.
func (db *Database) Users() *Relation { return db.users }

// Types returns the user types relation.
func (db *Database) Types() *Relation { return db.types }

// Groups returns the groups relation, with reverse traversal to their users.
func (db *Database) Groups() *ExtendedRelation { return db.groups }

// Emails returns the emails relation across all users.
func (db *Database) Emails() *Relation { return db.emails }

// UserGroups returns the groups of one user.
func (db *Database) UserGroups(userID int64) *ManyToManyRelation {
	return NewManyToManyRelation(db.engine, userID, db.tables.UserGroups.Name,
		db.tables.UserGroups.Mapping, db.tables.UserGroupsRelation.Name)
}

// UserEmails returns the emails of one user.
func (db *Database) UserEmails(userID int64) *OneToManyRelation {
	return db.emails.Owned(userID)
}

// Relation returns a direct relation by name (see the *Relation constants).
func (db *Database) Relation(name string) (*Relation, bool) {
	switch name {
	case UsersRelation:
		return db.users, true
	case TypesRelation:
		return db.types, true
	case GroupsRelation:
		return db.groups.Relation, true
	case EmailsRelation:
		return db.emails, true
	default:
		return nil, false
	}
}
