// Package userdb is a data-access layer for a users domain over a SQL
// database.
//
// A Database holds one relation per table, built once at startup:
//
//	drv, err := sql.Open(dialect.MySQL, dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db, err := userdb.New(drv, userdb.Tables{
//	    Users:              userdb.TableConfig{Name: "users", Mapping: usersMapping},
//	    Types:              userdb.TableConfig{Name: "user_types"},
//	    UserGroups:         userdb.TableConfig{Name: "user_groups"},
//	    UserGroupsRelation: userdb.TableConfig{Name: "user_groups_relation"},
//	    UserEmails:         userdb.TableConfig{Name: "user_emails"},
//	})
//
// # Relations
//
//   - Relation: count, list, get, create, update and remove rows of one table.
//   - ExtendedRelation: a Relation linked to users through a junction table,
//     with ListOwners/CountOwners for the users linked to one of its rows.
//   - OneToManyRelation: the rows of a table owned by one user (user_id).
//   - ManyToManyRelation: the rows linked to one user through a junction
//     table (user_id, rel_id), with Assign and Revoke.
//
// Read operations take Options. Options.Filter is raw SQL copied verbatim
// into the statement; see dialect/sql.Raw.
//
// # Mapping
//
// A Mapping turns raw rows into domain objects, field by field, with dotted
// destination paths for nested objects. A relation without a mapping returns
// rows as read. GetByID of a missing row returns an empty Object, not an error.
//
// # Errors
//
// Every failure is an *Error carrying an Errno and a Code:
//
//	1 UNKNOWN_ERROR     driver and other unclassified failures
//	2 TYPE_ERROR        mapping and format errors
//	3 MISSING_ARGUMENT  a required argument was missing; no statement was issued
//
// Use errors.Is(err, userdb.ErrValidation) or ErrnoOf to branch.
package userdb
