// Package sql provides the database/sql backed query executor and the SQL
// fragment builders used by the userdb relations.
//
// # Drivers
//
// Driver adapts a *sql.DB (and Tx a *sql.Tx) to dialect.ExecQuerier:
//
//	drv, err := sql.Open(dialect.SQLite, "file:users.db")
//
// StatsDriver and DebugDriver wrap a Driver to count statements, report slow
// queries through log/slog, or log every statement.
//
// # Fragments
//
// The fragment builders turn Options into clause strings. They are pure and
// total:
//
//	opts := sql.Options{
//	    Attributes: []string{"id", "email"},
//	    Filter:     "active = 1",
//	    SortBy:     "email",
//	    SortOrder:  sql.OrderDesc,
//	    StartIndex: sql.Offset(20),
//	    Count:      sql.Limit(10),
//	}
//	sql.AttributesClause(opts, "") // "id, email"
//	sql.FilterClause(opts, false)  // " WHERE active = 1"
//	sql.SortClause(opts)           // " ORDER BY email DESC"
//	sql.LimitClause(opts)          // " LIMIT 20, 10"
//
// Options.Filter has type Raw and is copied into the statement verbatim.
// Callers own the safety of every predicate they pass.
//
// # Scanning
//
// ScanMaps reads rows into column-name keyed maps; ScanInt64 reads a single
// COUNT(*) value.
package sql
