// Package dialect defines the query executor contract used by userdb.
//
// The relations in the root package never open connections or manage pools.
// They issue every statement through an ExecQuerier, which is implemented by
// the database/sql backed driver in dialect/sql, by its Tx, and by the
// stats and debug wrappers around it.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database (modernc.org/sqlite)
//
// Postgres is named so that it can be recognized and refused: the fragment
// grammar used by the relations (`?` placeholders and `LIMIT offset, count`)
// is not valid PostgreSQL.
//
// # Usage
//
//	drv, err := sql.Open(dialect.MySQL, "user:pass@tcp(localhost:3306)/users")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	db, err := userdb.New(drv, tables)
package dialect
