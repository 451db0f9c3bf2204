package userdb_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/userdb"
	"github.com/syssam/userdb/dialect"
	"github.com/syssam/userdb/dialect/sql"
)

// newMock returns an engine over an exact-match sqlmock and the log buffer
// the engine writes to.
func newMock(t *testing.T) (*userdb.Engine, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return userdb.NewEngine(sql.OpenDB(dialect.MySQL, db), logger), mock, &buf
}

const schema = `
CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, first_name TEXT, last_name TEXT, type_id INTEGER);
CREATE TABLE user_types (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL);
CREATE TABLE user_groups (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL);
CREATE TABLE user_groups_relation (user_id INTEGER NOT NULL, rel_id INTEGER NOT NULL, PRIMARY KEY (user_id, rel_id));
CREATE TABLE user_emails (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL, email TEXT NOT NULL, verified INTEGER NOT NULL DEFAULT 0);
`

// openSQLite returns a driver over a fresh file-backed SQLite database with
// the users schema.
func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, "file:"+filepath.Join(t.TempDir(), "userdb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.DB().ExecContext(context.Background(), schema)
	require.NoError(t, err)
	return drv
}

func defaultTables() userdb.Tables {
	return userdb.Tables{
		Users:              userdb.TableConfig{Name: "users"},
		Types:              userdb.TableConfig{Name: "user_types"},
		UserGroups:         userdb.TableConfig{Name: "user_groups"},
		UserGroupsRelation: userdb.TableConfig{Name: "user_groups_relation"},
		UserEmails:         userdb.TableConfig{Name: "user_emails"},
	}
}

// seed inserts rows through the engine and fails the test on error.
func seed(t *testing.T, e *userdb.Engine, table string, rows ...userdb.Object) {
	t.Helper()
	for _, row := range rows {
		_, err := e.Create(context.Background(), table, row)
		require.NoError(t, err)
	}
}

// mockDriver returns a driver over a sqlmock connection that expects no
// statements.
func mockDriver(t *testing.T) *sql.Driver {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.MySQL, db)
}
