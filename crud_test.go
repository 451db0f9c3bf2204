package userdb_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/userdb"
	"github.com/syssam/userdb/dialect/sql"
)

func TestEngineCount(t *testing.T) {
	ctx := context.Background()

	t.Run("all", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectQuery("SELECT COUNT(*) AS value FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(3)))
		n, err := e.Count(ctx, "users", userdb.Options{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filter", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectQuery("SELECT COUNT(*) AS value FROM users WHERE type_id = 2").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(1)))
		n, err := e.Count(ctx, "users", userdb.Options{Filter: "type_id = 2"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineList(t *testing.T) {
	ctx := context.Background()
	m := userdb.MustMapping(
		userdb.Field{From: "id", To: "id"},
		userdb.Field{From: "first_name", To: "name.first"},
	)

	tests := []struct {
		name  string
		opts  userdb.Options
		query string
	}{
		{"defaults", userdb.Options{}, "SELECT * FROM users"},
		{"attributes", userdb.Options{Attributes: []string{"id", "first_name"}}, "SELECT id, first_name FROM users"},
		{"sort_default_asc", userdb.Options{SortBy: "first_name"}, "SELECT * FROM users ORDER BY first_name ASC"},
		{"sort_desc", userdb.Options{SortBy: "first_name", SortOrder: "desc"}, "SELECT * FROM users ORDER BY first_name DESC"},
		{"count_only", userdb.Options{Count: sql.Limit(10)}, "SELECT * FROM users LIMIT 10"},
		{"start_only", userdb.Options{StartIndex: sql.Offset(5)}, "SELECT * FROM users LIMIT 5, " + strconv.FormatUint(sql.NoLimit, 10)},
		{
			"everything",
			userdb.Options{
				Attributes: []string{"id", "first_name"},
				Filter:     "type_id = 2",
				SortBy:     "id",
				SortOrder:  "desc",
				StartIndex: sql.Offset(20),
				Count:      sql.Limit(10),
			},
			"SELECT id, first_name FROM users WHERE type_id = 2 ORDER BY id DESC LIMIT 20, 10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock, _ := newMock(t)
			mock.ExpectQuery(tt.query).
				WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).
					AddRow(int64(1), "Ada").
					AddRow(int64(2), "Grace"))
			rows, err := e.List(ctx, "users", m, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, []userdb.Object{
				{"id": int64(1), "name": userdb.Object{"first": "Ada"}},
				{"id": int64(2), "name": userdb.Object{"first": "Grace"}},
			}, rows)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("filter_verbatim", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectQuery("SELECT * FROM users WHERE first_name = 'O''Brien'").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		rows, err := e.List(ctx, "users", nil, userdb.Options{Filter: "first_name = 'O''Brien'"})
		require.NoError(t, err)
		assert.Empty(t, rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineGet(t *testing.T) {
	ctx := context.Background()

	t.Run("missing_id", func(t *testing.T) {
		e, mock, _ := newMock(t)
		obj, err := e.Get(ctx, "users", nil, 0, userdb.Options{})
		require.Error(t, err)
		assert.Nil(t, obj)
		assert.Equal(t, userdb.ErrnoValidation, userdb.ErrnoOf(err))
		require.NoError(t, mock.ExpectationsWereMet(), "no statement may be issued")
	})

	t.Run("found", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectQuery("SELECT id, first_name FROM users WHERE id=?").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).AddRow(int64(7), "Ada"))
		obj, err := e.Get(ctx, "users", nil, 7, userdb.Options{Attributes: []string{"id", "first_name"}})
		require.NoError(t, err)
		assert.Equal(t, userdb.Object{"id": int64(7), "first_name": "Ada"}, obj)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not_found", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectQuery("SELECT * FROM users WHERE id=?").
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		obj, err := e.Get(ctx, "users", userdb.MustMapping(userdb.Field{From: "id", To: "uid"}), 8, userdb.Options{})
		require.NoError(t, err)
		assert.NotNil(t, obj)
		assert.Empty(t, obj)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted_columns", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectExec("INSERT INTO users (first_name, last_name, type_id) VALUES (?, ?, ?)").
			WithArgs("Ada", "Lovelace", int64(2)).
			WillReturnResult(sqlmock.NewResult(5, 1))
		res, err := e.Create(ctx, "users", userdb.Object{"type_id": int64(2), "last_name": "Lovelace", "first_name": "Ada"})
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_object", func(t *testing.T) {
		e, mock, _ := newMock(t)
		for _, obj := range []userdb.Object{nil, {}} {
			_, err := e.Create(ctx, "users", obj)
			assert.True(t, userdb.IsValidation(err))
		}
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("update", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectExec("UPDATE users SET first_name=?, last_name=? WHERE id=?").
			WithArgs("Grace", "Hopper", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		res, err := e.Update(ctx, "users", 7, userdb.Object{"last_name": "Hopper", "first_name": "Grace"})
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_arguments", func(t *testing.T) {
		e, mock, _ := newMock(t)
		_, err := e.Update(ctx, "users", 0, userdb.Object{"a": 1})
		assert.True(t, userdb.IsValidation(err))
		_, err = e.Update(ctx, "users", 7, nil)
		assert.True(t, userdb.IsValidation(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("remove", func(t *testing.T) {
		e, mock, _ := newMock(t)
		mock.ExpectExec("DELETE FROM users WHERE id=?").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		_, err := e.Remove(ctx, "users", 7)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_id", func(t *testing.T) {
		e, mock, _ := newMock(t)
		_, err := e.Remove(ctx, "users", 0)
		assert.True(t, userdb.IsValidation(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngineDriverError(t *testing.T) {
	e, mock, logs := newMock(t)
	cause := errors.New("connection reset")
	mock.ExpectQuery("SELECT * FROM users").WillReturnError(cause)
	_, err := e.List(context.Background(), "users", nil, userdb.Options{})
	require.Error(t, err)
	assert.Equal(t, userdb.ErrnoUnknown, userdb.ErrnoOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, logs.String(), "userdb: statement failed")
	assert.Contains(t, logs.String(), "errno=1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngineMappingError(t *testing.T) {
	e, mock, _ := newMock(t)
	mock.ExpectQuery("SELECT * FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow("x", "y"))
	m := userdb.MustMapping(
		userdb.Field{From: "a", To: "p"},
		userdb.Field{From: "b", To: "p.q"},
	)
	_, err := e.List(context.Background(), "users", m, userdb.Options{})
	require.Error(t, err)
	assert.Equal(t, userdb.ErrnoType, userdb.ErrnoOf(err))
}

func TestEngineSQLite(t *testing.T) {
	ctx := context.Background()
	e := userdb.NewEngine(openSQLite(t), nil)
	seed(t, e, "users",
		userdb.Object{"first_name": "Ada", "last_name": "Lovelace", "type_id": int64(1)},
		userdb.Object{"first_name": "Grace", "last_name": "Hopper", "type_id": int64(2)},
		userdb.Object{"first_name": "Alan", "last_name": "Turing", "type_id": int64(2)},
	)

	n, err := e.Count(ctx, "users", userdb.Options{Filter: "type_id = 2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := e.List(ctx, "users", nil, userdb.Options{
		Attributes: []string{"id", "first_name"},
		SortBy:     "first_name",
		StartIndex: sql.Offset(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []userdb.Object{
		{"id": int64(3), "first_name": "Alan"},
		{"id": int64(2), "first_name": "Grace"},
	}, rows)

	_, err = e.Update(ctx, "users", 3, userdb.Object{"last_name": "M. Turing"})
	require.NoError(t, err)
	obj, err := e.Get(ctx, "users", nil, 3, userdb.Options{Attributes: []string{"last_name"}})
	require.NoError(t, err)
	assert.Equal(t, userdb.Object{"last_name": "M. Turing"}, obj)

	_, err = e.Remove(ctx, "users", 3)
	require.NoError(t, err)
	obj, err = e.Get(ctx, "users", nil, 3, userdb.Options{})
	require.NoError(t, err)
	assert.Empty(t, obj)
}

func TestEngineTx(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = userdb.NewEngine(tx, nil).Create(ctx, "user_types", userdb.Object{"name": "temp"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	n, err := userdb.NewEngine(drv, nil).Count(ctx, "user_types", userdb.Options{})
	require.NoError(t, err)
	assert.Zero(t, n)
}
