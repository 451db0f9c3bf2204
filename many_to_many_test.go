package userdb_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/userdb"
)

func TestManyToManyRelation(t *testing.T) {
	ctx := context.Background()

	t.Run("count", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		assert.Equal(t, int64(7), rel.OwnerID())
		mock.ExpectQuery("SELECT COUNT(*) AS value FROM user_groups_relation WHERE user_id=?").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(3)))
		n, err := rel.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", userdb.MustMapping(userdb.Field{From: "name", To: "group"}), "user_groups_relation")
		mock.ExpectQuery("SELECT t.name FROM user_groups t INNER JOIN user_groups_relation tr ON t.id = tr.rel_id " +
			"WHERE tr.user_id=? AND t.name <> 'hidden' ORDER BY t.name DESC LIMIT 5").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("staff").AddRow("admins"))
		rows, err := rel.All(ctx, userdb.Options{
			Attributes: []string{"name"},
			Filter:     "t.name <> 'hidden'",
			SortBy:     "t.name",
			SortOrder:  "desc",
			Count:      ptr(uint64(5)),
		})
		require.NoError(t, err)
		assert.Equal(t, []userdb.Object{{"group": "staff"}, {"group": "admins"}}, rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assign", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		mock.ExpectExec("INSERT INTO user_groups_relation (rel_id, user_id) VALUES (?, ?)").
			WithArgs(int64(9), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		res, err := rel.Assign(ctx, 9)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assign_duplicate", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		mock.ExpectExec("INSERT INTO user_groups_relation (rel_id, user_id) VALUES (?, ?)").
			WithArgs(int64(9), int64(7)).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-9' for key 'PRIMARY'"})
		res, err := rel.Assign(ctx, 9)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assign_other_error", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		mock.ExpectExec("INSERT INTO user_groups_relation (rel_id, user_id) VALUES (?, ?)").
			WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})
		_, err := rel.Assign(ctx, 9)
		require.Error(t, err)
		assert.Equal(t, userdb.ErrnoUnknown, userdb.ErrnoOf(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoke", func(t *testing.T) {
		e, mock, _ := newMock(t)
		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		mock.ExpectExec("DELETE FROM user_groups_relation WHERE user_id=? AND rel_id=?").
			WithArgs(int64(7), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		_, err := rel.Revoke(ctx, 9)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing_ids", func(t *testing.T) {
		e, mock, _ := newMock(t)
		owner := userdb.NewManyToManyRelation(e, 0, "user_groups", nil, "user_groups_relation")
		_, err := owner.Count(ctx)
		assert.True(t, userdb.IsValidation(err))
		_, err = owner.All(ctx, userdb.Options{})
		assert.True(t, userdb.IsValidation(err))
		_, err = owner.Assign(ctx, 9)
		assert.True(t, userdb.IsValidation(err))

		rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")
		_, err = rel.Assign(ctx, 0)
		assert.True(t, userdb.IsValidation(err))
		_, err = rel.Revoke(ctx, 0)
		assert.True(t, userdb.IsValidation(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestManyToManyRelationSQLite(t *testing.T) {
	ctx := context.Background()
	e := userdb.NewEngine(openSQLite(t), nil)
	seed(t, e, "user_groups",
		userdb.Object{"name": "admins"},
		userdb.Object{"name": "staff"},
	)
	rel := userdb.NewManyToManyRelation(e, 7, "user_groups", nil, "user_groups_relation")

	_, err := rel.Assign(ctx, 2)
	require.NoError(t, err)
	rows, err := rel.All(ctx, userdb.Options{Attributes: []string{"id", "name"}})
	require.NoError(t, err)
	assert.Equal(t, []userdb.Object{{"id": int64(2), "name": "staff"}}, rows)

	// Assigning twice leaves a single link.
	res, err := rel.Assign(ctx, 2)
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Zero(t, n)
	count, err := rel.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = rel.Revoke(ctx, 2)
	require.NoError(t, err)
	rows, err = rel.All(ctx, userdb.Options{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func ptr[T any](v T) *T { return &v }
