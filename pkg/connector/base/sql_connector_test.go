package base

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	perrors "github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/table"
)

func TestBaseSQLConnectorRun(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT "x" FROM "t" WHERE "x" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(nil).AddRow(nil).AddRow(nil))

	c := NewBaseSQLConnector(core.SourcePostgres, db, 0)
	assert.Equal(t, DefaultMaxResults, c.MaxResults())
	assert.Equal(t, core.KindSQL, c.Kind())
	assert.Equal(t, core.SourcePostgres, c.Source())

	tbl, err := c.Run(context.Background(), `SELECT "x" FROM "t" WHERE "x" IS NULL`)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"x"}, tbl.ColumnNames())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLConnectorRowCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"})
	for i := 0; i < 10; i++ {
		rows.AddRow(int64(i), []byte("n"))
	}
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	c := NewBaseSQLConnector(core.SourceMySQL, db, 100)
	tbl, err := c.Run(context.Background(), "SELECT id, name FROM t", core.WithMaxRows(4))
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	v, ok := tbl.Value(3, "name")
	require.True(t, ok)
	assert.Equal(t, "n", v)
}

func TestBaseSQLConnectorErrors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

		c := NewBaseSQLConnector(core.SourcePostgres, db, 10)
		_, err = c.Run(context.Background(), "SELECT 1")
		assert.True(t, perrors.IsType(err, perrors.ErrorTypeQuery))
	})

	t.Run("row error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT").WillReturnRows(
			sqlmock.NewRows([]string{"x"}).AddRow(1).RowError(0, errors.New("network reset")))

		c := NewBaseSQLConnector(core.SourcePostgres, db, 10)
		_, err = c.Run(context.Background(), "SELECT x FROM t")
		assert.Error(t, err)
	})

	t.Run("no connection", func(t *testing.T) {
		c := NewBaseSQLConnector(core.SourcePostgres, nil, 10)
		_, err := c.Run(context.Background(), "SELECT 1")
		assert.True(t, perrors.IsType(err, perrors.ErrorTypeConnection))
		assert.NoError(t, c.Close())
	})
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, table.TypeInteger, ColumnType("INT8"))
	assert.Equal(t, table.TypeString, ColumnType("VARCHAR"))
	assert.Equal(t, table.TypeFloat, ColumnType("NUMERIC"))
	assert.Equal(t, table.TypeBoolean, ColumnType("BOOL"))
	assert.Equal(t, table.TypeTimestamp, ColumnType("TIMESTAMPTZ"))
	assert.Equal(t, table.TypeUnknown, ColumnType("GEOGRAPHY"))
}
