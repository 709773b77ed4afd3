package snowflake

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := BuildDSN(Config{Account: "acme", User: "etl", Password: "pw", Database: "DW", Schema: "PUBLIC", Warehouse: "WH"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "etl:pw@acme")
	assert.Contains(t, dsn, "database=DW")
	assert.Contains(t, dsn, "schema=PUBLIC")
	assert.Contains(t, dsn, "warehouse=WH")

	_, err = BuildDSN(Config{User: "etl", Password: "pw"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestConnectorRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"TOTAL"}).AddRow("0"))

	c := NewWithDB(db, Config{Account: "acme", User: "etl"})
	assert.Equal(t, core.SourceSnowflake, c.Source())

	tbl, err := c.Run(context.Background(), `SELECT COUNT(*) AS "TOTAL" FROM "DW"."PUBLIC"."ORDERS"`)
	require.NoError(t, err)
	n, err := tbl.Int64(0, "TOTAL")
	require.NoError(t, err)
	assert.Zero(t, n)
}
