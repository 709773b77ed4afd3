package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
)

func TestDriverConfig(t *testing.T) {
	dc := DriverConfig(Config{User: "root", Password: "pw", Database: "shop", Timeout: 5 * time.Second})
	assert.Equal(t, "localhost:3306", dc.Addr)
	assert.Equal(t, "tcp", dc.Net)
	assert.True(t, dc.ParseTime)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/shop?parseTime=true&timeout=5s", dc.FormatDSN())
}

func TestConnectorRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"result", "total"}).AddRow(int64(8), int64(10)))

	c := NewWithDB(db, Config{User: "root"})
	assert.Equal(t, core.SourceMySQL, c.Source())

	tbl, err := c.Run(context.Background(), "SELECT COUNT(DISTINCT `sku`) AS `result`, COUNT(`sku`) AS `total` FROM `shop`.`items`")
	require.NoError(t, err)
	result, err := tbl.Int64(0, "result")
	require.NoError(t, err)
	assert.Equal(t, int64(8), result)
}
