package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "explicit dsn", cfg: Config{DSN: "postgres://u@db/x"}, want: "postgres://u@db/x"},
		{name: "defaults", cfg: Config{}, want: "host=localhost port=5432 sslmode=disable"},
		{
			name: "fields",
			cfg:  Config{Host: "db", Port: 6543, User: "u", Password: "p", Database: "shop", SSLMode: "require"},
			want: "host=db port=6543 sslmode=require user=u password=p dbname=shop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestBuildDSNParses(t *testing.T) {
	cfg, err := pgx.ParseConfig(BuildDSN(Config{Host: "db", User: "u", Database: "shop"}))
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, "shop", cfg.Database)
}

func TestConnectorRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(4)))

	c := NewWithDB(db, Config{MaxResults: 50})
	assert.Equal(t, core.SourcePostgres, c.Source())
	assert.Equal(t, 50, c.MaxResults())

	tbl, err := c.Run(context.Background(), `SELECT COUNT(*) AS "total" FROM "public"."orders"`)
	require.NoError(t, err)
	n, err := tbl.Int64(0, "total")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
