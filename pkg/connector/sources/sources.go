// Package sources builds the configured warehouse connectors.
package sources

import (
	"context"

	"go.uber.org/multierr"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/connector/sources/bigquery"
	"github.com/ajitpratap0/penguin/pkg/connector/sources/mysql"
	"github.com/ajitpratap0/penguin/pkg/connector/sources/postgres"
	"github.com/ajitpratap0/penguin/pkg/connector/sources/snowflake"
)

// Config holds one optional block per warehouse. Present blocks become default connectors.
type Config struct {
	BigQuery  *bigquery.Config  `mapstructure:"bigquery" yaml:"bigquery,omitempty"`
	Postgres  *postgres.Config  `mapstructure:"postgres" yaml:"postgres,omitempty"`
	MySQL     *mysql.Config     `mapstructure:"mysql" yaml:"mysql,omitempty"`
	Snowflake *snowflake.Config `mapstructure:"snowflake" yaml:"snowflake,omitempty"`
}

// Closer is implemented by connectors that hold a client or pool.
type Closer interface {
	Close() error
}

// Build opens a connector for every configured block. defaultMaxResults fills
// blocks that leave max_results unset. On error, already opened connectors are closed.
func Build(ctx context.Context, cfg Config, defaultMaxResults int) ([]core.Connector, error) {
	var out []core.Connector

	fail := func(err error) ([]core.Connector, error) {
		for _, c := range out {
			if cl, ok := c.(Closer); ok {
				err = multierr.Append(err, cl.Close())
			}
		}
		return nil, err
	}

	if cfg.BigQuery != nil {
		c := *cfg.BigQuery
		if c.MaxResults == 0 {
			c.MaxResults = defaultMaxResults
		}
		conn, err := bigquery.New(ctx, c)
		if err != nil {
			return fail(err)
		}
		out = append(out, conn)
	}
	if cfg.Postgres != nil {
		c := *cfg.Postgres
		if c.MaxResults == 0 {
			c.MaxResults = defaultMaxResults
		}
		conn, err := postgres.New(ctx, c)
		if err != nil {
			return fail(err)
		}
		out = append(out, conn)
	}
	if cfg.MySQL != nil {
		c := *cfg.MySQL
		if c.MaxResults == 0 {
			c.MaxResults = defaultMaxResults
		}
		conn, err := mysql.New(ctx, c)
		if err != nil {
			return fail(err)
		}
		out = append(out, conn)
	}
	if cfg.Snowflake != nil {
		c := *cfg.Snowflake
		if c.MaxResults == 0 {
			c.MaxResults = defaultMaxResults
		}
		conn, err := snowflake.New(ctx, c)
		if err != nil {
			return fail(err)
		}
		out = append(out, conn)
	}
	return out, nil
}
