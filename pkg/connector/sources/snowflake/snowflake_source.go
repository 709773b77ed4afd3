// Package snowflake provides the Snowflake SQL connector.
package snowflake

import (
	"context"
	"database/sql"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/ajitpratap0/penguin/pkg/connector/base"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Descriptor identifies Snowflake SQL connectors in the connector registry.
var Descriptor = core.Describe(core.KindSQL, core.SourceSnowflake)

// Config configures a Snowflake connector
type Config struct {
	Account    string `mapstructure:"account" yaml:"account" validate:"required"`
	User       string `mapstructure:"user" yaml:"user" validate:"required"`
	Password   string `mapstructure:"password" yaml:"password,omitempty"`
	Database   string `mapstructure:"database" yaml:"database,omitempty"`
	Schema     string `mapstructure:"schema" yaml:"schema,omitempty"`
	Warehouse  string `mapstructure:"warehouse" yaml:"warehouse,omitempty"`
	Role       string `mapstructure:"role" yaml:"role,omitempty"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results,omitempty" validate:"gte=0"`
}

// Connector runs SQL against Snowflake
type Connector struct {
	*base.BaseSQLConnector
}

// New opens and pings a Snowflake connection.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open snowflake connection")
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping snowflake")
	}

	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an open handle.
func NewWithDB(db *sql.DB, cfg Config) *Connector {
	return &Connector{BaseSQLConnector: base.NewBaseSQLConnector(core.SourceSnowflake, db, cfg.MaxResults)}
}

// BuildDSN renders cfg with the driver's DSN builder.
func BuildDSN(cfg Config) (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid snowflake connection settings")
	}
	return dsn, nil
}
