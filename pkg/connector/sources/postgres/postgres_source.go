// Package postgres provides the PostgreSQL SQL connector.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ajitpratap0/penguin/pkg/connector/base"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Descriptor identifies PostgreSQL SQL connectors in the connector registry.
var Descriptor = core.Describe(core.KindSQL, core.SourcePostgres)

// Config configures a PostgreSQL connector
type Config struct {
	// DSN is a connection URL or key=value string. When set, the discrete fields are ignored.
	DSN        string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Host       string `mapstructure:"host" yaml:"host,omitempty"`
	Port       int    `mapstructure:"port" yaml:"port,omitempty"`
	User       string `mapstructure:"user" yaml:"user,omitempty"`
	Password   string `mapstructure:"password" yaml:"password,omitempty"`
	Database   string `mapstructure:"database" yaml:"database,omitempty"`
	SSLMode    string `mapstructure:"sslmode" yaml:"sslmode,omitempty"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results,omitempty" validate:"gte=0"`
	MaxConns   int    `mapstructure:"max_conns" yaml:"max_conns,omitempty" validate:"gte=0"`
}

// Connector runs SQL against PostgreSQL
type Connector struct {
	*base.BaseSQLConnector
}

// New opens and pings a PostgreSQL connection through the pgx stdlib driver.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	connCfg, err := pgx.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid postgres connection settings")
	}

	db := stdlib.OpenDB(*connCfg)
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping postgres")
	}

	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an open handle.
func NewWithDB(db *sql.DB, cfg Config) *Connector {
	return &Connector{BaseSQLConnector: base.NewBaseSQLConnector(core.SourcePostgres, db, cfg.MaxResults)}
}

// BuildDSN returns cfg.DSN or a key=value connection string built from the discrete fields.
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d sslmode=%s", host, port, sslmode)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Database != "" {
		dsn += fmt.Sprintf(" dbname=%s", cfg.Database)
	}
	return dsn
}
