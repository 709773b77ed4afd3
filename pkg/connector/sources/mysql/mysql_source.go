// Package mysql provides the MySQL SQL connector.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ajitpratap0/penguin/pkg/connector/base"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Descriptor identifies MySQL SQL connectors in the connector registry.
var Descriptor = core.Describe(core.KindSQL, core.SourceMySQL)

// Config configures a MySQL connector
type Config struct {
	Host       string        `mapstructure:"host" yaml:"host,omitempty"`
	Port       int           `mapstructure:"port" yaml:"port,omitempty"`
	User       string        `mapstructure:"user" yaml:"user" validate:"required"`
	Password   string        `mapstructure:"password" yaml:"password,omitempty"`
	Database   string        `mapstructure:"database" yaml:"database,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	MaxResults int           `mapstructure:"max_results" yaml:"max_results,omitempty" validate:"gte=0"`
}

// Connector runs SQL against MySQL
type Connector struct {
	*base.BaseSQLConnector
}

// New opens and pings a MySQL connection.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	connector, err := mysql.NewConnector(DriverConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql connection settings")
	}

	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping mysql")
	}

	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an open handle.
func NewWithDB(db *sql.DB, cfg Config) *Connector {
	return &Connector{BaseSQLConnector: base.NewBaseSQLConnector(core.SourceMySQL, db, cfg.MaxResults)}
}

// DriverConfig maps cfg onto the driver configuration. Times are parsed into time.Time.
func DriverConfig(cfg Config) *mysql.Config {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", host, port)
	dc.DBName = cfg.Database
	dc.ParseTime = true
	if cfg.Timeout > 0 {
		dc.Timeout = cfg.Timeout
	}
	return dc
}
