// Package base provides the shared pieces SQL connectors are built from:
// BaseSQLConnector, which runs query text over database/sql and materializes
// a capped result table, and RetryPolicy, an exponential backoff helper used
// by exporters and callers that want retries around warehouse I/O.
//
// # Usage
//
// Concrete connectors embed BaseSQLConnector and only supply the connection:
//
//	type Connector struct {
//	    *base.BaseSQLConnector
//	}
//
//	func New(ctx context.Context, cfg Config) (*Connector, error) {
//	    db, err := sql.Open("pgx", cfg.DSN)
//	    ...
//	    return &Connector{BaseSQLConnector: base.NewBaseSQLConnector(core.SourcePostgres, db, cfg.MaxResults)}, nil
//	}
package base
