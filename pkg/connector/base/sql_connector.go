package base

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/metrics"
	"github.com/ajitpratap0/penguin/pkg/observability"
	"github.com/ajitpratap0/penguin/pkg/table"
)

// DefaultMaxResults is the row cap applied when a connector is configured without one.
const DefaultMaxResults = 1000

// BaseSQLConnector runs query text over a database/sql handle.
type BaseSQLConnector struct {
	DB         *sql.DB
	source     core.Source
	maxResults int
	logger     *zap.Logger
}

// NewBaseSQLConnector wraps db for source. maxResults <= 0 selects DefaultMaxResults.
func NewBaseSQLConnector(source core.Source, db *sql.DB, maxResults int) *BaseSQLConnector {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &BaseSQLConnector{
		DB:         db,
		source:     source,
		maxResults: maxResults,
		logger:     logger.Get().With(zap.String("component", "connector"), zap.String("source", string(source))),
	}
}

// Kind implements core.Keyer.
func (b *BaseSQLConnector) Kind() core.Kind { return core.KindSQL }

// Source implements core.Keyer.
func (b *BaseSQLConnector) Source() core.Source { return b.source }

// MaxResults returns the default row cap.
func (b *BaseSQLConnector) MaxResults() int { return b.maxResults }

// Run executes query and materializes at most the row cap. The server still
// computes the full result; only the returned rows are clamped.
func (b *BaseSQLConnector) Run(ctx context.Context, query string, opts ...core.RunOption) (*table.Table, error) {
	if b.DB == nil {
		return nil, errors.New(errors.ErrorTypeConnection, "database connection not established")
	}
	o := core.ApplyRunOptions(b.maxResults, opts...)

	var result *table.Table
	timer := metrics.NewTimer()
	err := observability.Trace(ctx, "connector.run", map[string]interface{}{
		"connector.source": string(b.source),
		"query.max_rows":   o.MaxRows,
	}, func(ctx context.Context) error {
		var err error
		result, err = b.query(ctx, query, o.MaxRows)
		return err
	})
	metrics.ObserveQuery(string(b.source), timer.Stop(), err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, b.logger).Debug("query executed", zap.Int("rows", result.Len()), zap.Int("max_rows", o.MaxRows))
	return result, nil
}

func (b *BaseSQLConnector) query(ctx context.Context, query string, maxRows int) (*table.Table, error) {
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to execute query").
			WithDetail("source", string(b.source))
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read result columns")
	}
	columns := make([]table.Column, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = table.Column{Name: ct.Name(), Type: ColumnType(ct.DatabaseTypeName())}
	}
	result := table.New(columns...)

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for result.Len() < maxRows && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan result row")
		}
		if err := result.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "error iterating query results")
	}
	result.InferTypes()
	return result, nil
}

// Close closes the database connection.
func (b *BaseSQLConnector) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// ColumnType maps a driver database type name onto a table column type.
func ColumnType(databaseType string) table.Type {
	switch databaseType {
	case "VARCHAR", "TEXT", "CHAR", "BPCHAR", "STRING", "NVARCHAR", "UUID", "JSON", "JSONB":
		return table.TypeString
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT64":
		return table.TypeInteger
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL", "NUMERIC", "DECIMAL", "FIXED", "FLOAT64":
		return table.TypeFloat
	case "BOOL", "BOOLEAN":
		return table.TypeBoolean
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME", "DATE", "TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ":
		return table.TypeTimestamp
	default:
		return table.TypeUnknown
	}
}
