// Package bigquery provides the BigQuery SQL connector.
package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/ajitpratap0/penguin/pkg/clients"
	"github.com/ajitpratap0/penguin/pkg/connector/base"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/metrics"
	"github.com/ajitpratap0/penguin/pkg/observability"
	"github.com/ajitpratap0/penguin/pkg/table"
)

// DefaultCredentials selects ambient Google credentials instead of a key file.
const DefaultCredentials = clients.DefaultCredentials

// Descriptor identifies BigQuery SQL connectors in the connector registry.
var Descriptor = core.Describe(core.KindSQL, core.SourceBigQuery)

// Config configures a BigQuery connector
type Config struct {
	// CredentialsPath is a service account key file, or "default" (or empty) for ambient credentials.
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
	// ProjectID is the billing project. Required.
	ProjectID string `mapstructure:"project_id" yaml:"project_id" validate:"required"`
	Location  string `mapstructure:"location" yaml:"location,omitempty"`
	// MaxResults caps materialized rows per query. Zero selects base.DefaultMaxResults.
	MaxResults int `mapstructure:"max_results" yaml:"max_results,omitempty" validate:"gte=0"`
	// DryRunLimitBytes rejects queries estimated to scan more bytes. Zero disables the check.
	DryRunLimitBytes int64 `mapstructure:"dry_run_limit_bytes" yaml:"dry_run_limit_bytes,omitempty" validate:"gte=0"`
}

// Client is the subset of BigQuery the connector needs.
type Client interface {
	// Query runs sql and returns at most maxRows rows.
	Query(ctx context.Context, sql string, maxRows int) (*table.Table, error)
	// EstimateBytes dry-runs sql and returns the bytes it would process.
	EstimateBytes(ctx context.Context, sql string) (int64, error)
	Close() error
}

// Connector runs SQL against BigQuery
type Connector struct {
	client     Client
	config     Config
	maxResults int
	logger     *zap.Logger
}

// New validates the credentials and creates a connector backed by a BigQuery client.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	opts, err := clients.GoogleClientOptions(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	if cfg.ProjectID == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "bigquery project_id is required")
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	return NewWithClient(&bqClient{client: client}, cfg), nil
}

// NewWithClient builds a connector over an existing client.
func NewWithClient(client Client, cfg Config) *Connector {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = base.DefaultMaxResults
	}
	return &Connector{
		client:     client,
		config:     cfg,
		maxResults: maxResults,
		logger:     logger.Get().With(zap.String("component", "connector"), zap.String("source", string(core.SourceBigQuery))),
	}
}

// Kind implements core.Keyer.
func (c *Connector) Kind() core.Kind { return core.KindSQL }

// Source implements core.Keyer.
func (c *Connector) Source() core.Source { return core.SourceBigQuery }

// MaxResults returns the default row cap.
func (c *Connector) MaxResults() int { return c.maxResults }

// Run executes query and returns at most the row cap.
func (c *Connector) Run(ctx context.Context, query string, opts ...core.RunOption) (*table.Table, error) {
	o := core.ApplyRunOptions(c.maxResults, opts...)

	var result *table.Table
	timer := metrics.NewTimer()
	err := observability.Trace(ctx, "connector.run", map[string]interface{}{
		"connector.source": string(core.SourceBigQuery),
		"query.max_rows":   o.MaxRows,
	}, func(ctx context.Context) error {
		if err := c.checkBytes(ctx, query); err != nil {
			return err
		}
		var err error
		result, err = c.client.Query(ctx, query, o.MaxRows)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "bigquery query failed")
		}
		return nil
	})
	metrics.ObserveQuery(string(core.SourceBigQuery), timer.Stop(), err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, c.logger).Debug("query executed", zap.Int("rows", result.Len()), zap.Int("max_rows", o.MaxRows))
	return result, nil
}

func (c *Connector) checkBytes(ctx context.Context, query string) error {
	if c.config.DryRunLimitBytes <= 0 {
		return nil
	}
	estimated, err := c.client.EstimateBytes(ctx, query)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "bigquery dry run failed")
	}
	if estimated > c.config.DryRunLimitBytes {
		return errors.Newf(errors.ErrorTypeQuery, "query would process %d bytes, limit is %d", estimated, c.config.DryRunLimitBytes).
			WithDetail("estimated_bytes", estimated).
			WithDetail("limit_bytes", c.config.DryRunLimitBytes)
	}
	logger.FromContext(ctx, c.logger).Debug("dry run passed", zap.Int64("estimated_bytes", estimated))
	return nil
}

// Close releases the BigQuery client.
func (c *Connector) Close() error {
	return c.client.Close()
}

type bqClient struct {
	client *bigquery.Client
}

func (b *bqClient) Query(ctx context.Context, sql string, maxRows int) (*table.Table, error) {
	q := b.client.Query(sql)
	job, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := status.Err(); err != nil {
		return nil, err
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, err
	}
	it.PageInfo().MaxSize = maxRows

	var result *table.Table
	for result.Len() < maxRows {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = table.New(schemaColumns(it.Schema)...)
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := result.Append(values...); err != nil {
			return nil, err
		}
	}
	if result == nil {
		result = table.New(schemaColumns(it.Schema)...)
	}
	return result, nil
}

func (b *bqClient) EstimateBytes(ctx context.Context, sql string) (int64, error) {
	q := b.client.Query(sql)
	q.DryRun = true
	job, err := q.Run(ctx)
	if err != nil {
		return 0, err
	}
	status := job.LastStatus()
	if status == nil || status.Statistics == nil {
		return 0, errors.New(errors.ErrorTypeQuery, "dry run returned no statistics")
	}
	return status.Statistics.TotalBytesProcessed, nil
}

func (b *bqClient) Close() error {
	return b.client.Close()
}

func schemaColumns(schema bigquery.Schema) []table.Column {
	cols := make([]table.Column, len(schema))
	for i, f := range schema {
		cols[i] = table.Column{Name: f.Name, Type: fieldType(f.Type)}
	}
	return cols
}

func fieldType(t bigquery.FieldType) table.Type {
	switch t {
	case bigquery.StringFieldType, bigquery.BytesFieldType, bigquery.DateFieldType, bigquery.TimeFieldType, bigquery.DateTimeFieldType:
		return table.TypeString
	case bigquery.IntegerFieldType:
		return table.TypeInteger
	case bigquery.FloatFieldType, bigquery.NumericFieldType, bigquery.BigNumericFieldType:
		return table.TypeFloat
	case bigquery.BooleanFieldType:
		return table.TypeBoolean
	case bigquery.TimestampFieldType:
		return table.TypeTimestamp
	default:
		return table.TypeUnknown
	}
}
