package exporters

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/ajitpratap0/penguin/pkg/clients"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// BigQueryConfig names the results table.
type BigQueryConfig struct {
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path,omitempty"`
	ProjectID       string `mapstructure:"project_id" yaml:"project_id"`
	DatasetID       string `mapstructure:"dataset_id" yaml:"dataset_id"`
	TableID         string `mapstructure:"table_id" yaml:"table_id"`
	Location        string `mapstructure:"location" yaml:"location,omitempty"`
}

// ResultRow is one row of the results table.
type ResultRow struct {
	Results           string    `bigquery:"results"`
	ValidateTimestamp time.Time `bigquery:"validate_timestamp"`
}

// ResultsSchema is the schema expected of the results table.
var ResultsSchema = bigquery.Schema{
	{Name: "results", Type: bigquery.StringFieldType, Required: true},
	{Name: "validate_timestamp", Type: bigquery.TimestampFieldType, Required: true},
}

// RowInserter appends rows. *bigquery.Inserter satisfies it.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQueryTable appends each payload to a results table as {results, validate_timestamp}.
type BigQueryTable struct {
	inserter RowInserter
	client   *bigquery.Client
	now      func() time.Time
}

// NewBigQueryTable connects to BigQuery and targets the configured table.
func NewBigQueryTable(ctx context.Context, cfg BigQueryConfig) (*BigQueryTable, error) {
	if cfg.ProjectID == "" || cfg.DatasetID == "" || cfg.TableID == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "bigquery exporter requires project_id, dataset_id and table_id")
	}
	opts, err := clients.GoogleClientOptions(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create BigQuery client")
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	e := NewBigQueryTableWithInserter(client.Dataset(cfg.DatasetID).Table(cfg.TableID).Inserter())
	e.client = client
	return e, nil
}

// NewBigQueryTableWithInserter builds the exporter over an existing inserter.
func NewBigQueryTableWithInserter(inserter RowInserter) *BigQueryTable {
	return &BigQueryTable{inserter: inserter, now: time.Now}
}

// Name implements output.Exporter.
func (b *BigQueryTable) Name() string { return NameBigQuery }

// Export implements output.Exporter.
func (b *BigQueryTable) Export(ctx context.Context, _ *output.PremiseOutput, payload []byte) error {
	row := &ResultRow{
		Results:           string(payload),
		ValidateTimestamp: b.now().UTC(),
	}
	if err := b.inserter.Put(ctx, row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeExport, "failed to insert result row")
	}
	return nil
}

// Close closes the BigQuery client, if the exporter owns one.
func (b *BigQueryTable) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
