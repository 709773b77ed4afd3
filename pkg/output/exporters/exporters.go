// Package exporters delivers formatted premise outputs to a terminal, an HTTP
// endpoint, a BigQuery results table, object storage or Kafka.
package exporters

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// Exporter names accepted by New.
const (
	NameTerminal = "terminal"
	NameHTTP     = "http"
	NameBigQuery = "bigquery"
	NameGCS      = "gcs"
	NameS3       = "s3"
	NameKafka    = "kafka"
)

// Config selects and configures an exporter. Only the block matching Type is read.
type Config struct {
	Type     string         `mapstructure:"type" yaml:"type" validate:"required,oneof=terminal http bigquery gcs s3 kafka"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http,omitempty"`
	BigQuery BigQueryConfig `mapstructure:"bigquery" yaml:"bigquery,omitempty"`
	GCS      BucketConfig   `mapstructure:"gcs" yaml:"gcs,omitempty"`
	S3       S3Config       `mapstructure:"s3" yaml:"s3,omitempty"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka,omitempty"`
}

// Closer is implemented by exporters that hold network clients.
type Closer interface {
	Close() error
}

// New builds the exporter described by cfg.
func New(ctx context.Context, cfg Config) (output.Exporter, error) {
	switch strings.ToLower(cfg.Type) {
	case NameTerminal:
		return NewTerminal(nil), nil
	case NameHTTP:
		return NewHTTP(ctx, cfg.HTTP)
	case NameBigQuery:
		return NewBigQueryTable(ctx, cfg.BigQuery)
	case NameGCS:
		return NewGCS(ctx, cfg.GCS)
	case NameS3:
		return NewS3(ctx, cfg.S3)
	case NameKafka:
		return NewKafka(cfg.Kafka)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown exporter %q", cfg.Type).
			WithDetail("supported", Names())
	}
}

// Names lists the exporter names (sorted).
func Names() []string {
	names := []string{NameTerminal, NameHTTP, NameBigQuery, NameGCS, NameS3, NameKafka}
	sort.Strings(names)
	return names
}

// objectKey names the stored object for an output: prefix/run/node/premise plus extension.
func objectKey(prefix string, o *output.PremiseOutput, ext string) string {
	run := o.RunID()
	if run == "" {
		run = o.ValidatedAt().UTC().Format("20060102T150405Z")
	}
	return path.Join(prefix, run, subjectName(o.Node()), subjectName(o.Premise())+ext)
}

func subjectName(s output.Subject) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
