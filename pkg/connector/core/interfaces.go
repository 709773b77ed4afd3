package core

import (
	"context"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/table"
)

// Kind is the premise kind a connector can execute.
type Kind string

const (
	// KindSQL connectors execute SQL text.
	KindSQL Kind = "SQL"
)

// Source identifies the warehouse a connector talks to.
type Source string

const (
	SourceBigQuery  Source = "BigQuery"
	SourcePostgres  Source = "PostgreSQL"
	SourceMySQL     Source = "MySQL"
	SourceSnowflake Source = "Snowflake"
)

// Keyer is anything that names a (kind, source) pair: a live connector or a Descriptor.
type Keyer interface {
	Kind() Kind
	Source() Source
}

// Connector executes query text against one data source and returns the result table.
// Implementations must be safe for concurrent Run calls.
type Connector interface {
	Keyer
	Run(ctx context.Context, query string, opts ...RunOption) (*table.Table, error)
}

// Descriptor is a static (kind, source) sentinel used to look up defaults without
// an instantiated connector.
type Descriptor struct {
	kind   Kind
	source Source
}

// Describe returns the descriptor for a connector class.
func Describe(kind Kind, source Source) Descriptor {
	return Descriptor{kind: kind, source: source}
}

// Kind implements Keyer.
func (d Descriptor) Kind() Kind { return d.kind }

// Source implements Keyer.
func (d Descriptor) Source() Source { return d.source }

// Key concatenates kind and source into a registry key.
func Key(kind Kind, source Source) string {
	return string(kind) + string(source)
}

// KeyOf derives the registry key of k.
func KeyOf(k Keyer) (string, error) {
	if k == nil {
		return "", errors.New(errors.ErrorTypeInvalidArguments, "connector key requires a connector or descriptor")
	}
	if k.Kind() == "" || k.Source() == "" {
		return "", errors.New(errors.ErrorTypeInvalidArguments, "connector key requires both kind and source").
			WithDetail("kind", string(k.Kind())).
			WithDetail("source", string(k.Source()))
	}
	return Key(k.Kind(), k.Source()), nil
}

// RunOptions tunes a single Run call.
type RunOptions struct {
	// MaxRows caps the rows materialized from the result. Zero means the connector default.
	MaxRows int
}

// RunOption configures RunOptions.
type RunOption func(*RunOptions)

// WithMaxRows caps the rows returned by one Run call.
func WithMaxRows(n int) RunOption {
	return func(o *RunOptions) { o.MaxRows = n }
}

// ApplyRunOptions resolves opts on top of the connector default row cap.
func ApplyRunOptions(defaultMaxRows int, opts ...RunOption) RunOptions {
	o := RunOptions{MaxRows: defaultMaxRows}
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxRows <= 0 {
		o.MaxRows = defaultMaxRows
	}
	return o
}
