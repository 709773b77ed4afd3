// Package config loads the Penguin pipeline configuration: logging, execution
// policy, warehouse connectors, declarative nodes with their premises, output
// destinations, metrics and tracing.
//
// Example usage:
//
//	cfg, err := config.Load("penguin.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Any key can be overridden from the environment with the PENGUIN_ prefix,
// dots replaced by underscores (PENGUIN_EXECUTION_FAIL_FAST=true).
package config

import (
	"github.com/ajitpratap0/penguin/internal/runner"
	"github.com/ajitpratap0/penguin/pkg/connector/sources"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/metrics"
	"github.com/ajitpratap0/penguin/pkg/observability"
	"github.com/ajitpratap0/penguin/pkg/output/exporters"
	"github.com/ajitpratap0/penguin/pkg/output/formatters"
	"github.com/ajitpratap0/penguin/pkg/premise"
)

// Config is the root configuration document.
type Config struct {
	Logging    logger.Config               `mapstructure:"logging" yaml:"logging"`
	Execution  ExecutionConfig             `mapstructure:"execution" yaml:"execution"`
	Connectors sources.Config              `mapstructure:"connectors" yaml:"connectors,omitempty"`
	Nodes      []NodeConfig                `mapstructure:"nodes" yaml:"nodes,omitempty" validate:"dive"`
	Outputs    []OutputConfig              `mapstructure:"outputs" yaml:"outputs,omitempty" validate:"dive"`
	Metrics    metrics.Config              `mapstructure:"metrics" yaml:"metrics"`
	Tracing    observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// ExecutionConfig controls how premises run.
type ExecutionConfig struct {
	runner.Config `mapstructure:",squash" yaml:",inline"`
	// DefaultMaxResults caps rows for connectors that leave max_results unset.
	DefaultMaxResults int `mapstructure:"default_max_results" yaml:"default_max_results" validate:"gte=0"`
}

// NodeConfig declares a data node and the premises it carries.
type NodeConfig struct {
	Name     string                 `mapstructure:"name" yaml:"name" validate:"required"`
	Type     string                 `mapstructure:"type" yaml:"type" validate:"required"`
	Args     map[string]interface{} `mapstructure:"args" yaml:"args"`
	Premises []PremiseConfig        `mapstructure:"premises" yaml:"premises,omitempty" validate:"dive"`
	// Relations names downstream nodes.
	Relations []string `mapstructure:"relations" yaml:"relations,omitempty"`
}

// PremiseConfig declares one premise. Params are the check parameters, keyed as
// in the check's serialized form (second_term, lower_bound, array, ...).
type PremiseConfig struct {
	Name   string                 `mapstructure:"name" yaml:"name" validate:"required"`
	Column string                 `mapstructure:"column" yaml:"column" validate:"required"`
	Check  string                 `mapstructure:"check" yaml:"check" validate:"required"`
	Params map[string]interface{} `mapstructure:"params" yaml:"params,omitempty"`
}

// Factory parses the check and returns a premise factory for it.
func (p PremiseConfig) Factory() (premise.Factory, error) {
	check, err := premise.ParseCheck(p.Check, p.Params)
	if err != nil {
		return nil, err
	}
	return premise.FromCheck(p.Column, check), nil
}

// OutputConfig pairs a formatter with an exporter.
type OutputConfig struct {
	Name      string            `mapstructure:"name" yaml:"name,omitempty"`
	Formatter formatters.Config `mapstructure:"formatter" yaml:"formatter"`
	Exporter  exporters.Config  `mapstructure:"exporter" yaml:"exporter"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Execution: ExecutionConfig{
			Config:            runner.Config{Parallelism: 1},
			DefaultMaxResults: 1000,
		},
		Metrics: metrics.Config{
			Address: ":9090",
			Path:    "/metrics",
		},
		Tracing: observability.TracingConfig{
			ServiceName:  "penguin",
			SamplingRate: 1.0,
			ExporterType: "stdout",
		},
	}
}
