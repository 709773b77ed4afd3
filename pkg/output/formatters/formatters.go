// Package formatters turns premise outputs into JSON, log lines, Raft Suite Hub
// bodies or Avro records.
package formatters

import (
	"sort"
	"strings"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// Formatter names accepted by New.
const (
	NameJSON = "json"
	NameLog  = "log"
	NameRSH  = "rsh"
	NameAvro = "avro"
)

// Config selects and tunes a formatter.
type Config struct {
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=json log rsh avro"`
	// Indent pretty-prints JSON output.
	Indent bool `mapstructure:"indent" yaml:"indent,omitempty"`
	// RSH fills the Raft Suite Hub envelope.
	RSH RSHConfig `mapstructure:"rsh" yaml:"rsh,omitempty"`
	// AvroCompression is the container codec: null, deflate or snappy.
	AvroCompression string `mapstructure:"avro_compression" yaml:"avro_compression,omitempty"`
}

// New builds the formatter described by cfg.
func New(cfg Config) (output.Formatter, error) {
	switch strings.ToLower(cfg.Type) {
	case NameJSON:
		return &JSON{Indent: cfg.Indent}, nil
	case NameLog:
		return Log{}, nil
	case NameRSH:
		return NewRSH(cfg.RSH), nil
	case NameAvro:
		return NewAvro(cfg.AvroCompression)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown formatter %q", cfg.Type).
			WithDetail("supported", Names())
	}
}

// Names lists the formatter names (sorted).
func Names() []string {
	names := []string{NameJSON, NameLog, NameRSH, NameAvro}
	sort.Strings(names)
	return names
}
