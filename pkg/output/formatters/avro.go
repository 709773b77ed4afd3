package formatters

import (
	"bytes"

	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/json"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// AvroSchema is the record schema of one premise output. failed_values holds
// the failed rows as a JSON array.
const AvroSchema = `{
	"type": "record",
	"name": "PremiseOutput",
	"namespace": "penguin",
	"fields": [
		{"name": "data_node", "type": "string"},
		{"name": "data_premise", "type": "string"},
		{"name": "column", "type": "string"},
		{"name": "pass_validation", "type": "boolean"},
		{"name": "failed_count", "type": "long"},
		{"name": "failed_values", "type": "string"},
		{"name": "run_id", "type": "string", "default": ""},
		{"name": "validated_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// Avro writes each output as a single-record Avro object container file.
type Avro struct {
	codec       *goavro.Codec
	compression string
}

// NewAvro creates an Avro formatter using compression (null, deflate or snappy).
func NewAvro(compression string) (*Avro, error) {
	codec, err := goavro.NewCodec(AvroSchema)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Avro codec")
	}
	switch compression {
	case "":
		compression = goavro.CompressionNullLabel
	case goavro.CompressionNullLabel, goavro.CompressionDeflateLabel, goavro.CompressionSnappyLabel:
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported Avro compression %q", compression)
	}
	return &Avro{codec: codec, compression: compression}, nil
}

// Name implements output.Formatter.
func (f *Avro) Name() string { return NameAvro }

// Codec returns the record codec, for decoding formatted payloads.
func (f *Avro) Codec() *goavro.Codec { return f.codec }

// Format implements output.Formatter.
func (f *Avro) Format(o *output.PremiseOutput) ([]byte, error) {
	failed, err := json.Marshal(o.FailedValues().Records())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "marshal failed values")
	}

	native := map[string]interface{}{
		"data_node":       subjectName(o.Node()),
		"data_premise":    subjectName(o.Premise()),
		"column":          o.Column(),
		"pass_validation": o.PassValidation(),
		"failed_count":    int64(o.FailedCount()),
		"failed_values":   string(failed),
		"run_id":          o.RunID(),
		"validated_at":    o.ValidatedAt(),
	}

	var buf bytes.Buffer
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               &buf,
		Codec:           f.codec,
		CompressionName: f.compression,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Avro writer")
	}
	if err := w.Append([]interface{}{native}); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to write Avro record")
	}
	return buf.Bytes(), nil
}
