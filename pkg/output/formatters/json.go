package formatters

import (
	"bytes"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/json"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// JSON renders the serializable form of an output with sorted keys. HTML
// characters are not escaped.
type JSON struct {
	Indent bool
}

// Name implements output.Formatter.
func (f *JSON) Name() string { return NameJSON }

// Format implements output.Formatter.
func (f *JSON) Format(o *output.PremiseOutput) ([]byte, error) {
	if f.Indent {
		data, err := json.MarshalIndent(o.Serializable(), "", "    ")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "marshal premise output")
		}
		return data, nil
	}

	buf := json.GetBuffer()
	defer json.PutBuffer(buf)
	if err := json.MarshalToWriter(buf, o.Serializable()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "marshal premise output")
	}
	return append([]byte(nil), bytes.TrimSuffix(buf.Bytes(), []byte("\n"))...), nil
}
