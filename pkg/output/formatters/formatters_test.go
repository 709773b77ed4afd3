package formatters

import (
	"bytes"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/json"
	"github.com/ajitpratap0/penguin/pkg/output"
	"github.com/ajitpratap0/penguin/pkg/table"
)

type subject struct {
	name  string
	extra map[string]interface{}
}

func (s subject) Name() string { return s.name }

func (s subject) Serializable() map[string]interface{} {
	out := map[string]interface{}{"name": s.name}
	for k, v := range s.extra {
		out[k] = v
	}
	return out
}

var validatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func failingOutput() *output.PremiseOutput {
	failed := table.FromRecords([]string{"x"}, []interface{}{int64(1)}, []interface{}{int64(2)}, []interface{}{int64(3)})
	return output.NewPremiseOutput(
		subject{name: "x_check", extra: map[string]interface{}{"check": "Between"}},
		subject{name: "orders"},
		"x", 3, failed,
		output.WithRunID("run-1"),
		output.WithValidatedAt(validatedAt),
	)
}

func TestJSONRoundTrip(t *testing.T) {
	o := failingOutput()
	data, err := (&JSON{}).Format(o)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, false, decoded["pass_validation"])
	assert.Equal(t, float64(3), decoded["failed_count"])
	assert.Equal(t, "x", decoded["column"])
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"x": float64(1)},
		map[string]interface{}{"x": float64(2)},
		map[string]interface{}{"x": float64(3)},
	}, decoded["failed_values"])
	assert.Equal(t, map[string]interface{}{"name": "x_check", "check": "Between"}, decoded["data_premise"])
	assert.Equal(t, map[string]interface{}{"name": "orders"}, decoded["data_node"])
}

func TestJSONKeepsHTMLCharacters(t *testing.T) {
	o := output.NewPremiseOutput(subject{name: "amount_check"}, subject{name: "orders"}, "amount", 0, nil,
		output.WithRunID("a<b&c"), output.WithValidatedAt(validatedAt))
	data, err := (&JSON{}).Format(o)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"run_id":"a<b&c"`)
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestJSONSortedKeys(t *testing.T) {
	data, err := (&JSON{}).Format(failingOutput())
	require.NoError(t, err)

	s := string(data)
	keys := []string{`"column"`, `"data_node"`, `"data_premise"`, `"failed_count"`, `"failed_values"`, `"pass_validation"`, `"run_id"`, `"validated_at"`}
	last := -1
	for _, k := range keys {
		i := bytes.Index(data, []byte(k))
		require.GreaterOrEqual(t, i, 0, "missing %s in %s", k, s)
		assert.Greater(t, i, last, "key %s out of order", k)
		last = i
	}

	indented, err := (&JSON{Indent: true}).Format(failingOutput())
	require.NoError(t, err)
	assert.Contains(t, string(indented), "\n    \"column\"")
}

func TestLog(t *testing.T) {
	line, err := Log{}.Format(failingOutput())
	require.NoError(t, err)
	assert.Equal(t, "orders - x_check: Failed (3 failed)", string(line))

	passed := output.NewPremiseOutput(subject{name: "p"}, subject{name: "n"}, "c", 0, nil)
	line, err = Log{}.Format(passed)
	require.NoError(t, err)
	assert.Equal(t, "n - p: Passed (0 failed)", string(line))
}

func TestRSH(t *testing.T) {
	f := NewRSH(RSHConfig{Project: "Project A", Spec: "analytics_to_bigquery", Deploy: "0.2"})
	data, err := f.Format(failingOutput())
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "Project A", body["project"])
	assert.Equal(t, "pipeline-penguin", body["module"])
	assert.Equal(t, "analytics_to_bigquery", body["spec"])
	assert.Equal(t, "0.2", body["deploy"])
	assert.Equal(t, RSHCodeFailed, body["code"])
	assert.Equal(t, "Checking Between on column x", body["description"])

	payload := body["payload"].(map[string]interface{})
	assert.Equal(t, "x_check", payload["data_premise"])
	assert.Equal(t, "orders", payload["data_node"])
	assert.Equal(t, float64(3), payload["failed_count"])
	assert.Len(t, payload["failed_values"], 3)
}

func TestAvro(t *testing.T) {
	for _, compression := range []string{"", "deflate", "snappy"} {
		t.Run("compression "+compression, func(t *testing.T) {
			f, err := NewAvro(compression)
			require.NoError(t, err)

			data, err := f.Format(failingOutput())
			require.NoError(t, err)

			r, err := goavro.NewOCFReader(bytes.NewReader(data))
			require.NoError(t, err)
			require.True(t, r.Scan())
			datum, err := r.Read()
			require.NoError(t, err)

			rec := datum.(map[string]interface{})
			assert.Equal(t, "orders", rec["data_node"])
			assert.Equal(t, "x_check", rec["data_premise"])
			assert.Equal(t, false, rec["pass_validation"])
			assert.Equal(t, int64(3), rec["failed_count"])
			assert.JSONEq(t, `[{"x":1},{"x":2},{"x":3}]`, rec["failed_values"].(string))
			assert.True(t, validatedAt.Equal(rec["validated_at"].(time.Time)))
			assert.False(t, r.Scan())
		})
	}

	_, err := NewAvro("zstd")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		f, err := New(Config{Type: name})
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}

	_, err := New(Config{Type: "xml"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
