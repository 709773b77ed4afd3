package output

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/table"
)

type subject struct {
	name string
	kind string
}

func (s subject) Name() string { return s.name }
func (s subject) Serializable() map[string]interface{} {
	return map[string]interface{}{"name": s.name, "type": s.kind}
}

func newOutput(premise string, failed int) *PremiseOutput {
	return NewPremiseOutput(
		subject{name: premise, kind: "SQL"},
		subject{name: "orders", kind: "BigQuery"},
		"id", failed,
		table.FromRecords([]string{"id"}, []interface{}{nil}),
		WithRunID("run-1"),
		WithValidatedAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
	)
}

func TestPremiseOutputPassMatchesCount(t *testing.T) {
	tests := []struct {
		failed     int
		wantPass   bool
		wantFailed int
	}{
		{failed: 0, wantPass: true, wantFailed: 0},
		{failed: 3, wantPass: false, wantFailed: 3},
		{failed: -2, wantPass: true, wantFailed: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.failed), func(t *testing.T) {
			o := newOutput("p", tt.failed)
			assert.Equal(t, tt.wantPass, o.PassValidation())
			assert.Equal(t, tt.wantFailed, o.FailedCount())
		})
	}
}

func TestPremiseOutputIsImmutable(t *testing.T) {
	values := table.FromRecords([]string{"x"}, []interface{}{int64(1)})
	o := NewPremiseOutput(subject{name: "p"}, subject{name: "n"}, "x", 1, values)

	values.Rows[0][0] = int64(99)
	got := o.FailedValues()
	got.Rows[0][0] = int64(42)

	v, _ := o.FailedValues().Value(0, "x")
	assert.Equal(t, int64(1), v)
}

func TestPremiseOutputSerializable(t *testing.T) {
	s := newOutput("id_not_null", 1).Serializable()

	assert.Equal(t, false, s["pass_validation"])
	assert.Equal(t, 1, s["failed_count"])
	assert.Equal(t, "id", s["column"])
	assert.Equal(t, "run-1", s["run_id"])
	assert.Equal(t, "2024-05-01T00:00:00Z", s["validated_at"])
	assert.Equal(t, []map[string]interface{}{{"id": nil}}, s["failed_values"])
	assert.Equal(t, map[string]interface{}{"name": "id_not_null", "type": "SQL"}, s["data_premise"])
	assert.Equal(t, map[string]interface{}{"name": "orders", "type": "BigQuery"}, s["data_node"])
}

type nameFormatter struct{ fail string }

func (nameFormatter) Name() string { return "name" }
func (f nameFormatter) Format(o *PremiseOutput) ([]byte, error) {
	if o.Premise().Name() == f.fail {
		return nil, errors.New("cannot format")
	}
	return []byte(o.Premise().Name()), nil
}

type recordingExporter struct {
	delivered []string
	fail      string
}

func (*recordingExporter) Name() string { return "recording" }
func (e *recordingExporter) Export(_ context.Context, o *PremiseOutput, payload []byte) error {
	if o.Premise().Name() == e.fail {
		return errors.New("connection refused")
	}
	e.delivered = append(e.delivered, string(payload))
	return nil
}

func newManager() *Manager {
	m := NewManager()
	m.Add("orders", "b", newOutput("b", 0))
	m.Add("orders", "a", newOutput("a", 2))
	m.AddAll("users", map[string]*PremiseOutput{"c": newOutput("c", 0)})
	return m
}

func TestManagerAccessors(t *testing.T) {
	m := newManager()
	assert.Equal(t, 3, m.Len())

	o, ok := m.Get("orders", "a")
	require.True(t, ok)
	assert.Equal(t, 2, o.FailedCount())

	_, ok = m.Get("orders", "zzz")
	assert.False(t, ok)
	assert.Len(t, m.Node("orders"), 2)
	assert.Equal(t, [][2]string{{"orders", "a"}}, m.Failed())
}

func TestFormatOutputs(t *testing.T) {
	m := newManager()

	formatted, err := m.FormatOutputs(nameFormatter{})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string][]byte{
		"orders": {"a": []byte("a"), "b": []byte("b")},
		"users":  {"c": []byte("c")},
	}, formatted)

	formatted, err = m.FormatOutputs(nameFormatter{fail: "b"})
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeData))
	assert.NotContains(t, formatted["orders"], "b")
	assert.Contains(t, formatted["orders"], "a")
}

func TestExportOutputs(t *testing.T) {
	m := newManager()
	e := &recordingExporter{fail: "c"}

	status, err := m.ExportOutputs(context.Background(), nameFormatter{}, e)
	require.Error(t, err)
	assert.Equal(t, map[string]map[string]bool{
		"orders": {"a": true, "b": true},
		"users":  {"c": false},
	}, status)
	assert.Equal(t, []string{"a", "b"}, e.delivered)
}

func TestExportOutputsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &recordingExporter{}
	status, err := newManager().ExportOutputs(ctx, nameFormatter{}, e)
	require.Error(t, err)
	assert.False(t, status["orders"]["a"])
	assert.Empty(t, e.delivered)
}
