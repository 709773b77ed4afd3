package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/table"
)

type fakeConnector struct {
	kind   core.Kind
	source core.Source
}

func (f *fakeConnector) Kind() core.Kind     { return f.kind }
func (f *fakeConnector) Source() core.Source { return f.source }
func (f *fakeConnector) Run(context.Context, string, ...core.RunOption) (*table.Table, error) {
	return table.New(), nil
}

func newManager(t *testing.T) *Manager {
	return NewManager().WithLogger(zaptest.NewLogger(t))
}

func TestDefineThenGet(t *testing.T) {
	m := newManager(t)
	bq := &fakeConnector{kind: core.KindSQL, source: core.SourceBigQuery}
	pg := &fakeConnector{kind: core.KindSQL, source: core.SourcePostgres}

	require.NoError(t, m.DefineDefault(bq))
	require.NoError(t, m.DefineDefault(pg))

	got, err := m.GetDefault(core.Describe(core.KindSQL, core.SourceBigQuery))
	require.NoError(t, err)
	assert.Same(t, bq, got)

	got, err = m.GetDefault(pg)
	require.NoError(t, err)
	assert.Same(t, pg, got)

	assert.Equal(t, []string{"SQLBigQuery", "SQLPostgreSQL"}, m.List())
}

func TestDefineOverwrites(t *testing.T) {
	m := newManager(t)
	first := &fakeConnector{kind: core.KindSQL, source: core.SourceBigQuery}
	second := &fakeConnector{kind: core.KindSQL, source: core.SourceBigQuery}

	require.NoError(t, m.DefineDefault(first))
	require.NoError(t, m.DefineDefault(second))

	got, ok := m.Lookup(core.KindSQL, core.SourceBigQuery)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, m.List(), 1)
}

func TestRemoveDefault(t *testing.T) {
	m := newManager(t)
	bq := &fakeConnector{kind: core.KindSQL, source: core.SourceBigQuery}
	require.NoError(t, m.DefineDefault(bq))

	prev, err := m.RemoveDefault(core.Describe(core.KindSQL, core.SourceBigQuery))
	require.NoError(t, err)
	assert.Same(t, bq, prev)

	got, err := m.GetDefault(bq)
	require.NoError(t, err)
	assert.Nil(t, got)

	prev, err = m.RemoveDefault(bq)
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestInvalidInputs(t *testing.T) {
	m := newManager(t)

	var nilConn *fakeConnector
	err := m.DefineDefault(nilConn)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidConnectorType))

	err = m.DefineDefault(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidConnectorType))

	err = m.DefineDefault(&fakeConnector{kind: core.KindSQL})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidConnectorType))

	_, err = m.GetDefault(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArguments))

	_, err = m.RemoveDefault(core.Describe("", core.SourceMySQL))
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArguments))
}

func TestReset(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.DefineDefault(&fakeConnector{kind: core.KindSQL, source: core.SourceMySQL}))
	m.Reset()
	assert.Empty(t, m.List())
}
