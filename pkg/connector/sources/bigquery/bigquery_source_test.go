package bigquery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	perrors "github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/table"
)

type fakeClient struct {
	result   *table.Table
	err      error
	estimate int64
	queries  []string
	maxRows  []int
	dryRuns  int
	closed   bool
}

func (f *fakeClient) Query(_ context.Context, sql string, maxRows int) (*table.Table, error) {
	f.queries = append(f.queries, sql)
	f.maxRows = append(f.maxRows, maxRows)
	return f.result, f.err
}

func (f *fakeClient) EstimateBytes(context.Context, string) (int64, error) {
	f.dryRuns++
	return f.estimate, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{
		CredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
		ProjectID:       "p",
	})
	require.Error(t, err)
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeCredentialNotFound))
}

func TestRunUsesDefaultRowCap(t *testing.T) {
	fc := &fakeClient{result: table.FromRecords([]string{"total"}, []interface{}{int64(0)})}
	c := NewWithClient(fc, Config{ProjectID: "p"})

	assert.Equal(t, core.KindSQL, c.Kind())
	assert.Equal(t, core.SourceBigQuery, c.Source())
	assert.Equal(t, 1000, c.MaxResults())

	tbl, err := c.Run(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []int{1000}, fc.maxRows)

	_, err = c.Run(context.Background(), "SELECT 1", core.WithMaxRows(5))
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 5}, fc.maxRows)
	assert.Zero(t, fc.dryRuns)

	require.NoError(t, c.Close())
	assert.True(t, fc.closed)
}

func TestRunWrapsQueryErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("Not found: Table p:d.t")}
	c := NewWithClient(fc, Config{ProjectID: "p", MaxResults: 10})

	_, err := c.Run(context.Background(), "SELECT 1")
	assert.True(t, perrors.IsType(err, perrors.ErrorTypeQuery))
}

func TestDryRunLimit(t *testing.T) {
	tests := []struct {
		name     string
		estimate int64
		wantErr  bool
	}{
		{name: "under limit", estimate: 1 << 20},
		{name: "over limit", estimate: 1 << 40, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{result: table.New(), estimate: tt.estimate}
			c := NewWithClient(fc, Config{ProjectID: "p", DryRunLimitBytes: 1 << 30})

			_, err := c.Run(context.Background(), "SELECT * FROM big")
			assert.Equal(t, 1, fc.dryRuns)
			if tt.wantErr {
				assert.True(t, perrors.IsType(err, perrors.ErrorTypeQuery))
				assert.Empty(t, fc.queries)
				return
			}
			require.NoError(t, err)
			assert.Len(t, fc.queries, 1)
		})
	}
}
