// Package testutil provides testing utilities for Penguin
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/table"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// MockConnector is a core.Connector returning canned tables.
//
// Responses are matched by exact query text first and fall back to Default.
// Every query is recorded in order.
type MockConnector struct {
	KindValue   core.Kind
	SourceValue core.Source

	// Default is returned for queries without a registered response.
	Default *table.Table
	// Err, when set, is returned by every Run call.
	Err error

	mu        sync.Mutex
	responses map[string]*table.Table
	queries   []string
}

// NewMockConnector creates a SQL connector mock for source answering every
// query with an empty table.
func NewMockConnector(source core.Source) *MockConnector {
	return &MockConnector{
		KindValue:   core.KindSQL,
		SourceValue: source,
		Default:     table.New(),
		responses:   make(map[string]*table.Table),
	}
}

// Kind implements core.Keyer.
func (m *MockConnector) Kind() core.Kind { return m.KindValue }

// Source implements core.Keyer.
func (m *MockConnector) Source() core.Source { return m.SourceValue }

// Respond registers the table returned for query.
func (m *MockConnector) Respond(query string, result *table.Table) *MockConnector {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[query] = result
	return m
}

// Run records query and returns the matching canned table.
func (m *MockConnector) Run(ctx context.Context, query string, opts ...core.RunOption) (*table.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	result, ok := m.responses[query]
	if !ok {
		result = m.Default
	}
	o := core.ApplyRunOptions(0, opts...)
	out := result.Clone()
	if o.MaxRows > 0 && out.Len() > o.MaxRows {
		out.Rows = out.Rows[:o.MaxRows]
	}
	return out, nil
}

// Queries returns the queries run so far.
func (m *MockConnector) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// CountTable is the single-row result of a ratio-style premise query.
func CountTable(result, total int64) *table.Table {
	return table.FromRecords([]string{"result", "total"}, []interface{}{result, total})
}

// TotalTable is the single-row result of a violation-count premise query.
func TotalTable(total int64) *table.Table {
	return table.FromRecords([]string{"total"}, []interface{}{total})
}
