package output

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/metrics"
)

// Formatter turns an output into a representation. Formatters are pure.
type Formatter interface {
	Name() string
	Format(o *PremiseOutput) ([]byte, error)
}

// Exporter delivers a formatted output somewhere and reports delivery, not validation.
type Exporter interface {
	Name() string
	Export(ctx context.Context, o *PremiseOutput, payload []byte) error
}

// Manager aggregates outputs keyed by node name then premise name. Safe for concurrent use.
type Manager struct {
	outputs map[string]map[string]*PremiseOutput
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewManager creates an empty output manager
func NewManager() *Manager {
	return &Manager{
		outputs: make(map[string]map[string]*PremiseOutput),
		logger:  logger.Get().With(zap.String("component", "output_manager")),
	}
}

// Add stores o under node and premise, replacing any previous output.
func (m *Manager) Add(node, premise string, o *PremiseOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outputs[node] == nil {
		m.outputs[node] = make(map[string]*PremiseOutput)
	}
	m.outputs[node][premise] = o
}

// AddAll stores every output of one node. The node is recorded even when outputs is empty.
func (m *Manager) AddAll(node string, outputs map[string]*PremiseOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outputs[node] == nil {
		m.outputs[node] = make(map[string]*PremiseOutput, len(outputs))
	}
	for premise, o := range outputs {
		m.outputs[node][premise] = o
	}
}

// Get returns the output for node and premise.
func (m *Manager) Get(node, premise string) (*PremiseOutput, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.outputs[node][premise]
	return o, ok
}

// Node returns a copy of the outputs of one node.
func (m *Manager) Node(node string) map[string]*PremiseOutput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*PremiseOutput, len(m.outputs[node]))
	for k, v := range m.outputs[node] {
		out[k] = v
	}
	return out
}

// Outputs returns a copy of every stored output.
func (m *Manager) Outputs() map[string]map[string]*PremiseOutput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]*PremiseOutput, len(m.outputs))
	for node, premises := range m.outputs {
		out[node] = make(map[string]*PremiseOutput, len(premises))
		for k, v := range premises {
			out[node][k] = v
		}
	}
	return out
}

// Len returns the number of stored outputs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, premises := range m.outputs {
		n += len(premises)
	}
	return n
}

// Failed returns node/premise pairs whose validation failed, sorted.
func (m *Manager) Failed() [][2]string {
	var failed [][2]string
	m.each(func(node, premise string, o *PremiseOutput) {
		if !o.PassValidation() {
			failed = append(failed, [2]string{node, premise})
		}
	})
	return failed
}

// FormatOutputs maps every output through f, preserving the node/premise shape.
// Outputs that fail to format are left out and their errors are combined.
func (m *Manager) FormatOutputs(f Formatter) (map[string]map[string][]byte, error) {
	result := make(map[string]map[string][]byte)
	var errs error

	m.each(func(node, premise string, o *PremiseOutput) {
		payload, err := f.Format(o)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, errors.ErrorTypeData, "failed to format output").
				WithDetail("node", node).
				WithDetail("premise", premise).
				WithDetail("formatter", f.Name()))
			return
		}
		if result[node] == nil {
			result[node] = make(map[string][]byte)
		}
		result[node][premise] = payload
	})
	return result, errs
}

// ExportOutputs formats and delivers every output, recording a delivery status per item.
// Failures are logged and reported through the status map; the error combines them.
func (m *Manager) ExportOutputs(ctx context.Context, f Formatter, e Exporter) (map[string]map[string]bool, error) {
	status := make(map[string]map[string]bool)
	var errs error

	m.each(func(node, premise string, o *PremiseOutput) {
		if status[node] == nil {
			status[node] = make(map[string]bool)
		}

		err := ctx.Err()
		if err == nil {
			var payload []byte
			payload, err = f.Format(o)
			if err == nil {
				err = e.Export(ctx, o, payload)
			}
		}
		metrics.RecordExport(e.Name(), err)

		if err != nil {
			m.logger.Warn("output export failed",
				zap.String("node", node),
				zap.String("premise", premise),
				zap.String("exporter", e.Name()),
				zap.Error(err))
			errs = multierr.Append(errs, errors.Wrap(err, errors.ErrorTypeExport, "failed to export output").
				WithDetail("node", node).
				WithDetail("premise", premise))
			status[node][premise] = false
			return
		}
		status[node][premise] = true
	})
	return status, errs
}

// each visits outputs in node then premise name order.
func (m *Manager) each(fn func(node, premise string, o *PremiseOutput)) {
	snapshot := m.Outputs()
	nodes := make([]string, 0, len(snapshot))
	for n := range snapshot {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, n := range nodes {
		premises := make([]string, 0, len(snapshot[n]))
		for p := range snapshot[n] {
			premises = append(premises, p)
		}
		sort.Strings(premises)
		for _, p := range premises {
			fn(n, p, snapshot[n][p])
		}
	}
}
