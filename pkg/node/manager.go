package node

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/internal/runner"
	"github.com/ajitpratap0/penguin/pkg/connector/registry"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// Manager owns the named data nodes of one validation setup. Safe for concurrent use.
type Manager struct {
	nodes      map[string]*DataNode
	order      []string
	types      map[string]Constructor
	connectors *registry.Manager
	execution  runner.Config

	mu     sync.RWMutex
	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecution sets the policy nodes run their premises with.
func WithExecution(cfg runner.Config) Option {
	return func(m *Manager) { m.execution = cfg }
}

// WithLogger replaces the manager logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l.With(zap.String("component", "node_manager")) }
}

// NewManager creates a node manager resolving default connectors through connectors.
func NewManager(connectors *registry.Manager, opts ...Option) *Manager {
	m := &Manager{
		nodes:      make(map[string]*DataNode),
		types:      builtinTypes(),
		connectors: connectors,
		logger:     logger.Get().With(zap.String("component", "node_manager")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterType adds or replaces a node type.
func (m *Manager) RegisterType(name string, c Constructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[normalizeType(name)] = c
}

// Types returns the registered node type names (sorted).
func (m *Manager) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedTypes(m.types)
}

// CreateNode builds a node of nodeType from args and registers it under name,
// replacing any node of the same name.
func (m *Manager) CreateNode(name, nodeType string, args map[string]interface{}) (*DataNode, error) {
	m.mu.RLock()
	construct, ok := m.types[normalizeType(nodeType)]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotANodeType, "%q is not a node type", nodeType).
			WithDetail("supported", m.Types())
	}

	loc, err := construct(args)
	if err != nil {
		return nil, err
	}
	n, err := NewDataNode(name, loc, m.connectors)
	if err != nil {
		return nil, err
	}
	n.execution = m.execution

	m.register(n)
	m.logger.Info("node created",
		zap.String("node", name),
		zap.String("type", loc.Type),
		zap.String("table", loc.Table.String()))
	return n, nil
}

func (m *Manager) register(n *DataNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.nodes[n.name]; !exists {
		m.order = append(m.order, n.name)
	}
	m.nodes[n.name] = n
}

// GetNode returns the named node.
func (m *Manager) GetNode(name string) (*DataNode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[name]
	return n, ok
}

// ListNodes returns node names in creation order and logs each one.
func (m *Manager) ListNodes() []string {
	m.mu.RLock()
	names := append([]string(nil), m.order...)
	m.mu.RUnlock()

	for _, name := range names {
		m.logger.Info("node", zap.String("node", name))
	}
	return names
}

// RemoveNode unregisters the named node and reports whether it existed.
func (m *Manager) RemoveNode(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[name]; !ok {
		return false
	}
	delete(m.nodes, name)
	for i, existing := range m.order {
		if existing == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// CopyNode deep-copies the named node under newName. It returns nil when no
// node is registered as name.
func (m *Manager) CopyNode(name, newName string) (*DataNode, error) {
	n, ok := m.GetNode(name)
	if !ok {
		return nil, nil
	}
	return m.CopyNodeFrom(n, newName)
}

// CopyNodeFrom deep-copies n under newName and registers the copy. It returns
// nil when n is nil.
func (m *Manager) CopyNodeFrom(n *DataNode, newName string) (*DataNode, error) {
	if n == nil {
		return nil, nil
	}
	c, err := n.Clone(newName)
	if err != nil {
		return nil, err
	}
	m.register(c)
	m.logger.Info("node copied", zap.String("from", n.name), zap.String("node", newName))
	return c, nil
}

// RunPremises runs every node in creation order and collects the outputs. Each
// output carries the same generated run ID. The returned manager holds every
// successful output even when err is non-nil.
func (m *Manager) RunPremises(ctx context.Context) (*output.Manager, error) {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)

	m.mu.RLock()
	nodes := make([]*DataNode, 0, len(m.order))
	for _, name := range m.order {
		nodes = append(nodes, m.nodes[name])
	}
	failFast := m.execution.FailFast
	m.mu.RUnlock()

	results := output.NewManager()
	var errs error
	for _, n := range nodes {
		outputs, err := n.RunPremises(ctx)
		results.AddAll(n.name, outputs)
		if err != nil {
			errs = multierr.Append(errs, err)
			if failFast {
				break
			}
		}
	}

	m.logger.Info("validation run finished",
		zap.String("run_id", runID),
		zap.Int("nodes", len(nodes)),
		zap.Int("outputs", results.Len()),
		zap.Int("failed", len(results.Failed())),
		zap.Int("errors", len(multierr.Errors(errs))))
	return results, errs
}

// Reset removes every node.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[string]*DataNode)
	m.order = nil
}
