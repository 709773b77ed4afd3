// Package node implements data nodes, the addressable tables premises validate,
// and the manager that creates, copies and runs them.
package node

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/internal/runner"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/connector/registry"
	"github.com/ajitpratap0/penguin/pkg/dialect"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/metrics"
	"github.com/ajitpratap0/penguin/pkg/output"
	"github.com/ajitpratap0/penguin/pkg/premise"
)

// Relation is a directed dependency from one node to another.
type Relation struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
}

// Location describes where a node's table lives and how to query it.
type Location struct {
	Type    string
	Source  core.Source
	Dialect *dialect.Dialect
	Table   dialect.TableRef
	// Kinds lists the accepted premise kinds. Empty means SQL only.
	Kinds []core.Kind
}

// DataNode is one table together with its premises and node-local connectors.
type DataNode struct {
	name     string
	location Location

	supported  map[core.Kind]bool
	premises   map[string]premise.Premise
	order      []string
	connectors map[core.Kind]core.Connector
	relations  []Relation

	defaults  *registry.Manager
	execution runner.Config

	mu     sync.RWMutex
	logger *zap.Logger
}

var _ premise.Node = (*DataNode)(nil)

// NewDataNode creates a node. defaults resolves connectors the node does not override
// and may be nil.
func NewDataNode(name string, loc Location, defaults *registry.Manager) (*DataNode, error) {
	if name == "" {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "node name is required")
	}
	if loc.Source == "" {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "node source is required").
			WithDetail("node", name)
	}
	if loc.Dialect == nil {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "node dialect is required").
			WithDetail("node", name)
	}
	kinds := loc.Kinds
	if len(kinds) == 0 {
		kinds = []core.Kind{core.KindSQL}
	}

	n := &DataNode{
		name:       name,
		location:   loc,
		supported:  make(map[core.Kind]bool, len(kinds)),
		premises:   make(map[string]premise.Premise),
		connectors: make(map[core.Kind]core.Connector),
		defaults:   defaults,
		logger:     logger.Get().With(zap.String("component", "data_node"), zap.String("node", name)),
	}
	for _, k := range kinds {
		n.supported[k] = true
	}
	return n, nil
}

// Name returns the node name.
func (n *DataNode) Name() string { return n.name }

// Type returns the node type the node was created as.
func (n *DataNode) Type() string { return n.location.Type }

// Source returns the warehouse the node lives in.
func (n *DataNode) Source() core.Source { return n.location.Source }

// Dialect returns the SQL dialect premises render with.
func (n *DataNode) Dialect() *dialect.Dialect { return n.location.Dialect }

// TableRef returns the node's table address.
func (n *DataNode) TableRef() dialect.TableRef { return n.location.Table }

// Supports reports whether premises of kind can be inserted.
func (n *DataNode) Supports(kind core.Kind) bool { return n.supported[kind] }

// SetExecution replaces the policy RunPremises uses.
func (n *DataNode) SetExecution(cfg runner.Config) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.execution = cfg
}

// InsertPremise builds a premise with factory and stores it under name,
// replacing any premise of the same name.
func (n *DataNode) InsertPremise(name string, factory premise.Factory) (premise.Premise, error) {
	if factory == nil {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "premise factory is required")
	}
	p, err := factory(name, n)
	if err != nil {
		return nil, err
	}
	if !n.supported[p.Kind()] {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedPremiseKind,
			"node %s does not accept %s premises", n.name, p.Kind()).
			WithDetail("premise", name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.premises[name]; !exists {
		n.order = append(n.order, name)
	}
	n.premises[name] = p
	return p, nil
}

// RemovePremise deletes the named premise and reports whether it existed.
func (n *DataNode) RemovePremise(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.premises[name]; !ok {
		return false
	}
	delete(n.premises, name)
	for i, existing := range n.order {
		if existing == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

// Premise returns the named premise.
func (n *DataNode) Premise(name string) (premise.Premise, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.premises[name]
	return p, ok
}

// Premises returns the premise names in insertion order.
func (n *DataNode) Premises() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.order...)
}

// SetConnector installs a node-local connector for kind. A nil connector
// removes the override.
func (n *DataNode) SetConnector(kind core.Kind, c core.Connector) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if c == nil {
		delete(n.connectors, kind)
		return
	}
	n.connectors[kind] = c
}

// GetConnector returns the node-local connector for kind, falling back to the
// default registered for kind and the node source.
func (n *DataNode) GetConnector(kind core.Kind) (core.Connector, error) {
	n.mu.RLock()
	c, ok := n.connectors[kind]
	n.mu.RUnlock()
	if ok {
		return c, nil
	}

	if n.defaults != nil {
		if c, ok := n.defaults.Lookup(kind, n.location.Source); ok {
			return c, nil
		}
	}
	return nil, errors.Newf(errors.ErrorTypeConnectorNotFound,
		"no %s connector for %s", kind, n.location.Source).
		WithDetail("node", n.name)
}

// AddRelation records that n feeds dst.
func (n *DataNode) AddRelation(dst *DataNode) error {
	if dst == nil {
		return errors.New(errors.ErrorTypeInvalidArguments, "relation destination is required")
	}
	if dst == n || dst.name == n.name {
		return errors.Newf(errors.ErrorTypeInvalidArguments, "node %s cannot relate to itself", n.name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range n.relations {
		if r.Destination == dst.name {
			return nil
		}
	}
	n.relations = append(n.relations, Relation{Source: n.name, Destination: dst.name})
	return nil
}

// Relations returns the node's outgoing relations.
func (n *DataNode) Relations() []Relation {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Relation(nil), n.relations...)
}

// RunPremises validates every premise and returns the outputs keyed by premise
// name. Premises whose validation errors produce no output; their errors are
// combined into the returned error unless the execution policy is fail-fast.
func (n *DataNode) RunPremises(ctx context.Context) (map[string]*output.PremiseOutput, error) {
	n.mu.RLock()
	names := append([]string(nil), n.order...)
	premises := make(map[string]premise.Premise, len(n.premises))
	for k, v := range n.premises {
		premises[k] = v
	}
	cfg := n.execution
	n.mu.RUnlock()

	log := logger.FromContext(ctx, n.logger)
	ctx = logger.ContextWithNode(ctx, n.name)

	var mu sync.Mutex
	outputs := make(map[string]*output.PremiseOutput, len(names))

	err := runner.New(cfg, log).Run(ctx, names, func(ctx context.Context, name string) error {
		out, err := premises[name].Validate(logger.ContextWithPremise(ctx, name))
		if err != nil {
			metrics.RecordValidation(n.name, name, metrics.StatusError)
			log.Error("premise validated",
				zap.String("premise", name),
				zap.String("status", metrics.StatusError),
				zap.Error(err))
			return annotate(err, n.name, name)
		}

		status := metrics.StatusPassed
		if !out.PassValidation() {
			status = metrics.StatusFailed
		}
		metrics.RecordValidation(n.name, name, status)
		metrics.RecordFailedValues(n.name, name, out.FailedCount())
		log.Info("premise validated",
			zap.String("premise", name),
			zap.String("status", status),
			zap.Int("failed_count", out.FailedCount()))

		mu.Lock()
		outputs[name] = out
		mu.Unlock()
		return nil
	})
	return outputs, err
}

// Clone returns an independent copy of n named name. Premises are re-bound to
// the copy; connector instances are shared.
func (n *DataNode) Clone(name string) (*DataNode, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c, err := NewDataNode(name, n.location, n.defaults)
	if err != nil {
		return nil, err
	}
	c.location.Kinds = append([]core.Kind(nil), n.location.Kinds...)
	c.execution = n.execution
	for k, v := range n.connectors {
		c.connectors[k] = v
	}
	for _, pname := range n.order {
		p, err := n.premises[pname].Bind(c)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "rebind premise").
				WithDetail("premise", pname)
		}
		c.premises[pname] = p
		c.order = append(c.order, pname)
	}
	for _, r := range n.relations {
		c.relations = append(c.relations, Relation{Source: name, Destination: r.Destination})
	}
	return c, nil
}

// Serializable returns a snapshot of the node.
func (n *DataNode) Serializable() map[string]interface{} {
	n.mu.RLock()
	defer n.mu.RUnlock()

	kinds := make([]string, 0, len(n.supported))
	for k := range n.supported {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	relations := make([]interface{}, len(n.relations))
	for i, r := range n.relations {
		relations[i] = r.Destination
	}

	ref := n.location.Table
	return map[string]interface{}{
		"name":                    n.name,
		"type":                    n.location.Type,
		"source":                  string(n.location.Source),
		"project":                 ref.Project,
		"dataset":                 ref.Dataset,
		"table":                   ref.Table,
		"premises":                append([]string(nil), n.order...),
		"supported_premise_kinds": kinds,
		"relations":               relations,
	}
}

// annotate wraps a validation error with its node and premise, keeping the error type.
func annotate(err error, node, premiseName string) error {
	errType := errors.ErrorTypeQuery
	if e, ok := err.(*errors.Error); ok {
		errType = e.Type
	}
	return errors.Wrap(err, errType, "premise "+premiseName+" failed").
		WithDetail("node", node).
		WithDetail("premise", premiseName)
}
