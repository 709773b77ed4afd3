// Package registry holds the default connector for every (kind, source) pair.
package registry

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
)

// Manager maps kind+source keys to default connectors. Safe for concurrent use.
type Manager struct {
	defaults map[string]core.Connector
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewManager creates an empty connector manager
func NewManager() *Manager {
	return &Manager{
		defaults: make(map[string]core.Connector),
		logger:   logger.Get().With(zap.String("component", "connector_manager")),
	}
}

// WithLogger replaces the manager logger
func (m *Manager) WithLogger(l *zap.Logger) *Manager {
	m.logger = l.With(zap.String("component", "connector_manager"))
	return m
}

// DefineDefault registers c as the default for its kind and source, replacing any previous default.
func (m *Manager) DefineDefault(c core.Connector) error {
	if isNil(c) {
		return errors.New(errors.ErrorTypeInvalidConnectorType, "default connector must be a connector instance")
	}
	key, err := core.KeyOf(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInvalidConnectorType, "connector does not declare a kind and source")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, replaced := m.defaults[key]
	m.defaults[key] = c
	m.logger.Info("default connector defined",
		zap.String("key", key),
		zap.Bool("replaced", replaced))
	return nil
}

// GetDefault returns the default connector for k, or nil when none is registered.
func (m *Manager) GetDefault(k core.Keyer) (core.Connector, error) {
	key, err := core.KeyOf(k)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults[key], nil
}

// Lookup returns the default connector registered for kind and source.
func (m *Manager) Lookup(kind core.Kind, source core.Source) (core.Connector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.defaults[core.Key(kind, source)]
	return c, ok
}

// RemoveDefault unregisters and returns the default for k, or nil when none was registered.
func (m *Manager) RemoveDefault(k core.Keyer) (core.Connector, error) {
	key, err := core.KeyOf(k)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.defaults[key]
	if !ok {
		return nil, nil
	}
	delete(m.defaults, key)
	m.logger.Info("default connector removed", zap.String("key", key))
	return prev, nil
}

// List returns the registered keys (sorted).
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.defaults))
	for k := range m.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset removes every registration.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = make(map[string]core.Connector)
}

func isNil(c core.Connector) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
