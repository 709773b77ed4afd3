package penguin

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/internal/runner"
	"github.com/ajitpratap0/penguin/pkg/config"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/connector/registry"
	"github.com/ajitpratap0/penguin/pkg/connector/sources"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/node"
	"github.com/ajitpratap0/penguin/pkg/observability"
	"github.com/ajitpratap0/penguin/pkg/output"
	"github.com/ajitpratap0/penguin/pkg/output/exporters"
	"github.com/ajitpratap0/penguin/pkg/output/formatters"
)

// Output pairs a formatter with the exporter that delivers its payloads.
type Output struct {
	Name      string
	Formatter output.Formatter
	Exporter  output.Exporter
}

// Penguin is the entry point: one node manager, one connector manager and the
// configured outputs.
type Penguin struct {
	connectors *registry.Manager
	nodes      *node.Manager

	mu      sync.Mutex
	outputs []Output
	owned   []core.Connector
	tracing bool
	logger  *zap.Logger
}

// Option configures a Penguin.
type Option func(*options)

type options struct {
	execution runner.Config
	logger    *zap.Logger
}

// WithExecution sets the premise execution policy.
func WithExecution(cfg runner.Config) Option {
	return func(o *options) { o.execution = cfg }
}

// WithLogger replaces the logger of the facade and its managers.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an empty Penguin.
func New(opts ...Option) *Penguin {
	o := options{logger: logger.Get()}
	for _, opt := range opts {
		opt(&o)
	}

	connectors := registry.NewManager().WithLogger(o.logger)
	return &Penguin{
		connectors: connectors,
		nodes:      node.NewManager(connectors, node.WithExecution(o.execution), node.WithLogger(o.logger)),
		logger:     o.logger.With(zap.String("component", "penguin")),
	}
}

// FromConfig validates cfg and builds connectors, nodes, premises, relations
// and outputs from it. Logging and tracing are initialized from cfg as well.
func FromConfig(ctx context.Context, cfg *config.Config) (*Penguin, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	if err := observability.Initialize(cfg.Tracing); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
	}

	p := New(WithExecution(cfg.Execution.Config))
	p.tracing = cfg.Tracing.Enabled

	conns, err := sources.Build(ctx, cfg.Connectors, cfg.Execution.DefaultMaxResults)
	if err != nil {
		return nil, multierr.Append(err, p.Close())
	}
	p.owned = conns
	for _, c := range conns {
		if err := p.connectors.DefineDefault(c); err != nil {
			return nil, multierr.Append(err, p.Close())
		}
	}

	if err := p.buildNodes(cfg.Nodes); err != nil {
		return nil, multierr.Append(err, p.Close())
	}
	for _, oc := range cfg.Outputs {
		if err := p.addConfiguredOutput(ctx, oc); err != nil {
			return nil, multierr.Append(err, p.Close())
		}
	}

	p.logger.Info("penguin configured",
		zap.Strings("connectors", p.connectors.List()),
		zap.Int("nodes", len(cfg.Nodes)),
		zap.Int("outputs", len(cfg.Outputs)))
	return p, nil
}

func (p *Penguin) buildNodes(nodes []config.NodeConfig) error {
	for _, nc := range nodes {
		n, err := p.nodes.CreateNode(nc.Name, nc.Type, nc.Args)
		if err != nil {
			return err
		}
		for _, pc := range nc.Premises {
			factory, err := pc.Factory()
			if err != nil {
				return err
			}
			if _, err := n.InsertPremise(pc.Name, factory); err != nil {
				return err
			}
		}
	}

	for _, nc := range nodes {
		src, _ := p.nodes.GetNode(nc.Name)
		for _, name := range nc.Relations {
			dst, ok := p.nodes.GetNode(name)
			if !ok {
				return errors.Newf(errors.ErrorTypeInvalidArguments, "relation to unknown node %q", name)
			}
			if err := src.AddRelation(dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Penguin) addConfiguredOutput(ctx context.Context, oc config.OutputConfig) error {
	f, err := formatters.New(oc.Formatter)
	if err != nil {
		return err
	}
	e, err := exporters.New(ctx, oc.Exporter)
	if err != nil {
		return err
	}
	name := oc.Name
	if name == "" {
		name = f.Name() + "_" + e.Name()
	}
	p.AddOutput(Output{Name: name, Formatter: f, Exporter: e})
	return nil
}

// Nodes returns the node manager.
func (p *Penguin) Nodes() *node.Manager { return p.nodes }

// Connectors returns the connector manager holding default connectors.
func (p *Penguin) Connectors() *registry.Manager { return p.connectors }

// AddOutput registers an output Run delivers to.
func (p *Penguin) AddOutput(o Output) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputs = append(p.outputs, o)
}

// Outputs returns the registered outputs.
func (p *Penguin) Outputs() []Output {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Output(nil), p.outputs...)
}

// RunPremises runs every premise of every node.
func (p *Penguin) RunPremises(ctx context.Context) (*output.Manager, error) {
	return p.nodes.RunPremises(ctx)
}

// Report holds the results of Run: the outputs and, per registered output
// name, the delivery status of every premise output.
type Report struct {
	Results  *output.Manager
	Delivery map[string]map[string]map[string]bool
}

// Run runs every premise and delivers the results to every registered output.
// Validation and delivery errors are combined; the report is always returned.
func (p *Penguin) Run(ctx context.Context) (*Report, error) {
	results, errs := p.RunPremises(ctx)
	report := &Report{Results: results, Delivery: make(map[string]map[string]map[string]bool)}

	for _, o := range p.Outputs() {
		status, err := results.ExportOutputs(ctx, o.Formatter, o.Exporter)
		report.Delivery[o.Name] = status
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, errors.ErrorTypeExport, "output delivery failed").
				WithDetail("output", o.Name))
		}
	}
	return report, errs
}

// Close releases the connectors and exporters built by FromConfig, flushes
// tracing and syncs the global logger.
func (p *Penguin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs error
	for _, c := range p.owned {
		if cl, ok := c.(sources.Closer); ok {
			errs = multierr.Append(errs, cl.Close())
		}
	}
	p.owned = nil
	for _, o := range p.outputs {
		if cl, ok := o.Exporter.(exporters.Closer); ok {
			errs = multierr.Append(errs, cl.Close())
		}
	}
	if p.tracing {
		errs = multierr.Append(errs, observability.Shutdown(context.Background()))
		p.tracing = false
	}
	// Sync of a console sink fails with EINVAL on some platforms.
	_ = logger.Sync()
	return errs
}
