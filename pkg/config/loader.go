package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "PENGUIN"

var validate = validator.New()

// Load reads a YAML configuration file, substitutes ${VAR} references, applies
// defaults and PENGUIN_ environment overrides. An empty path loads defaults and
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "unable to decode config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("execution.parallelism", d.Execution.Parallelism)
	v.SetDefault("execution.fail_fast", d.Execution.FailFast)
	v.SetDefault("execution.default_max_results", d.Execution.DefaultMaxResults)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sampling_rate", d.Tracing.SamplingRate)
	v.SetDefault("tracing.exporter", d.Tracing.ExporterType)
}

// Validate checks struct constraints and cross references: node names are
// unique, premise names are unique per node, checks parse, and relations name
// declared nodes.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		e := errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			e = e.WithDetail("fields", fields)
		}
		return e
	}

	nodes := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if nodes[n.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate node %q", n.Name)
		}
		nodes[n.Name] = true

		premises := make(map[string]bool, len(n.Premises))
		for _, p := range n.Premises {
			if premises[p.Name] {
				return errors.Newf(errors.ErrorTypeConfig, "duplicate premise %q", p.Name).
					WithDetail("node", n.Name)
			}
			premises[p.Name] = true
			if _, err := p.Factory(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, "invalid premise").
					WithDetail("node", n.Name).
					WithDetail("premise", p.Name)
			}
		}
	}

	for _, n := range c.Nodes {
		for _, dst := range n.Relations {
			if !nodes[dst] {
				return errors.Newf(errors.ErrorTypeConfig, "relation to undeclared node %q", dst).
					WithDetail("node", n.Name)
			}
		}
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Each reference is expanded once; references inside substituted values are
// kept as they are. A bare $ is left alone so regexp patterns survive.
func substituteEnvVars(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.IndexByte(content[start:], '}')
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
