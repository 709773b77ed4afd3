package formatters

import (
	"fmt"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/json"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// RSHConfig fills the Raft Suite Hub envelope fields that do not come from the output.
type RSHConfig struct {
	Project string `mapstructure:"project" yaml:"project"`
	Module  string `mapstructure:"module" yaml:"module"`
	Spec    string `mapstructure:"spec" yaml:"spec"`
	Deploy  string `mapstructure:"deploy" yaml:"deploy"`
}

// Validation codes.
const (
	RSHCodePassed = "00-00"
	RSHCodeFailed = "00-01"
)

// RSH renders the request body expected by a Raft Suite Hub cloud function.
type RSH struct {
	config RSHConfig
}

// NewRSH creates an RSH formatter. Module defaults to "pipeline-penguin".
func NewRSH(cfg RSHConfig) *RSH {
	if cfg.Module == "" {
		cfg.Module = "pipeline-penguin"
	}
	return &RSH{config: cfg}
}

// Name implements output.Formatter.
func (f *RSH) Name() string { return NameRSH }

// Format implements output.Formatter.
func (f *RSH) Format(o *output.PremiseOutput) ([]byte, error) {
	code := RSHCodePassed
	if !o.PassValidation() {
		code = RSHCodeFailed
	}

	premiseName := subjectName(o.Premise())
	description := fmt.Sprintf("Checking %s on column %s", premiseName, o.Column())
	if p := o.Premise(); p != nil {
		if check, ok := p.Serializable()["check"].(string); ok {
			description = fmt.Sprintf("Checking %s on column %s", check, o.Column())
		}
	}

	body := map[string]interface{}{
		"project":     f.config.Project,
		"module":      f.config.Module,
		"spec":        f.config.Spec,
		"deploy":      f.config.Deploy,
		"code":        code,
		"description": description,
		"payload": map[string]interface{}{
			"data_premise":    premiseName,
			"data_node":       subjectName(o.Node()),
			"column":          o.Column(),
			"pass_validation": o.PassValidation(),
			"failed_count":    o.FailedCount(),
			"failed_values":   o.FailedValues().Records(),
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "marshal rsh body")
	}
	return data, nil
}
