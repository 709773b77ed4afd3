// Package output holds premise results and applies formatters and exporters to them.
package output

import (
	"time"

	"github.com/ajitpratap0/penguin/pkg/table"
)

// Subject is a premise or node as seen by an output: a name plus a structural snapshot.
type Subject interface {
	Name() string
	Serializable() map[string]interface{}
}

// PremiseOutput is the immutable result of one premise validation.
type PremiseOutput struct {
	premise      Subject
	node         Subject
	column       string
	failedCount  int
	failedValues *table.Table
	runID        string
	validatedAt  time.Time
}

// Option sets optional PremiseOutput metadata.
type Option func(*PremiseOutput)

// WithRunID stamps the validation run that produced the output.
func WithRunID(id string) Option {
	return func(o *PremiseOutput) { o.runID = id }
}

// WithValidatedAt overrides the validation timestamp.
func WithValidatedAt(t time.Time) Option {
	return func(o *PremiseOutput) { o.validatedAt = t }
}

// NewPremiseOutput builds an output. The pass flag is derived from failedCount,
// and negative counts are clamped to zero.
func NewPremiseOutput(premise, node Subject, column string, failedCount int, failedValues *table.Table, opts ...Option) *PremiseOutput {
	if failedCount < 0 {
		failedCount = 0
	}
	if failedValues == nil {
		failedValues = table.New()
	}
	o := &PremiseOutput{
		premise:      premise,
		node:         node,
		column:       column,
		failedCount:  failedCount,
		failedValues: failedValues.Clone(),
		validatedAt:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Premise returns the premise that produced the output.
func (o *PremiseOutput) Premise() Subject { return o.premise }

// Node returns the node the premise ran against.
func (o *PremiseOutput) Node() Subject { return o.node }

// Column returns the validated column.
func (o *PremiseOutput) Column() string { return o.column }

// PassValidation reports whether no violations were found.
func (o *PremiseOutput) PassValidation() bool { return o.failedCount == 0 }

// FailedCount returns the number of violations.
func (o *PremiseOutput) FailedCount() int { return o.failedCount }

// FailedValues returns a copy of the diagnostic rows.
func (o *PremiseOutput) FailedValues() *table.Table { return o.failedValues.Clone() }

// RunID returns the validation run ID, if any.
func (o *PremiseOutput) RunID() string { return o.runID }

// ValidatedAt returns when the output was produced.
func (o *PremiseOutput) ValidatedAt() time.Time { return o.validatedAt }

// Serializable returns a structural snapshot with JSON-native values.
func (o *PremiseOutput) Serializable() map[string]interface{} {
	out := map[string]interface{}{
		"pass_validation": o.PassValidation(),
		"failed_count":    o.failedCount,
		"failed_values":   o.failedValues.Records(),
		"column":          o.column,
		"data_premise":    snapshot(o.premise),
		"data_node":       snapshot(o.node),
		"validated_at":    o.validatedAt.Format(time.RFC3339Nano),
	}
	if o.runID != "" {
		out["run_id"] = o.runID
	}
	return out
}

func snapshot(s Subject) map[string]interface{} {
	if s == nil {
		return map[string]interface{}{}
	}
	return s.Serializable()
}
