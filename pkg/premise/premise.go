// Package premise implements validation rules bound to a column of a data node.
//
// A premise renders one query through its node's dialect, runs it on the
// connector the node resolves for the premise kind, and reduces the result
// into an output.PremiseOutput.
//
// # Basic Usage
//
//	p, err := premise.New("id_not_null", node, "id", premise.IsNullCheck{})
//	if err != nil {
//	    return err
//	}
//	out, err := p.Validate(ctx)
package premise

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/dialect"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/logger"
	"github.com/ajitpratap0/penguin/pkg/observability"
	"github.com/ajitpratap0/penguin/pkg/output"
	"github.com/ajitpratap0/penguin/pkg/query"
)

// Node is the view a premise has of its owning data node.
type Node interface {
	Name() string
	Source() core.Source
	Dialect() *dialect.Dialect
	TableRef() dialect.TableRef
	GetConnector(kind core.Kind) (core.Connector, error)
	Serializable() map[string]interface{}
}

// Premise is a single validation rule bound to a node and column.
type Premise interface {
	Name() string
	Kind() core.Kind
	Column() string
	Node() Node
	Check() Check
	// QueryArgs returns the location and rule parameters the query is built from.
	QueryArgs() map[string]interface{}
	// Query returns the rendered query text.
	Query() string
	Validate(ctx context.Context) (*output.PremiseOutput, error)
	Serializable() map[string]interface{}
	// Bind returns a copy of the premise owned by node.
	Bind(node Node) (Premise, error)
}

// Factory builds a premise named name for node.
type Factory func(name string, node Node) (Premise, error)

// SQLPremise is a premise executed as one SQL query.
type SQLPremise struct {
	name   string
	node   Node
	column string
	check  Check
	query  string
}

var _ Premise = (*SQLPremise)(nil)

// New validates check and renders its query for node. Operator and parameter
// errors surface here, never from Validate.
func New(name string, node Node, column string, check Check) (*SQLPremise, error) {
	if name == "" {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "premise name is required")
	}
	if node == nil {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "premise node is required")
	}
	if column == "" {
		return nil, errors.New(errors.ErrorTypeInvalidArguments, "premise column is required").
			WithDetail("premise", name)
	}
	if err := validateCheck(check); err != nil {
		return nil, err
	}

	p := &SQLPremise{name: name, node: node, column: column, check: check}
	if err := p.render(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *SQLPremise) render() error {
	d := p.node.Dialect()
	if d == nil {
		return errors.Newf(errors.ErrorTypeConfig, "node %s has no SQL dialect", p.node.Name())
	}
	q, err := renderQuery(p.check, p.column, p.node.TableRef()).Render(d)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "render premise query").
			WithDetail("premise", p.name)
	}
	p.query = q
	return nil
}

// Name returns the premise name.
func (p *SQLPremise) Name() string { return p.name }

// Kind is always core.KindSQL.
func (p *SQLPremise) Kind() core.Kind { return core.KindSQL }

// Column returns the validated column.
func (p *SQLPremise) Column() string { return p.column }

// Node returns the owning node.
func (p *SQLPremise) Node() Node { return p.node }

// Check returns the rule.
func (p *SQLPremise) Check() Check { return p.check }

// Query returns the rendered SQL.
func (p *SQLPremise) Query() string { return p.query }

// QueryArgs returns the table location, the column and the rule parameters.
func (p *SQLPremise) QueryArgs() map[string]interface{} {
	ref := p.node.TableRef()
	args := checkArgs(p.check)
	args["project"] = ref.Project
	args["dataset"] = ref.Dataset
	args["table"] = ref.Table
	args["column"] = p.column
	return args
}

// Validate runs the premise query and reduces the result.
func (p *SQLPremise) Validate(ctx context.Context) (*output.PremiseOutput, error) {
	var out *output.PremiseOutput
	attrs := map[string]interface{}{
		"premise": p.name,
		"node":    p.node.Name(),
		"check":   p.check.Type(),
	}
	err := observability.Trace(ctx, "premise.validate", attrs, func(ctx context.Context) error {
		log := logger.WithContext(ctx)
		conn, err := p.node.GetConnector(p.Kind())
		if err != nil {
			log.Debug("no connector for premise", zap.String("kind", string(p.Kind())), zap.Error(err))
			return err
		}
		log.Debug("running premise query", zap.String("check", p.check.Type()), zap.String("query", p.query))

		result, err := conn.Run(ctx, p.query)
		if err != nil {
			if _, ok := err.(*errors.Error); ok {
				return err
			}
			return errors.Wrap(err, errors.ErrorTypeQuery, "premise query failed").
				WithDetail("premise", p.name)
		}

		failed, err := reduceResult(p.check, result)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "reduce premise result").
				WithDetail("premise", p.name)
		}
		out = output.NewPremiseOutput(p, p.node, p.column, failed, result,
			output.WithRunID(logger.RunID(ctx)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Bind returns a copy of p owned by node, with the query re-rendered for it.
func (p *SQLPremise) Bind(node Node) (Premise, error) {
	return build(p.name, node, p.column, p.check)
}

// Serializable returns a snapshot of the premise.
func (p *SQLPremise) Serializable() map[string]interface{} {
	return map[string]interface{}{
		"name":       p.name,
		"type":       string(p.Kind()),
		"check":      p.check.Type(),
		"column":     p.column,
		"query_args": p.QueryArgs(),
		"query":      p.query,
	}
}

// IsNull fails for NULL values of column.
func IsNull(column string) Factory {
	return FromCheck(column, IsNullCheck{})
}

// Distinct fails for duplicated values of column.
func Distinct(column string) Factory {
	return FromCheck(column, DistinctCheck{})
}

// Arithmetic fails where (column op term) != expected.
func Arithmetic(column, op string, term, expected interface{}) Factory {
	return FromCheck(column, ArithmeticCheck{Operator: query.Op(op), Term: term, Expected: expected})
}

// Between fails for values outside [lower, upper].
func Between(column string, lower, upper interface{}) Factory {
	return FromCheck(column, BetweenCheck{Lower: lower, Upper: upper})
}

// InArray fails for values not in values.
func InArray(column string, values ...interface{}) Factory {
	return FromCheck(column, InArrayCheck{Values: values})
}

// LikePattern fails for values not matching a LIKE pattern.
func LikePattern(column, pattern string) Factory {
	return FromCheck(column, LikePatternCheck{Pattern: pattern})
}

// RegexpContains fails for values without a regexp match.
func RegexpContains(column, pattern string) Factory {
	return FromCheck(column, RegexpContainsCheck{Pattern: pattern})
}

// LogicalComparison fails where NOT (column op value).
func LogicalComparison(column, op string, value interface{}) Factory {
	return FromCheck(column, LogicalComparisonCheck{Operator: query.Op(op), Value: value})
}

// FromCheck wraps an already parsed check into a factory.
func FromCheck(column string, check Check) Factory {
	return func(name string, node Node) (Premise, error) {
		return build(name, node, column, check)
	}
}

// build keeps a failed New from leaking a typed nil into the Premise interface.
func build(name string, node Node, column string, check Check) (Premise, error) {
	p, err := New(name, node, column, check)
	if err != nil {
		return nil, err
	}
	return p, nil
}
