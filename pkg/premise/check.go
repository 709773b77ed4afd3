package premise

import (
	"github.com/ajitpratap0/penguin/pkg/dialect"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/query"
	"github.com/ajitpratap0/penguin/pkg/table"
)

// Check is the closed set of SQL validation rules. Every variant is handled by
// renderQuery and reduceResult.
type Check interface {
	// Type is the variant label used in serialized output and configuration.
	Type() string
	sealed()
}

// IsNullCheck fails for every row where the column is NULL.
type IsNullCheck struct{}

// DistinctCheck fails when the column holds duplicate non-null values.
type DistinctCheck struct{}

// ArithmeticCheck fails for rows where (column Operator Term) != Expected.
type ArithmeticCheck struct {
	Operator query.Op    `json:"operator" yaml:"operator"`
	Term     interface{} `json:"second_term" yaml:"second_term"`
	Expected interface{} `json:"expected_result" yaml:"expected_result"`
}

// BetweenCheck fails for non-null values outside [Lower, Upper].
type BetweenCheck struct {
	Lower interface{} `json:"lower_bound" yaml:"lower_bound"`
	Upper interface{} `json:"upper_bound" yaml:"upper_bound"`
}

// InArrayCheck fails for rows whose value is not one of Values.
type InArrayCheck struct {
	Values []interface{} `json:"array" yaml:"array"`
}

// LikePatternCheck fails for rows that do not match a LIKE pattern.
type LikePatternCheck struct {
	Pattern string `json:"pattern" yaml:"pattern"`
}

// RegexpContainsCheck fails for rows that contain no match for a regular expression.
type RegexpContainsCheck struct {
	Pattern string `json:"pattern" yaml:"pattern"`
}

// LogicalComparisonCheck fails for non-null values where NOT (column Operator Value).
type LogicalComparisonCheck struct {
	Operator query.Op    `json:"operator" yaml:"operator"`
	Value    interface{} `json:"value" yaml:"value"`
}

func (IsNullCheck) Type() string            { return "IsNull" }
func (DistinctCheck) Type() string          { return "Distinct" }
func (ArithmeticCheck) Type() string        { return "Arithmetic" }
func (BetweenCheck) Type() string           { return "Between" }
func (InArrayCheck) Type() string           { return "InArray" }
func (LikePatternCheck) Type() string       { return "LikePattern" }
func (RegexpContainsCheck) Type() string    { return "RegexpContains" }
func (LogicalComparisonCheck) Type() string { return "LogicalComparison" }

func (IsNullCheck) sealed()            {}
func (DistinctCheck) sealed()          {}
func (ArithmeticCheck) sealed()        {}
func (BetweenCheck) sealed()           {}
func (InArrayCheck) sealed()           {}
func (LikePatternCheck) sealed()       {}
func (RegexpContainsCheck) sealed()    {}
func (LogicalComparisonCheck) sealed() {}

// Result column aliases.
const (
	resultColumn = "result"
	totalColumn  = "total"
)

// validateCheck enforces construction-time rules such as operator whitelists.
func validateCheck(c Check) error {
	switch c := c.(type) {
	case IsNullCheck, DistinctCheck:
		return nil
	case ArithmeticCheck:
		if !query.IsArithmetic(c.Operator) {
			return errors.Newf(errors.ErrorTypeUnsupportedOperator,
				"operator %q not supported, supported operators: + - * /", c.Operator)
		}
		if c.Term == nil || c.Expected == nil {
			return errors.New(errors.ErrorTypeValidation, "arithmetic check needs a second term and an expected result")
		}
	case LogicalComparisonCheck:
		if !query.IsComparison(c.Operator) {
			return errors.Newf(errors.ErrorTypeUnsupportedOperator,
				"operator %q not supported, supported operators: < <= = >= != <>", c.Operator)
		}
		if c.Value == nil {
			return errors.New(errors.ErrorTypeValidation, "comparison check needs a value")
		}
	case BetweenCheck:
		if c.Lower == nil || c.Upper == nil {
			return errors.New(errors.ErrorTypeValidation, "between check needs both bounds")
		}
	case InArrayCheck:
		if len(c.Values) == 0 {
			return errors.New(errors.ErrorTypeValidation, "in-array check needs at least one value")
		}
	case LikePatternCheck:
		if c.Pattern == "" {
			return errors.New(errors.ErrorTypeValidation, "like check needs a pattern")
		}
	case RegexpContainsCheck:
		if c.Pattern == "" {
			return errors.New(errors.ErrorTypeValidation, "regexp check needs a pattern")
		}
	case nil:
		return errors.New(errors.ErrorTypeValidation, "check is required")
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown check %T", c)
	}
	return nil
}

// renderQuery builds the query for c over column of ref.
//
// IsNull selects the violating rows. Distinct, Between and LogicalComparison
// select a passing count ("result") next to a non-null count ("total"). The
// remaining checks count violating rows into "total".
func renderQuery(c Check, column string, ref dialect.TableRef) query.Select {
	col := query.Col(column)
	countViolations := func(pred query.Expr) query.Select {
		return query.Select{
			Fields: []query.Field{query.As(query.Count(query.Star), totalColumn)},
			From:   ref,
			Where:  query.Not(pred),
		}
	}
	ratio := func(result query.Expr) query.Select {
		return query.Select{
			Fields: []query.Field{
				query.As(result, resultColumn),
				query.As(query.Count(col), totalColumn),
			},
			From: ref,
		}
	}

	switch c := c.(type) {
	case IsNullCheck:
		return query.Select{Fields: []query.Field{{Expr: col}}, From: ref, Where: query.IsNull(col)}
	case DistinctCheck:
		return ratio(query.CountDistinct(col))
	case ArithmeticCheck:
		return countViolations(query.Binary(
			query.Binary(col, c.Operator, query.Lit(c.Term)),
			query.OpEq,
			query.Lit(c.Expected),
		))
	case BetweenCheck:
		return ratio(query.CountIf(query.Between(col, query.Lit(c.Lower), query.Lit(c.Upper))))
	case InArrayCheck:
		values := make([]query.Expr, len(c.Values))
		for i, v := range c.Values {
			values[i] = query.Lit(v)
		}
		return countViolations(query.In(col, values...))
	case LikePatternCheck:
		return countViolations(query.Like(col, query.Lit(c.Pattern)))
	case RegexpContainsCheck:
		return countViolations(query.RegexpContains(col, query.Lit(c.Pattern)))
	case LogicalComparisonCheck:
		return ratio(query.CountIf(query.Binary(col, c.Operator, query.Lit(c.Value))))
	default:
		panic("premise: unhandled check " + c.Type())
	}
}

// reduceResult turns a query result into the number of violations.
// An empty result has no violations.
func reduceResult(c Check, t *table.Table) (int, error) {
	switch c.(type) {
	case IsNullCheck:
		return t.Len(), nil
	case ArithmeticCheck, InArrayCheck, LikePatternCheck, RegexpContainsCheck:
		if t.Len() == 0 {
			return 0, nil
		}
		total, err := t.Int64(0, totalColumn)
		return int(total), err
	case DistinctCheck, BetweenCheck, LogicalComparisonCheck:
		if t.Len() == 0 {
			return 0, nil
		}
		result, err := t.Int64(0, resultColumn)
		if err != nil {
			return 0, err
		}
		total, err := t.Int64(0, totalColumn)
		if err != nil {
			return 0, err
		}
		return int(total - result), nil
	default:
		return 0, errors.Newf(errors.ErrorTypeValidation, "unknown check %T", c)
	}
}

// checkArgs lists the rule parameters of c for query_args.
func checkArgs(c Check) map[string]interface{} {
	switch c := c.(type) {
	case ArithmeticCheck:
		return map[string]interface{}{"operator": string(c.Operator), "second_term": c.Term, "expected_result": c.Expected}
	case BetweenCheck:
		return map[string]interface{}{"lower_bound": c.Lower, "upper_bound": c.Upper}
	case InArrayCheck:
		return map[string]interface{}{"array": append([]interface{}(nil), c.Values...)}
	case LikePatternCheck:
		return map[string]interface{}{"pattern": c.Pattern}
	case RegexpContainsCheck:
		return map[string]interface{}{"pattern": c.Pattern}
	case LogicalComparisonCheck:
		return map[string]interface{}{"operator": string(c.Operator), "value": c.Value}
	default:
		return map[string]interface{}{}
	}
}
