// Package query is a small structured SELECT builder. Expressions are trees of
// column references, literals and a fixed vocabulary of operators, rendered through
// a dialect so identifiers are quoted and values are escaped.
package query

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/penguin/pkg/dialect"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Op is a binary operator.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"

	OpLt  Op = "<"
	OpLte Op = "<="
	OpEq  Op = "="
	OpGte Op = ">="
	OpNe  Op = "!="
	OpNe2 Op = "<>"
)

var (
	arithmeticOps = map[Op]bool{OpAdd: true, OpSub: true, OpMul: true, OpDiv: true}
	comparisonOps = map[Op]bool{OpLt: true, OpLte: true, OpEq: true, OpGte: true, OpNe: true, OpNe2: true}
)

// IsArithmetic reports whether op is one of + - * /.
func IsArithmetic(op Op) bool { return arithmeticOps[op] }

// IsComparison reports whether op is one of < <= = >= != <>.
func IsComparison(op Op) bool { return comparisonOps[op] }

// Expr is a renderable SQL expression.
type Expr interface {
	Render(d *dialect.Dialect) (string, error)
}

type column string

// Col references a column by name.
func Col(name string) Expr { return column(name) }

func (c column) Render(d *dialect.Dialect) (string, error) {
	if c == "" {
		return "", errors.New(errors.ErrorTypeValidation, "column name is required")
	}
	return d.QuoteIdent(string(c)), nil
}

type literal struct{ v interface{} }

// Lit wraps a Go value as a SQL literal.
func Lit(v interface{}) Expr { return literal{v: v} }

func (l literal) Render(d *dialect.Dialect) (string, error) { return d.Literal(l.v) }

type star struct{}

// Star is the * in COUNT(*).
var Star Expr = star{}

func (star) Render(*dialect.Dialect) (string, error) { return "*", nil }

type binary struct {
	left  Expr
	op    Op
	right Expr
}

// Binary applies an arithmetic or comparison operator.
func Binary(left Expr, op Op, right Expr) Expr { return binary{left: left, op: op, right: right} }

func (b binary) Render(d *dialect.Dialect) (string, error) {
	if !IsArithmetic(b.op) && !IsComparison(b.op) {
		return "", errors.Newf(errors.ErrorTypeUnsupportedOperator, "operator %q is not supported", b.op)
	}
	l, err := b.left.Render(d)
	if err != nil {
		return "", err
	}
	r, err := b.right.Render(d)
	if err != nil {
		return "", err
	}
	if IsArithmetic(b.op) {
		return fmt.Sprintf("(%s %s %s)", l, b.op, r), nil
	}
	return fmt.Sprintf("%s %s %s", l, b.op, r), nil
}

type funcCall struct {
	name     string
	distinct bool
	arg      Expr
}

// Count renders COUNT(arg).
func Count(arg Expr) Expr { return funcCall{name: "COUNT", arg: arg} }

// CountDistinct renders COUNT(DISTINCT arg).
func CountDistinct(arg Expr) Expr { return funcCall{name: "COUNT", distinct: true, arg: arg} }

func (f funcCall) Render(d *dialect.Dialect) (string, error) {
	a, err := f.arg.Render(d)
	if err != nil {
		return "", err
	}
	if f.distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", f.name, a), nil
	}
	return fmt.Sprintf("%s(%s)", f.name, a), nil
}

type countIf struct{ pred Expr }

// CountIf counts rows where pred holds: COUNT(CASE WHEN pred THEN 1 END).
func CountIf(pred Expr) Expr { return countIf{pred: pred} }

func (c countIf) Render(d *dialect.Dialect) (string, error) {
	p, err := c.pred.Render(d)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("COUNT(CASE WHEN %s THEN 1 END)", p), nil
}

type isNull struct{ e Expr }

// IsNull renders e IS NULL.
func IsNull(e Expr) Expr { return isNull{e: e} }

func (n isNull) Render(d *dialect.Dialect) (string, error) {
	s, err := n.e.Render(d)
	if err != nil {
		return "", err
	}
	return s + " IS NULL", nil
}

type not struct{ e Expr }

// Not negates a predicate.
func Not(e Expr) Expr { return not{e: e} }

func (n not) Render(d *dialect.Dialect) (string, error) {
	s, err := n.e.Render(d)
	if err != nil {
		return "", err
	}
	return "NOT (" + s + ")", nil
}

type between struct{ e, lo, hi Expr }

// Between renders e BETWEEN lo AND hi.
func Between(e, lo, hi Expr) Expr { return between{e: e, lo: lo, hi: hi} }

func (b between) Render(d *dialect.Dialect) (string, error) {
	parts, err := renderAll(d, b.e, b.lo, b.hi)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s BETWEEN %s AND %s", parts[0], parts[1], parts[2]), nil
}

type in struct {
	e      Expr
	values []Expr
}

// In renders e IN (values...).
func In(e Expr, values ...Expr) Expr { return in{e: e, values: values} }

func (i in) Render(d *dialect.Dialect) (string, error) {
	if len(i.values) == 0 {
		return "", errors.New(errors.ErrorTypeValidation, "IN requires at least one value")
	}
	s, err := i.e.Render(d)
	if err != nil {
		return "", err
	}
	vals, err := renderAll(d, i.values...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s IN (%s)", s, strings.Join(vals, ", ")), nil
}

type like struct{ e, pattern Expr }

// Like renders e LIKE pattern.
func Like(e, pattern Expr) Expr { return like{e: e, pattern: pattern} }

func (l like) Render(d *dialect.Dialect) (string, error) {
	parts, err := renderAll(d, l.e, l.pattern)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s LIKE %s", parts[0], parts[1]), nil
}

type regexpContains struct{ e, pattern Expr }

// RegexpContains is true when e contains a match for pattern.
func RegexpContains(e, pattern Expr) Expr { return regexpContains{e: e, pattern: pattern} }

func (r regexpContains) Render(d *dialect.Dialect) (string, error) {
	parts, err := renderAll(d, r.e, r.pattern)
	if err != nil {
		return "", err
	}
	return d.Regexp(parts[0], parts[1]), nil
}

func renderAll(d *dialect.Dialect, exprs ...Expr) ([]string, error) {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := e.Render(d)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Field is one projected expression with an optional alias.
type Field struct {
	Expr  Expr
	Alias string
}

// As aliases an expression in the select list.
func As(e Expr, alias string) Field { return Field{Expr: e, Alias: alias} }

// Select is a single-table SELECT statement.
type Select struct {
	Fields []Field
	From   dialect.TableRef
	Where  Expr
}

// Render produces the SQL text for s in dialect d.
func (s Select) Render(d *dialect.Dialect) (string, error) {
	if d == nil {
		return "", errors.New(errors.ErrorTypeValidation, "dialect is required")
	}
	if len(s.Fields) == 0 {
		return "", errors.New(errors.ErrorTypeValidation, "select list is empty")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		expr, err := f.Expr.Render(d)
		if err != nil {
			return "", err
		}
		b.WriteString(expr)
		if f.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(d.QuoteIdent(f.Alias))
		}
	}

	from, err := d.QuoteTable(s.From)
	if err != nil {
		return "", err
	}
	b.WriteString(" FROM ")
	b.WriteString(from)

	if s.Where != nil {
		where, err := s.Where.Render(d)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	return b.String(), nil
}
