// Package table holds the tabular result returned by connectors.
package table

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Type is the logical type of a column.
type Type string

const (
	TypeString    Type = "STRING"
	TypeInteger   Type = "INTEGER"
	TypeFloat     Type = "FLOAT"
	TypeBoolean   Type = "BOOLEAN"
	TypeTimestamp Type = "TIMESTAMP"
	TypeUnknown   Type = "UNKNOWN"
)

// Column describes one named result column.
type Column struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Table is a row/column result with named columns and typed cells.
// Cells hold string, int64, float64, bool, time.Time or nil.
type Table struct {
	Columns []Column
	Rows    [][]interface{}
	index   map[string]int
}

// New creates an empty table with the given columns.
func New(columns ...Column) *Table {
	t := &Table{Columns: columns}
	t.reindex()
	return t
}

// FromRecords builds a table from named columns and row values, normalising every cell.
func FromRecords(columns []string, rows ...[]interface{}) *Table {
	cols := make([]Column, len(columns))
	for i, name := range columns {
		cols[i] = Column{Name: name, Type: TypeUnknown}
	}
	t := New(cols...)
	for _, r := range rows {
		_ = t.Append(r...)
	}
	t.InferTypes()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c.Name] = i
	}
}

// InferTypes sets every TypeUnknown column to the type of its first non-null cell.
func (t *Table) InferTypes() {
	for i := range t.Columns {
		if t.Columns[i].Type != TypeUnknown {
			continue
		}
		for _, row := range t.Rows {
			if typ := typeOf(row[i]); typ != TypeUnknown {
				t.Columns[i].Type = typ
				break
			}
		}
	}
}

// Append adds one row. The number of values must match the number of columns.
func (t *Table) Append(values ...interface{}) error {
	if len(values) != len(t.Columns) {
		return errors.Newf(errors.ErrorTypeData, "row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = Normalize(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Value returns the cell at row for the named column. An exact name match wins;
// otherwise names are compared case-insensitively (Snowflake returns RESULT for result).
func (t *Table) Value(row int, column string) (interface{}, bool) {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[column]
	if !ok {
		for j, c := range t.Columns {
			if strings.EqualFold(c.Name, column) {
				i, ok = j, true
				break
			}
		}
	}
	if !ok {
		return nil, false
	}
	return t.Rows[row][i], true
}

// Int64 returns the cell at row for the named column coerced to an integer.
func (t *Table) Int64(row int, column string) (int64, error) {
	v, ok := t.Value(row, column)
	if !ok {
		return 0, errors.Newf(errors.ErrorTypeData, "column %q not found in row %d", column, row)
	}
	return ToInt64(v)
}

// Records returns the rows as column-name keyed maps with JSON-native cell values.
func (t *Table) Records() []map[string]interface{} {
	if t == nil {
		return []map[string]interface{}{}
	}
	out := make([]map[string]interface{}, len(t.Rows))
	for r, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			rec[c.Name] = JSONValue(row[i])
		}
		out[r] = rec
	}
	return out
}

// Clone returns a copy sharing no row storage with t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := New(append([]Column(nil), t.Columns...)...)
	c.Rows = make([][]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]interface{}(nil), row...)
	}
	return c
}

// Normalize converts driver values into the cell types a Table holds.
func Normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return x
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case *big.Rat:
		f, _ := x.Float64()
		return f
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// JSONValue coerces a cell into a value that encodes as a native JSON type.
func JSONValue(v interface{}) interface{} {
	switch x := Normalize(v).(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return x
	}
}

// ToInt64 coerces numeric-looking cells to int64.
func ToInt64(v interface{}) (int64, error) {
	switch x := Normalize(v).(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(x, 64)
			if ferr != nil {
				return 0, errors.Wrap(err, errors.ErrorTypeData, "cell is not numeric")
			}
			return int64(f), nil
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeData, "cannot convert %T to integer", x)
	}
}

func typeOf(v interface{}) Type {
	switch v.(type) {
	case string:
		return TypeString
	case int64:
		return TypeInteger
	case float64:
		return TypeFloat
	case bool:
		return TypeBoolean
	case time.Time:
		return TypeTimestamp
	default:
		return TypeUnknown
	}
}
