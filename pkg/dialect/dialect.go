// Package dialect renders identifiers, literals and dialect-specific predicates
// for the SQL warehouses premises run against.
package dialect

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Names of the built-in dialects.
const (
	BigQuery  = "bigquery"
	Postgres  = "postgres"
	MySQL     = "mysql"
	Snowflake = "snowflake"
)

// TableRef addresses a table. Empty parts are omitted when rendered.
type TableRef struct {
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	Dataset string `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Table   string `json:"table" yaml:"table"`
}

// String returns the dotted, unquoted form project.dataset.table.
func (r TableRef) String() string {
	return strings.Join(r.parts(), ".")
}

func (r TableRef) parts() []string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Project, r.Dataset, r.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// plainIdent matches identifiers a warehouse accepts unquoted.
var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Dialect knows how one warehouse spells identifiers, literals and regexps.
type Dialect struct {
	Name string

	quote            string
	backslashEscapes bool
	upperIdents      bool
	regexp           func(expr, pattern string) string
	timestamp        func(t time.Time) string
}

// QuoteIdent quotes a single identifier, doubling any embedded quote character.
// Dialects that fold unquoted names to upper case get plain identifiers upper
// cased first, so "orders" addresses the same object as an unquoted orders.
func (d *Dialect) QuoteIdent(name string) string {
	if d.upperIdents && plainIdent.MatchString(name) {
		name = strings.ToUpper(name)
	}
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

// QuoteTable quotes every part of ref and joins them with dots.
func (d *Dialect) QuoteTable(ref TableRef) (string, error) {
	if ref.Table == "" {
		return "", errors.New(errors.ErrorTypeValidation, "table name is required")
	}
	parts := ref.parts()
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, "."), nil
}

// Literal renders v as a SQL literal.
func (d *Dialect) Literal(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return d.quoteString(x), nil
	case []byte:
		return d.quoteString(string(x)), nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return d.timestamp(x), nil
	default:
		return "", errors.Newf(errors.ErrorTypeValidation, "unsupported literal type %T", v)
	}
}

// Regexp renders a predicate that is true when expr contains a match for pattern.
// Both arguments are already rendered SQL.
func (d *Dialect) Regexp(expr, pattern string) string {
	return d.regexp(expr, pattern)
}

func (d *Dialect) quoteString(s string) string {
	if d.backslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
		if d.Name == BigQuery {
			s = strings.ReplaceAll(s, `'`, `\'`)
			return "'" + s + "'"
		}
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func timestampLiteral(t time.Time) string {
	return fmt.Sprintf("TIMESTAMP '%s'", t.UTC().Format("2006-01-02 15:04:05.999999"))
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// Get returns a dialect by name.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// MustGet returns a dialect by name and panics when it is not registered.
func MustGet(name string) *Dialect {
	d, ok := Get(name)
	if !ok {
		panic(fmt.Sprintf("dialect %q is not registered", name))
	}
	return d
}

// Register adds a dialect to the registry, replacing any dialect with the same name.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&Dialect{
		Name:             BigQuery,
		quote:            "`",
		backslashEscapes: true,
		regexp: func(expr, pattern string) string {
			return fmt.Sprintf("REGEXP_CONTAINS(%s, %s)", expr, pattern)
		},
		timestamp: timestampLiteral,
	})
	Register(&Dialect{
		Name:  Postgres,
		quote: `"`,
		regexp: func(expr, pattern string) string {
			return fmt.Sprintf("%s ~ %s", expr, pattern)
		},
		timestamp: timestampLiteral,
	})
	Register(&Dialect{
		Name:             MySQL,
		quote:            "`",
		backslashEscapes: true,
		regexp: func(expr, pattern string) string {
			return fmt.Sprintf("%s REGEXP %s", expr, pattern)
		},
		timestamp: timestampLiteral,
	})
	Register(&Dialect{
		Name:             Snowflake,
		quote:            `"`,
		backslashEscapes: true,
		upperIdents:      true,
		regexp: func(expr, pattern string) string {
			return fmt.Sprintf("REGEXP_INSTR(%s, %s) > 0", expr, pattern)
		},
		timestamp: func(t time.Time) string {
			return fmt.Sprintf("'%s'::TIMESTAMP_NTZ", t.UTC().Format("2006-01-02 15:04:05.999999"))
		},
	})
}
