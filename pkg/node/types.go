package node

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/dialect"
	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Node type names.
const (
	TypeBigQuery  = "bigquery"
	TypePostgres  = "postgres"
	TypeMySQL     = "mysql"
	TypeSnowflake = "snowflake"
)

// Constructor turns constructor arguments into a node location.
type Constructor func(args map[string]interface{}) (Location, error)

// BigQueryArgs address a BigQuery table.
type BigQueryArgs struct {
	ProjectID string `mapstructure:"project_id" validate:"required"`
	DatasetID string `mapstructure:"dataset_id" validate:"required"`
	TableID   string `mapstructure:"table_id" validate:"required"`
}

// PostgresArgs address a PostgreSQL table. The database is the one the
// connector's DSN opens, so a database argument is rejected.
type PostgresArgs struct {
	Schema string `mapstructure:"schema" validate:"required"`
	Table  string `mapstructure:"table" validate:"required"`
}

// SchemaTableArgs address a Snowflake table, optionally in another database.
type SchemaTableArgs struct {
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema" validate:"required"`
	Table    string `mapstructure:"table" validate:"required"`
}

// MySQLArgs address a MySQL table.
type MySQLArgs struct {
	Database string `mapstructure:"database" validate:"required"`
	Table    string `mapstructure:"table" validate:"required"`
}

var validate = validator.New()

// decodeArgs decodes args into target and validates it. Unknown keys and
// missing required fields are MissingConstructorArgs errors.
func decodeArgs(nodeType string, args map[string]interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "create argument decoder")
	}
	if err := decoder.Decode(args); err != nil {
		return errors.Wrap(err, errors.ErrorTypeMissingConstructorArgs, "invalid "+nodeType+" node arguments")
	}
	if err := validate.Struct(target); err != nil {
		var missing []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
		}
		return errors.Wrap(err, errors.ErrorTypeMissingConstructorArgs, "missing "+nodeType+" node arguments").
			WithDetail("fields", missing)
	}
	return nil
}

func bigQueryLocation(args map[string]interface{}) (Location, error) {
	var a BigQueryArgs
	if err := decodeArgs(TypeBigQuery, args, &a); err != nil {
		return Location{}, err
	}
	return Location{
		Type:    TypeBigQuery,
		Source:  core.SourceBigQuery,
		Dialect: dialect.MustGet(dialect.BigQuery),
		Table:   dialect.TableRef{Project: a.ProjectID, Dataset: a.DatasetID, Table: a.TableID},
	}, nil
}

func postgresLocation(args map[string]interface{}) (Location, error) {
	var a PostgresArgs
	if err := decodeArgs(TypePostgres, args, &a); err != nil {
		return Location{}, err
	}
	return Location{
		Type:    TypePostgres,
		Source:  core.SourcePostgres,
		Dialect: dialect.MustGet(dialect.Postgres),
		Table:   dialect.TableRef{Dataset: a.Schema, Table: a.Table},
	}, nil
}

func mysqlLocation(args map[string]interface{}) (Location, error) {
	var a MySQLArgs
	if err := decodeArgs(TypeMySQL, args, &a); err != nil {
		return Location{}, err
	}
	return Location{
		Type:    TypeMySQL,
		Source:  core.SourceMySQL,
		Dialect: dialect.MustGet(dialect.MySQL),
		Table:   dialect.TableRef{Dataset: a.Database, Table: a.Table},
	}, nil
}

func snowflakeLocation(args map[string]interface{}) (Location, error) {
	var a SchemaTableArgs
	if err := decodeArgs(TypeSnowflake, args, &a); err != nil {
		return Location{}, err
	}
	return Location{
		Type:    TypeSnowflake,
		Source:  core.SourceSnowflake,
		Dialect: dialect.MustGet(dialect.Snowflake),
		Table:   dialect.TableRef{Project: a.Database, Dataset: a.Schema, Table: a.Table},
	}, nil
}

func builtinTypes() map[string]Constructor {
	return map[string]Constructor{
		TypeBigQuery:  bigQueryLocation,
		TypePostgres:  postgresLocation,
		TypeMySQL:     mysqlLocation,
		TypeSnowflake: snowflakeLocation,
	}
}

func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedTypes(types map[string]Constructor) []string {
	out := make([]string, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
