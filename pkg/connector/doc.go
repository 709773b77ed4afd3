// Package connector groups the warehouse connectors premises run their queries on.
//
// # Architecture Overview
//
// The connector package is organized into several sub-packages:
//
//   - core: the Connector contract (Kind, Source, Run), run options and the
//     kind+source registry key.
//
//   - base: BaseSQLConnector, the database/sql implementation shared by the
//     PostgreSQL, MySQL and Snowflake connectors, and RetryPolicy.
//
//   - registry: the connector manager holding one default connector per
//     kind and source. Data nodes fall back to it when they carry no override.
//
//   - sources: BigQuery, PostgreSQL (pgx), MySQL and Snowflake connectors, and
//     Build, which opens every connector declared in configuration.
//
// # Writing a Connector
//
// A connector only has to name its kind and source and turn a query into a
// table:
//
//	type Connector struct{ db *sql.DB }
//
//	func (c *Connector) Kind() core.Kind     { return core.KindSQL }
//	func (c *Connector) Source() core.Source { return "DuckDB" }
//
//	func (c *Connector) Run(ctx context.Context, q string, opts ...core.RunOption) (*table.Table, error) {
//	    o := core.ApplyRunOptions(1000, opts...)
//	    ...
//	}
//
// Nodes whose dialect matches the source resolve it through the registry.
package connector
