// Package penguin validates warehouse data with declarative premises.
//
// A Penguin owns a node manager and a connector manager. Data nodes describe
// tables in BigQuery, PostgreSQL, MySQL or Snowflake; premises attached to a
// node (IsNull, Distinct, Between, InArray, LikePattern, RegexpContains,
// Arithmetic, LogicalComparison) compile into SQL that counts violating rows.
// Running the premises produces one PremiseOutput per premise, collected in an
// output manager that formatters and exporters turn into reports.
//
// # Quick Start
//
//	p := penguin.New()
//	conn, err := bigquery.New(ctx, bigquery.Config{ProjectID: "analytics"})
//	if err != nil {
//	    return err
//	}
//	if err := p.Connectors().DefineDefault(conn); err != nil {
//	    return err
//	}
//
//	orders, err := p.Nodes().CreateNode("orders", node.TypeBigQuery, map[string]interface{}{
//	    "project_id": "analytics",
//	    "dataset_id": "sales",
//	    "table_id":   "orders",
//	})
//	if err != nil {
//	    return err
//	}
//	if _, err := orders.InsertPremise("id_not_null", premise.IsNull("id")); err != nil {
//	    return err
//	}
//
//	results, err := p.RunPremises(ctx)
//	statuses, err := results.ExportOutputs(ctx, formatters.Log{}, exporters.NewTerminal(nil))
//
// # Configuration
//
// FromConfig builds the same setup from a YAML document loaded with
// config.Load, including the outputs Run delivers to.
package penguin
