package penguin_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel"

	"github.com/ajitpratap0/penguin"
	"github.com/ajitpratap0/penguin/internal/runner"
	"github.com/ajitpratap0/penguin/pkg/config"
	"github.com/ajitpratap0/penguin/pkg/connector/core"
	"github.com/ajitpratap0/penguin/pkg/connector/sources/bigquery"
	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/node"
	"github.com/ajitpratap0/penguin/pkg/output/exporters"
	"github.com/ajitpratap0/penguin/pkg/output/formatters"
	"github.com/ajitpratap0/penguin/pkg/premise"
	"github.com/ajitpratap0/penguin/pkg/testutil"
)

type PenguinSuite struct {
	testutil.IntegrationTestSuite
}

func TestPenguinSuite(t *testing.T) {
	suite.Run(t, new(PenguinSuite))
}

func (s *PenguinSuite) newPenguin(opts ...penguin.Option) *penguin.Penguin {
	opts = append([]penguin.Option{penguin.WithLogger(testutil.TestLogger(s.T()))}, opts...)
	p := penguin.New(opts...)
	s.Require().NoError(p.Connectors().DefineDefault(s.Mock(core.SourceBigQuery)))
	return p
}

func (s *PenguinSuite) TestIsNullPassesOnEmptyResult() {
	p := s.newPenguin()

	n, err := p.Nodes().CreateNode("my_table", node.TypeBigQuery, map[string]interface{}{
		"project_id": "p", "dataset_id": "d", "table_id": "t",
	})
	s.Require().NoError(err)
	_, err = n.InsertPremise("x_check", premise.IsNull("x"))
	s.Require().NoError(err)

	results, err := p.RunPremises(s.Context())
	s.Require().NoError(err)

	out, ok := results.Get("my_table", "x_check")
	s.Require().True(ok)
	s.True(out.PassValidation())
	s.Equal(0, out.FailedCount())
	s.NotEmpty(out.RunID())
	s.Equal([]string{"SELECT `x` FROM `p`.`d`.`t` WHERE `x` IS NULL"}, s.Mock(core.SourceBigQuery).Queries())
}

func (s *PenguinSuite) TestRunDeliversToOutputs() {
	p := s.newPenguin(penguin.WithExecution(runner.Config{Parallelism: 2}))
	mock := s.Mock(core.SourceBigQuery)

	n, err := p.Nodes().CreateNode("orders", node.TypeBigQuery, map[string]interface{}{
		"project_id": "p", "dataset_id": "sales", "table_id": "orders",
	})
	s.Require().NoError(err)
	distinct, err := n.InsertPremise("id_distinct", premise.Distinct("id"))
	s.Require().NoError(err)
	mock.Respond(distinct.Query(), testutil.CountTable(40, 100))
	_, err = n.InsertPremise("id_not_null", premise.IsNull("id"))
	s.Require().NoError(err)

	var buf bytes.Buffer
	p.AddOutput(penguin.Output{Name: "console", Formatter: formatters.Log{}, Exporter: exporters.NewTerminal(&buf)})

	report, err := p.Run(s.Context())
	s.Require().NoError(err)
	s.Equal(map[string]map[string]bool{"orders": {"id_distinct": true, "id_not_null": true}}, report.Delivery["console"])
	s.Equal([][2]string{{"orders", "id_distinct"}}, report.Results.Failed())
	s.Contains(buf.String(), "orders - id_distinct: Failed (60 failed)")
	s.Contains(buf.String(), "orders - id_not_null: Passed")
}

func (s *PenguinSuite) TestRunCollectsQueryErrors() {
	p := s.newPenguin()
	s.Mock(core.SourceBigQuery).Err = errors.New(errors.ErrorTypeConnection, "warehouse unavailable")

	n, err := p.Nodes().CreateNode("orders", node.TypeBigQuery, map[string]interface{}{
		"project_id": "p", "dataset_id": "sales", "table_id": "orders",
	})
	s.Require().NoError(err)
	_, err = n.InsertPremise("id_not_null", premise.IsNull("id"))
	s.Require().NoError(err)

	report, err := p.Run(s.Context())
	s.Require().Error(err)
	s.True(errors.HasType(err, errors.ErrorTypeConnection))
	s.Equal(0, report.Results.Len())
}

const pipelineYAML = `
logging:
  level: warn
nodes:
  - name: orders
    type: bigquery
    args:
      project_id: p
      dataset_id: sales
      table_id: orders
    relations: [customers]
    premises:
      - name: amount_positive
        column: amount
        check: logical_comparison
        params:
          operator: ">="
          value: 0
  - name: customers
    type: bigquery
    args:
      project_id: p
      dataset_id: crm
      table_id: customers
    premises:
      - name: email_not_null
        column: email
        check: is_null
outputs:
  - name: console
    formatter:
      type: json
    exporter:
      type: terminal
`

func (s *PenguinSuite) TestFromConfig() {
	path := s.CreateTempFile("pipeline.yaml", []byte(pipelineYAML))
	cfg, err := config.Load(path)
	s.Require().NoError(err)

	p, err := penguin.FromConfig(s.Context(), cfg)
	s.Require().NoError(err)
	defer func() { s.NoError(p.Close()) }()
	s.Require().NoError(p.Connectors().DefineDefault(s.Mock(core.SourceBigQuery)))

	s.Equal([]string{"orders", "customers"}, p.Nodes().ListNodes())
	orders, ok := p.Nodes().GetNode("orders")
	s.Require().True(ok)
	s.Equal([]string{"amount_positive"}, orders.Premises())
	s.Require().Len(orders.Relations(), 1)
	s.Equal("customers", orders.Relations()[0].Destination)

	outputs := p.Outputs()
	s.Require().Len(outputs, 1)
	s.Equal("console", outputs[0].Name)

	amount, ok := orders.Premise("amount_positive")
	s.Require().True(ok)
	s.Equal("SELECT COUNT(CASE WHEN `amount` >= 0 THEN 1 END) AS `result`, COUNT(`amount`) AS `total` FROM `p`.`sales`.`orders`",
		amount.Query())
	s.Mock(core.SourceBigQuery).Respond(amount.Query(), testutil.CountTable(9, 10))

	results, err := p.RunPremises(s.Context())
	s.Require().NoError(err)
	s.Equal(2, results.Len())
	out, ok := results.Get("orders", "amount_positive")
	s.Require().True(ok)
	s.False(out.PassValidation())
	s.Equal(1, out.FailedCount())
}

func TestFromConfigRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Nodes = []config.NodeConfig{{Name: "n", Type: "bigquery", Premises: []config.PremiseConfig{
		{Name: "p", Column: "x", Check: "arithmetic", Params: map[string]interface{}{
			"operator": "%", "second_term": 2, "expected_result": 0,
		}},
	}}}

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := penguin.FromConfig(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.True(t, errors.HasType(err, errors.ErrorTypeUnsupportedOperator))
}

func TestFromConfigShutsDownTracingWhenConnectorsFail(t *testing.T) {
	cfg := config.Default()
	cfg.Tracing.Enabled = true
	cfg.Connectors.BigQuery = &bigquery.Config{
		ProjectID:       "p",
		CredentialsPath: filepath.Join(t.TempDir(), "missing.json"),
	}

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	_, err := penguin.FromConfig(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypeCredentialNotFound))

	_, span := otel.Tracer("penguin_test").Start(context.Background(), "after_close")
	defer span.End()
	assert.False(t, span.IsRecording(), "tracer provider should be shut down")
}
