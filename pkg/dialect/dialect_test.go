package dialect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsRegistered(t *testing.T) {
	assert.Equal(t, []string{BigQuery, MySQL, Postgres, Snowflake}, List())

	d, ok := Get("BigQuery")
	require.True(t, ok)
	assert.Equal(t, BigQuery, d.Name)

	_, ok = Get("oracle")
	assert.False(t, ok)
	assert.Panics(t, func() { MustGet("oracle") })
}

func TestQuoteTable(t *testing.T) {
	ref := TableRef{Project: "p", Dataset: "d", Table: "t"}
	tests := []struct {
		dialect string
		want    string
	}{
		{BigQuery, "`p`.`d`.`t`"},
		{Postgres, `"p"."d"."t"`},
		{MySQL, "`p`.`d`.`t`"},
		{Snowflake, `"P"."D"."T"`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			got, err := MustGet(tt.dialect).QuoteTable(ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := MustGet(Postgres).QuoteTable(TableRef{Dataset: "public", Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, `"public"."orders"`, got)

	_, err = MustGet(Postgres).QuoteTable(TableRef{Project: "p"})
	assert.Error(t, err)
	assert.Equal(t, "p.d.t", ref.String())
}

func TestQuoteIdentEscapesQuote(t *testing.T) {
	assert.Equal(t, "`a``b`", MustGet(BigQuery).QuoteIdent("a`b"))
	assert.Equal(t, `"a""b"`, MustGet(Postgres).QuoteIdent(`a"b`))
}

func TestSnowflakeFoldsPlainIdentifiers(t *testing.T) {
	sf := MustGet(Snowflake)
	tests := []struct {
		in   string
		want string
	}{
		{"orders", `"ORDERS"`},
		{"Order_Items$1", `"ORDER_ITEMS$1"`},
		{"_tmp", `"_TMP"`},
		{"order items", `"order items"`},
		{"1st", `"1st"`},
		{`a"b`, `"a""b"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sf.QuoteIdent(tt.in))
		})
	}

	got, err := sf.QuoteTable(TableRef{Project: "dw", Dataset: "public", Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, `"DW"."PUBLIC"."ORDERS"`, got)
	assert.Equal(t, `"orders"`, MustGet(Postgres).QuoteIdent("orders"))
}

func TestLiteral(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name    string
		dialect string
		value   interface{}
		want    string
	}{
		{"null", Postgres, nil, "NULL"},
		{"int", Postgres, 42, "42"},
		{"float", Postgres, 1.5, "1.5"},
		{"bool", BigQuery, true, "TRUE"},
		{"postgres quote", Postgres, "o'brien", "'o''brien'"},
		{"bigquery quote", BigQuery, `o'b\x`, `'o\'b\\x'`},
		{"mysql quote", MySQL, `o'b\x`, `'o''b\\x'`},
		{"snowflake quote", Snowflake, `o'b\x`, `'o''b\\x'`},
		{"snowflake escaped quote", Snowflake, `\' OR 1=1 --`, `'\\'' OR 1=1 --'`},
		{"mysql escaped quote", MySQL, `\' OR 1=1 --`, `'\\'' OR 1=1 --'`},
		{"bigquery escaped quote", BigQuery, `\' OR 1=1 --`, `'\\\' OR 1=1 --'`},
		{"snowflake regexp class", Snowflake, `^\d+$`, `'^\\d+$'`},
		{"timestamp", Postgres, ts, "TIMESTAMP '2024-01-02 03:04:05'"},
		{"snowflake timestamp", Snowflake, ts, "'2024-01-02 03:04:05'::TIMESTAMP_NTZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustGet(tt.dialect).Literal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MustGet(Postgres).Literal(struct{}{})
	assert.Error(t, err)
}

func TestRegexp(t *testing.T) {
	assert.Equal(t, "REGEXP_CONTAINS(`c`, '^a')", MustGet(BigQuery).Regexp("`c`", "'^a'"))
	assert.Equal(t, `"c" ~ '^a'`, MustGet(Postgres).Regexp(`"c"`, "'^a'"))
	assert.Equal(t, "`c` REGEXP '^a'", MustGet(MySQL).Regexp("`c`", "'^a'"))
	assert.Equal(t, `REGEXP_INSTR("c", '^a') > 0`, MustGet(Snowflake).Regexp(`"c"`, "'^a'"))
}
