package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidation(t *testing.T) {
	before := testutil.ToFloat64(PremiseValidations.WithLabelValues("orders", "id_not_null", StatusFailed))
	RecordValidation("orders", "id_not_null", StatusFailed)
	RecordValidation("orders", "id_not_null", StatusFailed)

	after := testutil.ToFloat64(PremiseValidations.WithLabelValues("orders", "id_not_null", StatusFailed))
	assert.Equal(t, before+2, after)
}

func TestRecordFailedValues(t *testing.T) {
	RecordFailedValues("orders", "amount_positive", 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(FailedValues.WithLabelValues("orders", "amount_positive")))
}

func TestRecordExport(t *testing.T) {
	before := testutil.ToFloat64(Exports.WithLabelValues("http", StatusError))
	RecordExport("http", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(Exports.WithLabelValues("http", StatusError)))
}

func TestObserveQuery(t *testing.T) {
	ObserveQuery("PostgreSQL", 20*time.Millisecond, nil)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(QueryDuration), 1)
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordExport("terminal", nil)

	srv := httptest.NewServer(Handler(""))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "penguin_exports_total")
}

func TestServeDisabled(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), Config{}))
}
