package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(framesDecoded.WithLabelValues("entry"))
	RecordFrame("entry")
	RecordFrame("entry")
	assert.Equal(t, before+2, testutil.ToFloat64(framesDecoded.WithLabelValues("entry")))

	skipped := testutil.ToFloat64(resyncBytes)
	RecordResync(3)
	assert.Equal(t, skipped+3, testutil.ToFloat64(resyncBytes))

	RecordMalformed("descriptor")
	RecordRow()
	RecordTable()
	RecordSessionEnd("transport_failure")
}

func TestHandlerServesCounters(t *testing.T) {
	RecordRow()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "daqd_sink_rows_inserted_total")
}
