package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
	"github.com/DiomarGoncalves/ElectraVolt/internal/sales"
)

var (
	_ production.Recorder = (*Metrics)(nil)
	_ sales.Recorder      = (*Metrics)(nil)
)

func TestRecorderCounters(t *testing.T) {
	m := New()

	m.RunCreated(3, 4)
	m.RunCreated(3, 1)
	m.RunRejected("insufficient_stock")
	m.RunTransitioned(production.StatusCancelled)
	m.CostResolved("cost", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsCreated.WithLabelValues("3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsRejected.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTransitions.WithLabelValues("cancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.costResolutions.WithLabelValues("cost", "true")))
}

func TestSalesCounters(t *testing.T) {
	m := New()

	m.SaleRecorded(2, decimal.RequireFromString("30"))
	m.SaleRecorded(1, decimal.RequireFromString("7.5"))
	m.SaleRejected("insufficient_stock")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.salesRecorded))
	assert.Equal(t, 37.5, testutil.ToFloat64(m.salesRevenue))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.salesRejected.WithLabelValues("insufficient_stock")))
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.RunRejected("no_composition")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `production_runs_rejected_total{reason="no_composition"} 1`), string(body))
}
