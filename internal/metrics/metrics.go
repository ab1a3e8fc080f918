package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	runsCreated     *prometheus.CounterVec
	runsRejected    *prometheus.CounterVec
	runTransitions  *prometheus.CounterVec
	batchSize       prometheus.Histogram
	costResolutions *prometheus.CounterVec
	salesRecorded   prometheus.Counter
	salesRejected   *prometheus.CounterVec
	salesRevenue    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "production_runs_created_total",
			Help: "Production runs accepted, by product.",
		}, []string{"product_id"}),
		runsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "production_runs_rejected_total",
			Help: "Production run requests refused, by reason.",
		}, []string{"reason"}),
		runTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "production_run_transitions_total",
			Help: "Production runs moved to a terminal status.",
		}, []string{"status"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "production_run_batch_size",
			Help:    "Batch quantity of accepted production runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		costResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cost_resolutions_total",
			Help: "Cost resolutions served, by kind (cost, optimize, simulate) and whether any line was unresolved.",
		}, []string{"kind", "unresolved"}),
		salesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_recorded_total",
			Help: "Sales booked against finished stock.",
		}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_rejected_total",
			Help: "Sales refused, by reason.",
		}, []string{"reason"}),
		salesRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_revenue_total",
			Help: "Sum of booked sale totals, approximated as float.",
		}),
	}
	m.reg.MustRegister(
		m.runsCreated,
		m.runsRejected,
		m.runTransitions,
		m.batchSize,
		m.costResolutions,
		m.salesRecorded,
		m.salesRejected,
		m.salesRevenue,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) RunCreated(productID int64, batch int64) {
	m.runsCreated.WithLabelValues(strconv.FormatInt(productID, 10)).Inc()
	m.batchSize.Observe(float64(batch))
}

func (m *Metrics) RunRejected(reason string) {
	m.runsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RunTransitioned(to production.Status) {
	m.runTransitions.WithLabelValues(string(to)).Inc()
}

func (m *Metrics) CostResolved(kind string, unresolved int) {
	m.costResolutions.WithLabelValues(kind, strconv.FormatBool(unresolved > 0)).Inc()
}

func (m *Metrics) SaleRecorded(_ int, total decimal.Decimal) {
	m.salesRecorded.Inc()
	m.salesRevenue.Add(total.InexactFloat64())
}

func (m *Metrics) SaleRejected(reason string) {
	m.salesRejected.WithLabelValues(reason).Inc()
}
