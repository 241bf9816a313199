package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector with Prometheus vectors.
type PrometheusCollector struct {
	operations    *prometheus.CounterVec
	overdrafts    *prometheus.CounterVec
	deactivations *prometheus.CounterVec
	reactivations *prometheus.CounterVec
	persists      *prometheus.CounterVec
	persistTime   prometheus.Histogram
	customers     prometheus.Gauge
}

// NewPrometheusCollector creates the ledger metrics under namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		overdrafts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overdraft_penalties_total",
				Help:      "Overdraft penalties charged per account kind",
			},
			[]string{"kind"},
		),
		deactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_deactivations_total",
				Help:      "Accounts deactivated after repeated overdrafts",
			},
			[]string{"kind"},
		),
		reactivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_reactivations_total",
				Help:      "Inactive accounts reactivated by a deposit",
			},
			[]string{"kind"},
		),
		persists: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_total",
				Help:      "Directory writes to the record store by status",
			},
			[]string{"status"},
		),
		persistTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_duration_seconds",
				Help:      "Directory write latency",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
		),
		customers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "customers",
				Help:      "Customers currently in the directory",
			},
		),
	}
}

// Register adds all vectors to registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.operations,
		pc.overdrafts,
		pc.deactivations,
		pc.reactivations,
		pc.persists,
		pc.persistTime,
		pc.customers,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordOperation counts one engine call.
func (pc *PrometheusCollector) RecordOperation(op, outcome string) {
	pc.operations.WithLabelValues(op, outcome).Inc()
}

// RecordOverdraft counts a penalty.
func (pc *PrometheusCollector) RecordOverdraft(kind string) {
	pc.overdrafts.WithLabelValues(kind).Inc()
}

// RecordDeactivation counts a deactivation.
func (pc *PrometheusCollector) RecordDeactivation(kind string) {
	pc.deactivations.WithLabelValues(kind).Inc()
}

// RecordReactivation counts a reactivation.
func (pc *PrometheusCollector) RecordReactivation(kind string) {
	pc.reactivations.WithLabelValues(kind).Inc()
}

// RecordPersist observes a directory write.
func (pc *PrometheusCollector) RecordPersist(success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	pc.persists.WithLabelValues(status).Inc()
	pc.persistTime.Observe(duration.Seconds())
}

// SetCustomers reports the directory size.
func (pc *PrometheusCollector) SetCustomers(n int) {
	pc.customers.Set(float64(n))
}
