// Package prometheus 以 client_golang 實作 metrics.Recorder。
package prometheus

import (
	"strconv"
	"time"

	"ledger/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements metrics.Recorder for Prometheus.
type Recorder struct {
	transactions   *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	accounts       prometheus.Counter
	balanceLookups *prometheus.CounterVec
	storageOps     *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec
	circuitState   *prometheus.GaugeVec
	circuitOpens   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

var _ metrics.Recorder = (*Recorder)(nil)

// New 建立 Recorder；namespace 為所有度量名稱的前綴。
func New(namespace string) *Recorder {
	return &Recorder{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Transactions recorded in account histories by type and status",
			},
			[]string{"type", "status"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_rejected_total",
				Help:      "Transaction requests rejected before any state change",
			},
			[]string{"reason"},
		),
		accounts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accounts_created_total",
				Help:      "Accounts opened",
			},
		),
		balanceLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_lookups_total",
				Help:      "Balance reads by cache result",
			},
			[]string{"cache"},
		),
		storageOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Storage load/save operations by result",
			},
			[]string{"operation", "result"},
		),
		storageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation latency",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"operation"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Storage circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Storage circuit breaker opens",
			},
			[]string{"name"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Register 將所有 collector 註冊到 registry。
func (r *Recorder) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.transactions,
		r.rejected,
		r.accounts,
		r.balanceLookups,
		r.storageOps,
		r.storageLatency,
		r.circuitState,
		r.circuitOpens,
		r.httpRequests,
		r.httpLatency,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) RecordTransaction(txType, status string) {
	r.transactions.WithLabelValues(txType, status).Inc()
}

func (r *Recorder) RecordRejected(reason string) {
	r.rejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordAccountCreated() {
	r.accounts.Inc()
}

func (r *Recorder) RecordBalanceLookup(hit bool) {
	label := "miss"
	if hit {
		label = "hit"
	}
	r.balanceLookups.WithLabelValues(label).Inc()
}

func (r *Recorder) RecordStorage(op string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	r.storageOps.WithLabelValues(op, result).Inc()
	r.storageLatency.WithLabelValues(op).Observe(duration.Seconds())
}

func (r *Recorder) RecordCircuitState(name string, state metrics.CircuitState) {
	r.circuitState.WithLabelValues(name).Set(float64(state))
	if state == metrics.CircuitOpen {
		r.circuitOpens.WithLabelValues(name).Inc()
	}
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}
