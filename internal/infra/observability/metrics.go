package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
)

// Transfer outcomes recorded by IncrTransfer.
const (
	TransferSucceeded = "succeeded"
	TransferFailed    = "failed"   // ledger or network error
	TransferRejected  = "rejected" // local validation
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	guardRejections prometheus.Counter
	discardedLoads  prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rbc_bfa_request_duration_seconds",
				Help:    "Duration of wallet operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbc_bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbc_bfa_transfers_total",
				Help: "Transfer submissions by outcome.",
			},
			[]string{"outcome"},
		),
		guardRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rbc_bfa_transfer_guard_rejections_total",
				Help: "Submissions refused because the same form was already in flight.",
			},
		),
		discardedLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rbc_bfa_discarded_loads_total",
				Help: "Ledger results dropped because their screen was closed or superseded.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrTransfer counts a submission outcome.
func (m *Metrics) IncrTransfer(outcome string) {
	m.transfers.WithLabelValues(outcome).Inc()
}

// IncrGuardRejection counts a double submit.
func (m *Metrics) IncrGuardRejection() {
	m.guardRejections.Inc()
}

// IncrDiscardedLoad counts a fetch result nobody was waiting for anymore.
func (m *Metrics) IncrDiscardedLoad() {
	m.discardedLoads.Inc()
}

// GetWalletSnapshot returns the counters served by GET /v1/metrics/wallet.
func (m *Metrics) GetWalletSnapshot() *domain.WalletMetrics {
	succeeded := getCounterValue(m.transfers, TransferSucceeded)
	failed := getCounterValue(m.transfers, TransferFailed)
	rejected := getCounterValue(m.transfers, TransferRejected)

	successRate := float64(0)
	if attempted := succeeded + failed; attempted > 0 {
		successRate = succeeded / attempted
	}

	return &domain.WalletMetrics{
		TransfersSucceeded: int64(succeeded),
		TransfersFailed:    int64(failed),
		TransfersRejected:  int64(rejected),
		GuardRejections:    int64(readCounter(m.guardRejections)),
		LedgerErrors:       int64(getCounterValue(m.externalErrors, "ledger")),
		DiscardedLoads:     int64(readCounter(m.discardedLoads)),
		SuccessRate:        successRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
