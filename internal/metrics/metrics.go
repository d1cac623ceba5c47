// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Collector implements the ledger engine's metrics contract on top of
// Prometheus. Register one per process.
type Collector struct {
	transactionsTotal *prometheus.CounterVec
	transactionAmount *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	inconsistencies   prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		transactionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enpay_transactions_total",
			Help: "Completed ledger transactions by type.",
		}, []string{"type"}),
		transactionAmount: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enpay_transaction_amount",
			Help:    "Transaction amounts in the operation currency.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"type"}),
		errorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enpay_operation_errors_total",
			Help: "Rejected or failed ledger operations by reason.",
		}, []string{"operation", "reason"}),
		inconsistencies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enpay_settlement_inconsistencies_total",
			Help: "Settlements that succeeded at the gateway but failed to commit locally.",
		}),
	}
}

func (c *Collector) RecordTransaction(txType string, amount decimal.Decimal) {
	c.transactionsTotal.WithLabelValues(txType).Inc()
	f, _ := amount.Float64()
	c.transactionAmount.WithLabelValues(txType).Observe(f)
}

func (c *Collector) RecordError(operation, errType string) {
	c.errorsTotal.WithLabelValues(operation, errType).Inc()
}

func (c *Collector) RecordInconsistency(operation, settlementRef string) {
	c.inconsistencies.Inc()
}
