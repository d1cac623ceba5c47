package ledger

import "github.com/shopspring/decimal"

// MetricsCollector receives engine events. Implementations must be safe
// for concurrent use.
type MetricsCollector interface {
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordError(operation, errType string)
	// RecordInconsistency flags the window where an external settlement
	// succeeded but the local commit did not. This must page someone.
	RecordInconsistency(operation, settlementRef string)
}

// NoopMetricsCollector discards all events.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransaction(string, decimal.Decimal) {}
func (NoopMetricsCollector) RecordError(string, string)                {}
func (NoopMetricsCollector) RecordInconsistency(string, string)        {}
