package metrics

import "time"

// Collector records ledger activity. Implementations export to a backend;
// NoOpCollector is used when metrics are disabled.
type Collector interface {
	// RecordOperation counts one engine call by operation and outcome
	// ("ok", "canceled", "rejected", "persist_failed").
	RecordOperation(op, outcome string)
	// RecordOverdraft counts an overdraft penalty on the given account kind.
	RecordOverdraft(kind string)
	// RecordDeactivation counts an account going inactive.
	RecordDeactivation(kind string)
	// RecordReactivation counts an inactive account coming back.
	RecordReactivation(kind string)
	// RecordPersist observes a full-directory write.
	RecordPersist(success bool, duration time.Duration)
	// SetCustomers reports the directory size.
	SetCustomers(n int)
}

// NoOpCollector discards all metrics.
type NoOpCollector struct{}

func (NoOpCollector) RecordOperation(op, outcome string) {}
func (NoOpCollector) RecordOverdraft(kind string) {}
func (NoOpCollector) RecordDeactivation(kind string) {}
func (NoOpCollector) RecordReactivation(kind string) {}
func (NoOpCollector) RecordPersist(success bool, duration time.Duration) {}
func (NoOpCollector) SetCustomers(n int) {}
