// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account registry metrics
	IncSignIn(status string)       // status: "created" or "existing"
	IncAccountCache(result string) // result: "hit" or "miss"

	// Metered operation metrics
	IncInvoke(operation, status string) // status: "ok", "unauthorized", "insufficient_credits", "invalid_args", "error"
	ObserveInvokeDuration(operation string, duration time.Duration)

	// Credit ledger metrics
	AddUnitsDebited(endpoint string, units int64)
	AddCreditsRecharged(credits int64)
	IncRecharge(status string) // status: "ok", "invalid_amount", "not_found"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
