package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignIn is a no-op.
func (n *NoopRecorder) IncSignIn(status string) {}

// IncAccountCache is a no-op.
func (n *NoopRecorder) IncAccountCache(result string) {}

// IncInvoke is a no-op.
func (n *NoopRecorder) IncInvoke(operation, status string) {}

// ObserveInvokeDuration is a no-op.
func (n *NoopRecorder) ObserveInvokeDuration(operation string, duration time.Duration) {}

// AddUnitsDebited is a no-op.
func (n *NoopRecorder) AddUnitsDebited(endpoint string, units int64) {}

// AddCreditsRecharged is a no-op.
func (n *NoopRecorder) AddCreditsRecharged(credits int64) {}

// IncRecharge is a no-op.
func (n *NoopRecorder) IncRecharge(status string) {}
