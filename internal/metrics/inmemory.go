package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SignIns              map[string]uint64
	AccountCache         map[string]uint64
	Invokes              map[string]uint64 // keyed "operation/status"
	InvokeDurationCount  uint64
	InvokeDurationNs     int64
	UnitsDebited         int64
	CreditsRecharged     int64
	Recharges            map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu sync.Mutex

	signIns             map[string]uint64
	accountCache        map[string]uint64
	invokes             map[string]uint64
	invokeDurationCount uint64
	invokeDurationNs    int64
	unitsDebited        int64
	creditsRecharged    int64
	recharges           map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signIns:      make(map[string]uint64),
		accountCache: make(map[string]uint64),
		invokes:      make(map[string]uint64),
		recharges:    make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		SignIns:             copyCounts(m.signIns),
		AccountCache:        copyCounts(m.accountCache),
		Invokes:             copyCounts(m.invokes),
		InvokeDurationCount: m.invokeDurationCount,
		InvokeDurationNs:    m.invokeDurationNs,
		UnitsDebited:        m.unitsDebited,
		CreditsRecharged:    m.creditsRecharged,
		Recharges:           copyCounts(m.recharges),
	}
}

// IncSignIn increments the sign-in counter for a status.
func (m *InMemoryRecorder) IncSignIn(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signIns[status]++
}

// IncAccountCache increments the account cache counter for a result.
func (m *InMemoryRecorder) IncAccountCache(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountCache[result]++
}

// IncInvoke increments the invoke counter for an operation/status pair.
func (m *InMemoryRecorder) IncInvoke(operation, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invokes[operation+"/"+status]++
}

// ObserveInvokeDuration records one invoke duration.
func (m *InMemoryRecorder) ObserveInvokeDuration(operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invokeDurationCount++
	m.invokeDurationNs += duration.Nanoseconds()
}

// AddUnitsDebited accumulates debited units.
func (m *InMemoryRecorder) AddUnitsDebited(endpoint string, units int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitsDebited += units
}

// AddCreditsRecharged accumulates recharged credits.
func (m *InMemoryRecorder) AddCreditsRecharged(credits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creditsRecharged += credits
}

// IncRecharge increments the recharge counter for a status.
func (m *InMemoryRecorder) IncRecharge(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recharges[status]++
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
