package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubscriptionsCreated   uint64
	SubscriptionsDuplicate uint64
	SubscriptionsInvalid   uint64
	SubscriptionsFailed    uint64
	ListRequests           uint64
	ListCacheHits          uint64
	ListCacheMisses        uint64
	StoreDurationCount     uint64
	StoreDurationTotalNs   int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	subscriptionsCreated   uint64
	subscriptionsDuplicate uint64
	subscriptionsInvalid   uint64
	subscriptionsFailed    uint64
	listRequests           uint64
	listCacheHits          uint64
	listCacheMisses        uint64
	storeDurationCount     uint64
	storeDurationTotalNs   int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SubscriptionsCreated:   atomic.LoadUint64(&m.subscriptionsCreated),
		SubscriptionsDuplicate: atomic.LoadUint64(&m.subscriptionsDuplicate),
		SubscriptionsInvalid:   atomic.LoadUint64(&m.subscriptionsInvalid),
		SubscriptionsFailed:    atomic.LoadUint64(&m.subscriptionsFailed),
		ListRequests:           atomic.LoadUint64(&m.listRequests),
		ListCacheHits:          atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:        atomic.LoadUint64(&m.listCacheMisses),
		StoreDurationCount:     atomic.LoadUint64(&m.storeDurationCount),
		StoreDurationTotalNs:   atomic.LoadInt64(&m.storeDurationTotalNs),
	}
}

// IncSubscription increments the counter for outcome. Unknown outcomes are ignored.
func (m *InMemoryRecorder) IncSubscription(outcome string) {
	switch outcome {
	case "created":
		atomic.AddUint64(&m.subscriptionsCreated, 1)
	case "duplicate":
		atomic.AddUint64(&m.subscriptionsDuplicate, 1)
	case "invalid":
		atomic.AddUint64(&m.subscriptionsInvalid, 1)
	case "error":
		atomic.AddUint64(&m.subscriptionsFailed, 1)
	}
}

// IncListRequest increments the list request counter.
func (m *InMemoryRecorder) IncListRequest() {
	atomic.AddUint64(&m.listRequests, 1)
}

// IncListCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// ObserveStoreDuration records store latency.
func (m *InMemoryRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	atomic.AddUint64(&m.storeDurationCount, 1)
	atomic.AddInt64(&m.storeDurationTotalNs, duration.Nanoseconds())
}
