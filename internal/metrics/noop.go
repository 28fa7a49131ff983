package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscription is a no-op.
func (n *NoopRecorder) IncSubscription(outcome string) {}

// IncListRequest is a no-op.
func (n *NoopRecorder) IncListRequest() {}

// IncListCacheHit is a no-op.
func (n *NoopRecorder) IncListCacheHit() {}

// IncListCacheMiss is a no-op.
func (n *NoopRecorder) IncListCacheMiss() {}

// ObserveStoreDuration is a no-op.
func (n *NoopRecorder) ObserveStoreDuration(op string, duration time.Duration) {}
