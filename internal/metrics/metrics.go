// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Signup metrics. outcome: "created", "duplicate", "invalid", "error"
	IncSubscription(outcome string)

	// Listing metrics
	IncListRequest()
	IncListCacheHit()
	IncListCacheMiss()

	// Store latency. op: "add" or "list"
	ObserveStoreDuration(op string, duration time.Duration)
}
