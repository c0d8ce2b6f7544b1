package raveauth

import "sync/atomic"

// MetricID identifies one in-process counter maintained by the engine.
type MetricID uint16

const (
	// MetricSessionIssued counts newly issued primary sessions.
	MetricSessionIssued MetricID = iota
	// MetricSessionRefreshed counts silent in-buffer session reissues.
	MetricSessionRefreshed
	// MetricAuthSuccess counts requests that passed the CSRF double-submit check.
	MetricAuthSuccess
	// MetricAuthExpired counts authentications rejected on token expiry.
	MetricAuthExpired
	// MetricAuthInvalid counts authentications rejected on malformed tokens
	// or signature mismatch.
	MetricAuthInvalid
	// MetricCSRFMissing counts rejections where the header or cookie nonce
	// was absent.
	MetricCSRFMissing
	// MetricCSRFMismatch counts rejections where all three nonces were
	// present but not identical.
	MetricCSRFMismatch
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricImpersonationBegin counts admin impersonation starts.
	MetricImpersonationBegin
	// MetricImpersonationEnd counts impersonation session restores.
	MetricImpersonationEnd
	// MetricImpersonationForbidden counts impersonation attempts by
	// non-admin callers.
	MetricImpersonationForbidden
	// MetricEngagementIssued counts engagement-proof tokens minted.
	MetricEngagementIssued
	// MetricRatingApplied counts rating transitions applied to counters,
	// including same-state no-ops.
	MetricRatingApplied
	// MetricRatingDurationNotMet counts ratings rejected by the watch
	// duration gate.
	MetricRatingDurationNotMet
	// MetricRatingRejected counts ratings rejected before persistence for
	// any other local reason.
	MetricRatingRejected
	// MetricRatingPersistenceFailed counts store failures during rating
	// application.
	MetricRatingPersistenceFailed
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free per-engine counters. All methods are safe on a nil
// receiver so disabled metrics cost a single branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics builds the counter set; disabled metrics drop all increments.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether increments are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the identified counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}
