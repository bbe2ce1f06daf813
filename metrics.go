package goIdentity

import "sync/atomic"

// MetricID indexes one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts password logins that granted a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credentials and rejected codes.
	MetricLoginFailure
	// MetricLoginAwaitingOTP counts password logins parked on an OTP challenge.
	MetricLoginAwaitingOTP
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess
	// MetricRegisterDuplicate counts registrations rejected for a taken email.
	MetricRegisterDuplicate
	// MetricOTPIssued counts issued one-time codes.
	MetricOTPIssued
	// MetricOTPConsumed counts successfully consumed one-time codes.
	MetricOTPConsumed
	// MetricOTPRejected counts codes that failed verification.
	MetricOTPRejected
	// MetricTwoFactorEnabled counts completed 2FA enrollments.
	MetricTwoFactorEnabled
	// MetricTwoFactorDisabled counts 2FA disablements.
	MetricTwoFactorDisabled
	// MetricLevelChanged counts security-level transitions.
	MetricLevelChanged
	// MetricNotifierFailure counts failed code deliveries.
	MetricNotifierFailure
	// MetricLogout counts logouts.
	MetricLogout
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of atomic counters. Zero-cost when disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics builds a Metrics set honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter. No-op when disabled or out of range.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
