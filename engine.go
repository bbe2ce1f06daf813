package goIdentity

import (
	"github.com/MrEthical07/goIdentity/password"
)

// Engine is the identity/security core. It owns the login protocol, OTP
// challenges, the security-level policy, two-factor enrollment, and the
// activity ledger. Build one through [Builder]; Engine instances are
// immutable after Build and safe for concurrent use.
type Engine struct {
	config   Config
	store    Store
	otp      *otpManager
	pending  *pendingAuthStore
	ledger   *activityLedger
	audit    *auditDispatcher
	metrics  *Metrics
	hasher   *password.Hasher
	tokens   *tokenManager
	notifier Notifier
	clock    Clock
}

// Close shuts the audit dispatcher down, draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// queue was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Store exposes the injected credential store, primarily so hosting layers
// can seed or inspect it in development.
func (e *Engine) Store() Store {
	if e == nil {
		return nil
	}
	return e.store
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.hasher == nil || e.otp == nil ||
		e.pending == nil || e.ledger == nil || e.tokens == nil {
		return ErrEngineNotReady
	}
	return nil
}
