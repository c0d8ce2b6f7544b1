package raveauth

import (
	"github.com/raveboxhq/raveauth/session"
	"github.com/raveboxhq/raveauth/token"
)

// Engine is the session-authentication and engagement-integrity core. Build
// one through [Builder.Build]; all methods are safe for concurrent use after
// construction.
type Engine struct {
	config  Config
	codec   *token.Codec
	users   UserStore
	stats   StatisticsStore
	ratings RatingStateStore
	audit   *auditDispatcher
	metrics *Metrics
}

// Close drains the audit dispatcher. Safe on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies every engine counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// CookiePolicy returns the cookie attributes configured for this engine, for
// transport layers that write session cookies themselves.
func (e *Engine) CookiePolicy() session.CookiePolicy {
	if e == nil {
		return session.CookiePolicy{}
	}
	return session.CookiePolicy{
		Secure:   e.config.Session.RequireSecureCookies,
		SameSite: e.config.Session.SameSitePolicy,
		Domain:   e.config.Session.CookieDomain,
	}
}

func (e *Engine) ready() error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	return nil
}
