package raveauth

import (
	"errors"
	"net/http"
	"time"

	"github.com/raveboxhq/raveauth/token"
)

// Config is the full engine configuration tree. Populate it before
// [Builder.Build]; the engine treats it as immutable afterwards. Signing
// material is always injected here, never defaulted.
type Config struct {
	Token      TokenConfig
	Session    SessionConfig
	Engagement EngagementConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig carries signing material shared by every token kind.
type TokenConfig struct {
	SigningMethod token.SigningMethod // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig governs session issuance, refresh, and cookie policy.
type SessionConfig struct {
	// TTL is the lifetime of an issued session token.
	TTL time.Duration
	// RefreshBuffer is how close to expiry a session must be before an
	// authenticated request silently reissues it.
	RefreshBuffer time.Duration
	// RequireSecureCookies marks all written cookies Secure.
	RequireSecureCookies bool
	// SameSitePolicy applies to every cookie the engine writes.
	SameSitePolicy http.SameSite
	// CookieDomain, when non-empty, scopes every written cookie.
	CookieDomain string
}

/*
====================================
ENGAGEMENT CONFIG
====================================
*/

// EngagementConfig governs engagement-proof issuance and the watch-duration
// policy consulted when a proof is minted.
type EngagementConfig struct {
	// TokenTTL bounds how long a proof may be presented after issuance. It is
	// deliberately independent of the required watch duration.
	TokenTTL time.Duration
	// RequiredDuration is the default minimum watch duration in seconds.
	RequiredDuration int64
	// RequiredDurationByType overrides RequiredDuration per content type.
	RequiredDurationByType map[string]int64
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metric counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: token.MethodEd25519,
		},
		Session: SessionConfig{
			TTL:                  7 * 24 * time.Hour,
			RefreshBuffer:        24 * time.Hour,
			RequireSecureCookies: true,
			SameSitePolicy:       http.SameSiteStrictMode,
		},
		Engagement: EngagementConfig{
			TokenTTL:         15 * time.Minute,
			RequiredDuration: 15,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Token.PrivateKey != nil {
		out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	}
	if cfg.Token.PublicKey != nil {
		out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	}
	if cfg.Engagement.RequiredDurationByType != nil {
		m := make(map[string]int64, len(cfg.Engagement.RequiredDurationByType))
		for k, v := range cfg.Engagement.RequiredDurationByType {
			m[k] = v
		}
		out.Engagement.RequiredDurationByType = m
	}
	return out
}

func validateConfig(cfg Config) error {
	if cfg.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if cfg.Session.RefreshBuffer < 0 {
		return errors.New("refresh buffer must not be negative")
	}
	if cfg.Session.RefreshBuffer >= cfg.Session.TTL {
		return errors.New("refresh buffer must be shorter than session TTL")
	}
	if cfg.Engagement.TokenTTL <= 0 {
		return errors.New("engagement token TTL must be positive")
	}
	if cfg.Engagement.RequiredDuration < 0 {
		return errors.New("required watch duration must not be negative")
	}
	for contentType, d := range cfg.Engagement.RequiredDurationByType {
		if d < 0 {
			return errors.New("required watch duration for " + contentType + " must not be negative")
		}
	}
	return nil
}

// requiredDuration resolves the watch-duration policy for a content type.
func (c EngagementConfig) requiredDuration(contentType string) int64 {
	if d, ok := c.RequiredDurationByType[contentType]; ok {
		return d
	}
	return c.RequiredDuration
}
