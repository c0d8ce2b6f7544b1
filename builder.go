package raveauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/raveboxhq/raveauth/internal/stores"
	"github.com/raveboxhq/raveauth/token"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may be called
// once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore    UserStore
	statsStore   StatisticsStore
	ratingsStore RatingStateStore
	auditSink    AuditSink

	built bool
}

// New returns a Builder preloaded with default configuration. The signing
// material has no default and must be supplied via [Builder.WithConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration tree.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies a redis client used to construct the bundled
// statistics and rating-state stores when no explicit implementations are
// given.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the platform user-lookup collaborator. Required.
func (b *Builder) WithUserStore(us UserStore) *Builder {
	b.userStore = us
	return b
}

// WithStatisticsStore overrides the bundled redis-backed counter store.
func (b *Builder) WithStatisticsStore(ss StatisticsStore) *Builder {
	b.statsStore = ss
	return b
}

// WithRatingStateStore overrides the bundled redis-backed rating-state store.
func (b *Builder) WithRatingStateStore(rs RatingStateStore) *Builder {
	b.ratingsStore = rs
	return b
}

// WithAuditSink supplies the sink that receives audit events when auditing
// is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the stores, and returns the
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		SigningMethod: cfg.Token.SigningMethod,
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store is required")
	}

	statsStore := b.statsStore
	ratingsStore := b.ratingsStore
	if statsStore == nil {
		if b.redis == nil {
			return nil, errors.New("statistics store or redis client is required")
		}
		statsStore = redisStatistics{inner: stores.NewStatistics(b.redis, "")}
	}
	if ratingsStore == nil {
		if b.redis == nil {
			return nil, errors.New("rating state store or redis client is required")
		}
		ratingsStore = redisRatingState{inner: stores.NewRatingState(b.redis, "")}
	}

	b.built = true

	return &Engine{
		config:  cfg,
		codec:   codec,
		users:   b.userStore,
		stats:   statsStore,
		ratings: ratingsStore,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}, nil
}
