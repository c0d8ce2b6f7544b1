package raveauth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/raveboxhq/raveauth/token"
)

var testSigningKey = []byte("unit-test-signing-secret")

type mockUserStore struct {
	users map[string]UserRecord
}

func (m *mockUserStore) FindByID(_ context.Context, userID string) (*UserRecord, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.SigningMethod = token.MethodHS256
	cfg.Token.PrivateKey = testSigningKey
	cfg.Session.TTL = 7 * 24 * time.Hour
	cfg.Session.RefreshBuffer = 24 * time.Hour
	cfg.Session.RequireSecureCookies = false
	cfg.Session.SameSitePolicy = http.SameSiteLaxMode
	cfg.Engagement.TokenTTL = 15 * time.Minute
	cfg.Engagement.RequiredDuration = 15
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	users := &mockUserStore{users: map[string]UserRecord{
		"u1": {UserID: "u1", Role: RoleUser},
		"u2": {UserID: "u2", Role: RoleUser},
		"a1": {UserID: "a1", Role: RoleAdmin},
	}}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("engine build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func testCodec(t *testing.T) *token.Codec {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.MethodHS256,
		PrivateKey:    testSigningKey,
	})
	if err != nil {
		t.Fatalf("codec build failed: %v", err)
	}
	return codec
}

// signSessionAt mints a session token with a caller-chosen issue time so
// expiry and refresh windows can be tested without sleeping.
func signSessionAt(t *testing.T, issuedAt time.Time, ttl time.Duration, subjectID, role, nonce string) string {
	t.Helper()

	signed, err := testCodec(t).SignSession(token.SessionClaims{
		SubjectID: subjectID,
		Role:      role,
		CSRFNonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}, ttl)
	if err != nil {
		t.Fatalf("sign session failed: %v", err)
	}
	return signed
}

// signEngagementAt mints an engagement proof with a caller-chosen issue time
// so the watch-duration gate can be tested without sleeping.
func signEngagementAt(t *testing.T, issuedAt time.Time, subjectID, targetID string, required int64) string {
	t.Helper()

	signed, err := testCodec(t).SignEngagement(token.EngagementClaims{
		SubjectID:        subjectID,
		TargetID:         targetID,
		RequiredDuration: required,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}, 15*time.Minute)
	if err != nil {
		t.Fatalf("sign engagement failed: %v", err)
	}
	return signed
}
