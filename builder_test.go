package raveauth

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresUserStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	_, err = New().WithConfig(testConfig()).WithRedis(rdb).Build()
	if err == nil || !strings.Contains(err.Error(), "user store") {
		t.Fatalf("expected user store error, got %v", err)
	}
}

func TestBuildRequiresStoreBackend(t *testing.T) {
	_, err := New().
		WithConfig(testConfig()).
		WithUserStore(&mockUserStore{}).
		Build()
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis requirement error, got %v", err)
	}
}

func TestBuildValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RefreshBuffer = cfg.Session.TTL // buffer must be strictly shorter

	_, err := New().WithConfig(cfg).WithUserStore(&mockUserStore{}).Build()
	if err == nil || !strings.Contains(err.Error(), "refresh buffer") {
		t.Fatalf("expected refresh buffer error, got %v", err)
	}

	cfg = testConfig()
	cfg.Token.PrivateKey = nil
	_, err = New().WithConfig(cfg).WithUserStore(&mockUserStore{}).Build()
	if err == nil {
		t.Fatal("expected signing key error")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := New().WithConfig(testConfig()).WithRedis(rdb).WithUserStore(&mockUserStore{})
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Fatalf("unexpected default session TTL %v", cfg.Session.TTL)
	}
	if cfg.Engagement.TokenTTL != 15*time.Minute {
		t.Fatalf("unexpected default engagement TTL %v", cfg.Engagement.TokenTTL)
	}
	if len(cfg.Token.PrivateKey) != 0 {
		t.Fatal("signing material must never have a default")
	}
}
