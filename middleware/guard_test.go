package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	raveauth "github.com/raveboxhq/raveauth"
	"github.com/raveboxhq/raveauth/middleware"
	"github.com/raveboxhq/raveauth/session"
)

type stubUserStore struct {
	users map[string]raveauth.UserRecord
}

func (s *stubUserStore) FindByID(_ context.Context, userID string) (*raveauth.UserRecord, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, raveauth.ErrUserNotFound
	}
	return &u, nil
}

func newGuardTestEngine(t *testing.T) (*raveauth.Engine, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := raveauth.Config{}
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("guard-test-secret")
	cfg.Session.TTL = 7 * 24 * time.Hour
	cfg.Session.RefreshBuffer = 24 * time.Hour
	cfg.Session.RequireSecureCookies = false
	cfg.Session.SameSitePolicy = http.SameSiteLaxMode
	cfg.Engagement.TokenTTL = 15 * time.Minute
	cfg.Engagement.RequiredDuration = 15

	engine, err := raveauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(&stubUserStore{users: map[string]raveauth.UserRecord{
			"u1": {UserID: "u1", Role: raveauth.RoleUser},
			"a1": {UserID: "a1", Role: raveauth.RoleAdmin},
		}}).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("engine build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func authenticatedRequest(t *testing.T, engine *raveauth.Engine, subjectID string, role raveauth.Role) *http.Request {
	t.Helper()

	issued, err := engine.IssueSession(context.Background(), subjectID, role)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieSession, Value: issued.Token})
	req.AddCookie(&http.Cookie{Name: session.CookieCSRF, Value: issued.CSRFNonce})
	req.Header.Set(session.HeaderCSRF, issued.CSRFNonce)
	return req
}

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for anonymous requests")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSessionPassesClaims(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	var gotSubject string
	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotSubject = claims.SubjectID
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authenticatedRequest(t, engine, "u1", raveauth.RoleUser))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "u1" {
		t.Fatalf("expected subject u1, got %q", gotSubject)
	}
}

func TestRequireSessionRejectsMismatchedHeader(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run on CSRF mismatch")
	}))

	req := authenticatedRequest(t, engine, "u1", raveauth.RoleUser)
	req.Header.Set(session.HeaderCSRF, "forged")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOptionalSessionServesAnonymously(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	handler := middleware.OptionalSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.ClaimsFromContext(r.Context()); ok {
			t.Fatal("expected anonymous context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	handler := middleware.RequireAdmin(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authenticatedRequest(t, engine, "u1", raveauth.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authenticatedRequest(t, engine, "a1", raveauth.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestRequireSessionRefreshesNearExpiry(t *testing.T) {
	engine, done := newGuardTestEngine(t)
	defer done()

	handler := middleware.RequireSession(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// A session issued through the engine is fresh, so no cookies are
	// rewritten on an ordinary request.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authenticatedRequest(t, engine, "u1", raveauth.RoleUser))
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("fresh session must not be refreshed, got %d cookies", len(rec.Result().Cookies()))
	}
}
