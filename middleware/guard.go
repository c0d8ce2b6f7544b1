package middleware

import (
	"context"
	"net/http"

	raveauth "github.com/raveboxhq/raveauth"
	"github.com/raveboxhq/raveauth/session"
	"github.com/raveboxhq/raveauth/token"
)

type sessionClaimsContextKey struct{}

// ClaimsFromContext returns the authenticated session claims placed by
// [RequireSession] or [OptionalSession]. The second result is false on
// anonymous requests.
func ClaimsFromContext(ctx context.Context) (*token.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsContextKey{}).(*token.SessionClaims)
	return claims, ok
}

// RequireSession rejects the request with 401 unless the CSRF double-submit
// check passes. On success the claims land in the request context and the
// session is silently refreshed when inside the configured buffer.
func RequireSession(engine *raveauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := raveauth.WithClientIP(r.Context(), r.RemoteAddr)
			claims, err := engine.AuthenticateRequired(ctx, session.FromRequest(r))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			refresh(engine, w, ctx, claims)

			ctx = context.WithValue(ctx, sessionClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession authenticates best-effort: a failed check serves the
// request anonymously instead of rejecting it. Used on endpoints that serve
// both anonymous and authenticated callers, such as engagement-token
// issuance.
func OptionalSession(engine *raveauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := raveauth.WithClientIP(r.Context(), r.RemoteAddr)
			claims := engine.AuthenticateOptional(ctx, session.FromRequest(r))
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			refresh(engine, w, ctx, claims)

			ctx = context.WithValue(ctx, sessionClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin layers an admin role check over [RequireSession].
func RequireAdmin(engine *raveauth.Engine) func(http.Handler) http.Handler {
	requireSession := RequireSession(engine)
	return func(next http.Handler) http.Handler {
		return requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			role, err := raveauth.ParseRole(claims.Role)
			if err != nil || !role.AtLeast(raveauth.RoleAdmin) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// refresh reissues the session cookies when the token is near expiry.
// Concurrent requests may each refresh; last write wins on the client.
func refresh(engine *raveauth.Engine, w http.ResponseWriter, ctx context.Context, claims *token.SessionClaims) {
	issued, err := engine.RefreshIfNearExpiry(ctx, claims)
	if err != nil || issued == nil {
		return
	}
	session.WritePrimary(w, issued.Handle(), engine.CookiePolicy())
}
