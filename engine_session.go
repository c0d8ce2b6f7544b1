package raveauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/raveboxhq/raveauth/internal"
	"github.com/raveboxhq/raveauth/session"
	"github.com/raveboxhq/raveauth/token"
)

// IssuedSession is the result of minting a session token: the signed token,
// the CSRF nonce that must be mirrored into the XSRF cookie, and the shared
// expiry.
type IssuedSession struct {
	Token     string
	CSRFNonce string
	ExpiresAt time.Time
}

// Handle converts the issued session into the transport-facing value.
func (s IssuedSession) Handle() session.Handle {
	return session.Handle{
		Token:     s.Token,
		CSRFNonce: s.CSRFNonce,
		ExpiresAt: s.ExpiresAt,
	}
}

// IssueSession mints a new session token for subjectID with a fresh CSRF
// nonce and the configured TTL. Claims are immutable once issued; refresh
// creates a new claim set rather than mutating this one.
func (e *Engine) IssueSession(ctx context.Context, subjectID string, role Role) (*IssuedSession, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if subjectID == "" {
		return nil, fmt.Errorf("%w: empty subject id", ErrUserNotFound)
	}

	issued, err := e.issueFor(subjectID, role)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSessionIssued)
	e.emit(ctx, AuditEvent{
		EventType: AuditSessionIssued,
		SubjectID: subjectID,
		Success:   true,
		Metadata:  map[string]string{"role": role.String()},
	})

	return issued, nil
}

// AuthenticateRequired runs the CSRF double-submit check and returns the
// trusted claims. Any rejection means the request must be treated as
// unauthenticated and respond with a 401-equivalent; no partial trust is
// granted. The returned error is always one of the token or CSRF sentinels so
// rejections stay distinguishable.
func (e *Engine) AuthenticateRequired(ctx context.Context, creds session.Credentials) (*token.SessionClaims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.checkCSRF(ctx, creds)
}

// AuthenticateOptional runs the same check but maps every rejection to an
// anonymous result. Used on endpoints serving both anonymous and
// authenticated callers.
func (e *Engine) AuthenticateOptional(ctx context.Context, creds session.Credentials) *token.SessionClaims {
	if e.ready() != nil {
		return nil
	}
	claims, err := e.checkCSRF(ctx, creds)
	if err != nil {
		return nil
	}
	return claims
}

// RefreshIfNearExpiry reissues the session when it is inside the configured
// refresh buffer, re-reading the user so the new claims carry the current
// role. Outside the buffer it returns (nil, nil). Concurrent refreshes are
// safe: each mints an independent token and clients adopt the most recently
// set cookie.
func (e *Engine) RefreshIfNearExpiry(ctx context.Context, claims *token.SessionClaims) (*IssuedSession, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if claims == nil || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry claim", ErrTokenMalformed)
	}

	if time.Until(claims.ExpiresAt.Time) > e.config.Session.RefreshBuffer {
		return nil, nil
	}

	user, err := e.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: refresh subject %s", ErrUserNotFound, claims.SubjectID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	issued, err := e.issueFor(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricSessionRefreshed)
	e.emit(ctx, AuditEvent{
		EventType: AuditSessionRefreshed,
		SubjectID: user.UserID,
		Success:   true,
	})

	return issued, nil
}

// Logout records the logout. Cookie clearing is the transport layer's job
// (session.ClearPrimary) and happens unconditionally, even when the
// presented credentials no longer verify.
func (e *Engine) Logout(ctx context.Context, creds session.Credentials) {
	if e.ready() != nil {
		return
	}

	subjectID := ""
	if claims, err := e.codec.DecodeSession(creds.SessionToken); err == nil {
		subjectID = claims.SubjectID
	}

	e.metrics.Inc(MetricLogout)
	e.emit(ctx, AuditEvent{
		EventType: AuditLogout,
		SubjectID: subjectID,
		Success:   true,
	})
}

// checkCSRF is the shared double-submit path: verify the session token, then
// require the claim nonce, the header echo, and the cookie copy to be
// bit-identical. Missing credentials and mismatches reject identically but
// are audited under distinct event types.
func (e *Engine) checkCSRF(ctx context.Context, creds session.Credentials) (*token.SessionClaims, error) {
	if creds.SessionToken == "" {
		e.metrics.Inc(MetricCSRFMissing)
		e.emit(ctx, AuditEvent{
			EventType: AuditCSRFMissingCredential,
			Metadata:  map[string]string{"credential": "session"},
		})
		return nil, fmt.Errorf("%w: session token", ErrCSRFMissingCredential)
	}

	claims, err := e.codec.VerifySession(creds.SessionToken)
	if err != nil {
		mapped := mapTokenErr(err)
		if errors.Is(mapped, ErrTokenExpired) {
			e.metrics.Inc(MetricAuthExpired)
			e.emit(ctx, AuditEvent{EventType: AuditAuthExpired, Error: mapped.Error()})
		} else {
			e.metrics.Inc(MetricAuthInvalid)
			e.emit(ctx, AuditEvent{EventType: AuditAuthInvalid, Error: mapped.Error()})
		}
		return nil, mapped
	}

	if _, err := ParseRole(claims.Role); err != nil {
		e.metrics.Inc(MetricAuthInvalid)
		e.emit(ctx, AuditEvent{EventType: AuditAuthInvalid, SubjectID: claims.SubjectID, Error: err.Error()})
		return nil, err
	}

	if creds.HeaderNonce == "" || creds.CookieNonce == "" {
		e.metrics.Inc(MetricCSRFMissing)
		e.emit(ctx, AuditEvent{
			EventType: AuditCSRFMissingCredential,
			SubjectID: claims.SubjectID,
			Metadata:  map[string]string{"credential": missingCredential(creds)},
		})
		return nil, ErrCSRFMissingCredential
	}

	if !nonceEqual(claims.CSRFNonce, creds.HeaderNonce) || !nonceEqual(claims.CSRFNonce, creds.CookieNonce) {
		e.metrics.Inc(MetricCSRFMismatch)
		e.emit(ctx, AuditEvent{
			EventType: AuditCSRFMismatch,
			SubjectID: claims.SubjectID,
		})
		return nil, ErrCSRFMismatch
	}

	e.metrics.Inc(MetricAuthSuccess)
	e.emit(ctx, AuditEvent{
		EventType: AuditAuthSuccess,
		SubjectID: claims.SubjectID,
		Success:   true,
	})

	return claims, nil
}

func (e *Engine) issueFor(subjectID string, role Role) (*IssuedSession, error) {
	nonce := internal.NewCSRFNonce()
	signed, err := e.codec.SignSession(token.SessionClaims{
		SubjectID: subjectID,
		Role:      role.String(),
		CSRFNonce: nonce,
	}, e.config.Session.TTL)
	if err != nil {
		return nil, err
	}

	return &IssuedSession{
		Token:     signed,
		CSRFNonce: nonce,
		ExpiresAt: time.Now().Add(e.config.Session.TTL),
	}, nil
}

func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, token.ErrSignatureMismatch):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, token.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func nonceEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func missingCredential(creds session.Credentials) string {
	switch {
	case creds.HeaderNonce == "" && creds.CookieNonce == "":
		return "header,cookie"
	case creds.HeaderNonce == "":
		return "header"
	default:
		return "cookie"
	}
}
