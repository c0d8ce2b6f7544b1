package raveauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/raveboxhq/raveauth/session"
	"github.com/raveboxhq/raveauth/token"
)

// BeginImpersonation issues a fresh session for targetSubjectID and pairs it
// with the admin's existing session. The transport layer writes Pair.Active
// under the primary cookie namespace and parks Pair.Underlying under the
// admin namespace, so ending impersonation restores the admin without
// re-authentication. Fails with [ErrForbidden] unless the caller is an admin.
func (e *Engine) BeginImpersonation(ctx context.Context, adminClaims *token.SessionClaims, adminToken, targetSubjectID string) (*session.Pair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if adminClaims == nil || adminClaims.ExpiresAt == nil {
		return nil, ErrUnauthorized
	}

	role, err := ParseRole(adminClaims.Role)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(RoleAdmin) {
		e.metrics.Inc(MetricImpersonationForbidden)
		e.emit(ctx, AuditEvent{
			EventType: AuditImpersonationForbidden,
			SubjectID: adminClaims.SubjectID,
			TargetID:  targetSubjectID,
			Error:     ErrForbidden.Error(),
		})
		return nil, fmt.Errorf("%w: impersonation requires admin role", ErrForbidden)
	}
	if targetSubjectID == "" || targetSubjectID == adminClaims.SubjectID {
		return nil, fmt.Errorf("%w: invalid impersonation target", ErrForbidden)
	}

	target, err := e.users.FindByID(ctx, targetSubjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: impersonation target %s", ErrUserNotFound, targetSubjectID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	issued, err := e.issueFor(target.UserID, target.Role)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricImpersonationBegin)
	e.emit(ctx, AuditEvent{
		EventType: AuditImpersonationBegin,
		SubjectID: adminClaims.SubjectID,
		TargetID:  target.UserID,
		Success:   true,
	})

	return &session.Pair{
		Active: issued.Handle(),
		Underlying: session.Handle{
			Token:     adminToken,
			CSRFNonce: adminClaims.CSRFNonce,
			ExpiresAt: adminClaims.ExpiresAt.Time,
		},
	}, nil
}

// EndImpersonation verifies the parked admin token and re-establishes it as
// the primary session, unchanged. The transport layer writes the returned
// handle under the primary namespace and clears the admin namespace.
func (e *Engine) EndImpersonation(ctx context.Context, parkedAdminToken string) (*session.Handle, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if parkedAdminToken == "" {
		return nil, ErrNoImpersonation
	}

	claims, err := e.codec.VerifySession(parkedAdminToken)
	if err != nil {
		return nil, mapTokenErr(err)
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(RoleAdmin) {
		// A parked non-admin session means the cookie was forged or mixed up;
		// never promote it.
		return nil, fmt.Errorf("%w: parked session is not an admin session", ErrForbidden)
	}

	e.metrics.Inc(MetricImpersonationEnd)
	e.emit(ctx, AuditEvent{
		EventType: AuditImpersonationEnd,
		SubjectID: claims.SubjectID,
		Success:   true,
	})

	return &session.Handle{
		Token:     parkedAdminToken,
		CSRFNonce: claims.CSRFNonce,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
