package raveauth

import (
	"context"
	"fmt"
)

// Role is the total-ordered privilege level carried in session claims.
// Ordering is explicit: a role authorizes an action when it is at least the
// required role. There is no array-position or string comparison anywhere.
type Role uint8

const (
	// RoleUser is the default role for authenticated members.
	RoleUser Role = iota + 1
	// RoleAdmin authorizes administrative operations, including
	// impersonation.
	RoleAdmin
)

// AtLeast reports whether r carries at least the privilege of required.
func (r Role) AtLeast(required Role) bool {
	return r >= required
}

// String returns the wire name of the role as stored in claims.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole maps a claim string back to a Role, failing closed on anything
// unrecognized.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrTokenMalformed, s)
	}
}

// RatingState is a caller's last-known rating direction for a target.
type RatingState uint8

const (
	// RatingNone means the subject has never rated the target, or cleared a
	// previous rating.
	RatingNone RatingState = iota
	// RatingNegative is a thumbs-down.
	RatingNegative
	// RatingPositive is a thumbs-up.
	RatingPositive
)

// String returns a stable name for audit events and store records.
func (s RatingState) String() string {
	switch s {
	case RatingNegative:
		return "negative"
	case RatingPositive:
		return "positive"
	default:
		return "none"
	}
}

// CounterDelta is the signed pair applied to a target's aggregate counters
// for one rating-state transition. A zero value is a valid no-op delta.
type CounterDelta struct {
	Positive int64
	Negative int64
}

// IsZero reports whether applying the delta would change nothing.
func (d CounterDelta) IsZero() bool {
	return d.Positive == 0 && d.Negative == 0
}

// UserRecord is the minimal user projection the engine needs from the
// platform's user collection.
type UserRecord struct {
	UserID string
	Role   Role
}

// UserStore is the external user-lookup collaborator. Implementations return
// [ErrUserNotFound] (possibly wrapped) when no user exists for the id.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (*UserRecord, error)
}

// StatisticsStore is the external counter collaborator. ApplyCounterDelta
// must be atomic increment-by-delta, never read-modify-write, so concurrent
// deltas cannot lose updates. Counters never go below zero.
type StatisticsStore interface {
	ApplyCounterDelta(ctx context.Context, targetID string, delta CounterDelta) error
	Counters(ctx context.Context, targetID string) (positive, negative int64, err error)
}

// RatingStateStore is the external per-(subject, target) rating-state
// collaborator. PriorRating returns [RatingNone] when the subject has never
// rated the target.
type RatingStateStore interface {
	PriorRating(ctx context.Context, subjectID, targetID string) (RatingState, error)
	SetRating(ctx context.Context, subjectID, targetID string, state RatingState) error
}
