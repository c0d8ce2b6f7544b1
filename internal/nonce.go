package internal

import (
	"strings"

	"github.com/google/uuid"
)

// AnonymousSubjectPrefix marks engagement-proof subjects that were issued
// before login. The marker keeps the binding explicit instead of empty.
const AnonymousSubjectPrefix = "anon:"

// NewCSRFNonce returns the opaque value carried in the session claims, the
// XSRF cookie, and the x-xsrf-token header. One nonce per issued session.
func NewCSRFNonce() string {
	return uuid.NewString()
}

// NewAnonymousSubject returns a fresh anonymous subject marker.
func NewAnonymousSubject() string {
	return AnonymousSubjectPrefix + uuid.NewString()
}

// IsAnonymousSubject reports whether a subject id is an anonymous marker.
func IsAnonymousSubject(subjectID string) bool {
	return strings.HasPrefix(subjectID, AnonymousSubjectPrefix)
}
