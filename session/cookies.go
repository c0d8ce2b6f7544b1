package session

import (
	"net/http"
	"time"
)

// Cookie and header names are fixed by the deployed ravebox clients and must
// not change.
const (
	// CookieSession is the primary session token cookie, httpOnly.
	CookieSession = "ravebox"
	// CookieCSRF carries the CSRF nonce. Deliberately NOT httpOnly: client
	// script must read it to echo it back in the header.
	CookieCSRF = "XSRF-TOKEN"
	// CookieSessionAdmin parks the admin's own session during impersonation.
	CookieSessionAdmin = "ravebox-admin"
	// CookieCSRFAdmin parks the admin's CSRF nonce during impersonation.
	CookieCSRFAdmin = "XSRF-TOKEN-ADMIN"
	// HeaderCSRF must carry the CSRF nonce on every state-mutating
	// authenticated request.
	HeaderCSRF = "x-xsrf-token"
)

// CookiePolicy carries the attributes applied to every cookie written by
// this package.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// Credentials is the raw material extracted from a request for the CSRF
// double-submit check. Empty fields mean the credential was absent.
type Credentials struct {
	SessionToken string
	HeaderNonce  string
	CookieNonce  string
}

// WritePrimary sets the primary session and CSRF cookies for h. Refresh uses
// the same call: both cookies are always overwritten together.
func WritePrimary(w http.ResponseWriter, h Handle, p CookiePolicy) {
	http.SetCookie(w, sessionCookie(CookieSession, h.Token, h.ExpiresAt, p))
	http.SetCookie(w, csrfCookie(CookieCSRF, h.CSRFNonce, h.ExpiresAt, p))
}

// WriteAdmin parks h under the admin cookie namespace.
func WriteAdmin(w http.ResponseWriter, h Handle, p CookiePolicy) {
	http.SetCookie(w, sessionCookie(CookieSessionAdmin, h.Token, h.ExpiresAt, p))
	http.SetCookie(w, csrfCookie(CookieCSRFAdmin, h.CSRFNonce, h.ExpiresAt, p))
}

// ClearPrimary expires both primary cookies unconditionally.
func ClearPrimary(w http.ResponseWriter, p CookiePolicy) {
	http.SetCookie(w, expiredCookie(CookieSession, true, p))
	http.SetCookie(w, expiredCookie(CookieCSRF, false, p))
}

// ClearAdmin expires both admin-namespace cookies.
func ClearAdmin(w http.ResponseWriter, p CookiePolicy) {
	http.SetCookie(w, expiredCookie(CookieSessionAdmin, true, p))
	http.SetCookie(w, expiredCookie(CookieCSRFAdmin, false, p))
}

// FromRequest extracts the primary-namespace credentials. Absent cookies or
// header yield empty strings; the engine decides what absence means.
func FromRequest(r *http.Request) Credentials {
	return Credentials{
		SessionToken: cookieValue(r, CookieSession),
		HeaderNonce:  r.Header.Get(HeaderCSRF),
		CookieNonce:  cookieValue(r, CookieCSRF),
	}
}

// AdminTokenFromRequest extracts the parked admin session token, if any.
func AdminTokenFromRequest(r *http.Request) string {
	return cookieValue(r, CookieSessionAdmin)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func sessionCookie(name, value string, expires time.Time, p CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

func csrfCookie(name, value string, expires time.Time, p CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		Expires:  expires,
		HttpOnly: false,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

func expiredCookie(name string, httpOnly bool, p CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}
