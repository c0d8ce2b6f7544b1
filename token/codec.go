package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm used by a [Codec].
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

// Claim kind discriminators. Every token carries exactly one kind; a verify
// call for one kind fails closed on a token of another.
const (
	KindSession    = "session"
	KindEngagement = "engagement"
)

var (
	// ErrMalformed reports a token that cannot be parsed into the expected
	// claim shape at all.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureMismatch reports a parseable token whose signature does not
	// verify under the configured key.
	ErrSignatureMismatch = errors.New("token signature mismatch")
	// ErrExpired reports a well-formed, correctly signed token past its expiry.
	ErrExpired = errors.New("token expired")
)

// Config carries the signing material and validation policy for a [Codec].
// It is read once by [NewCodec] and never mutated afterwards; the secret is
// always injected by the caller, never defaulted.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Codec signs, decodes, and verifies the compact signed tokens used by the
// engine: session tokens and engagement-proof tokens. All methods are pure
// over their inputs and safe for concurrent use.
type Codec struct {
	config Config
}

// SessionClaims is the typed payload of a session token.
type SessionClaims struct {
	SubjectID string `json:"sid"`
	Role      string `json:"role"`
	CSRFNonce string `json:"xsrf"`
	Kind      string `json:"knd"`
	jwt.RegisteredClaims
}

// EngagementClaims is the typed payload of an engagement-proof token. The
// required duration is independent of the token TTL: the former gates the
// rating, the latter bounds how long the proof may be presented.
type EngagementClaims struct {
	SubjectID        string `json:"sid"`
	TargetID         string `json:"tgt"`
	RequiredDuration int64  `json:"dur"`
	Kind             string `json:"knd"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Codec{config: cfg}, nil
}

// SignSession serializes claims with an expiry of issuedAt+ttl and signs the
// result. A zero IssuedAt defaults to now. Failure is a programmer error
// (bad key material), not an expected runtime condition.
func (c *Codec) SignSession(claims SessionClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("invalid ttl")
	}
	claims.Kind = KindSession
	claims.RegisteredClaims = c.registered(claims.RegisteredClaims, ttl)
	return c.sign(claims)
}

// SignEngagement serializes and signs an engagement proof, same expiry rules
// as [Codec.SignSession].
func (c *Codec) SignEngagement(claims EngagementClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("invalid ttl")
	}
	claims.Kind = KindEngagement
	claims.RegisteredClaims = c.registered(claims.RegisteredClaims, ttl)
	return c.sign(claims)
}

// DecodeSession extracts session claims without verifying the signature or
// expiry. Callers that need trust must use [Codec.VerifySession].
func (c *Codec) DecodeSession(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.decode(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindSession {
		return nil, fmt.Errorf("%w: unexpected claim kind %q", ErrMalformed, claims.Kind)
	}
	return claims, nil
}

// VerifySession checks signature and expiry and returns the typed claims.
// Errors are distinguishable via [ErrMalformed], [ErrSignatureMismatch],
// and [ErrExpired].
func (c *Codec) VerifySession(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindSession {
		return nil, fmt.Errorf("%w: unexpected claim kind %q", ErrMalformed, claims.Kind)
	}
	return claims, nil
}

// VerifyEngagement checks signature and expiry on an engagement proof.
func (c *Codec) VerifyEngagement(tokenStr string) (*EngagementClaims, error) {
	claims := &EngagementClaims{}
	if err := c.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != KindEngagement {
		return nil, fmt.Errorf("%w: unexpected claim kind %q", ErrMalformed, claims.Kind)
	}
	return claims, nil
}

func (c *Codec) registered(reg jwt.RegisteredClaims, ttl time.Duration) jwt.RegisteredClaims {
	issued := time.Now()
	if reg.IssuedAt != nil {
		issued = reg.IssuedAt.Time
	}
	reg.IssuedAt = jwt.NewNumericDate(issued)
	reg.ExpiresAt = jwt.NewNumericDate(issued.Add(ttl))
	if c.config.Issuer != "" {
		reg.Issuer = c.config.Issuer
	}
	return reg
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(c.getMethod(), claims)

	signKey, err := c.getSignKey()
	if err != nil {
		return "", err
	}

	return tok.SignedString(signKey)
}

func (c *Codec) decode(tokenStr string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Codec) verify(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.getMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.getVerifyKey()
	})
	if err != nil {
		return classifyParseError(err)
	}
	if !tok.Valid {
		return ErrSignatureMismatch
	}

	return nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		// Unknown kid, wrong algorithm, future iat: all fail closed as
		// signature problems rather than parse problems.
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
}

func (c *Codec) getMethod() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) getSignKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) getVerifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPublicKey(c.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
