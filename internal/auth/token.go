package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Token types. Only access tokens ever authorize a domain action.
	TokenTypeAccess        = "access"
	TokenTypePasswordReset = "password_reset"
)

// Claims is the decoded payload of a signed token. The role, tenant and
// user-type fields are snapshots taken at mint time; the pipeline re-loads
// the principal on every request, so a stale snapshot never widens access.
type Claims struct {
	TokenType string `json:"type"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	UserType  string `json:"user_type,omitempty"`
	jwt.RegisteredClaims
}

// SubjectRef is the parsed form of a token subject.
type SubjectRef struct {
	Kind Kind
	ID   string
	// Legacy marks a bare-id subject without a kind prefix. Those are
	// mapped to end users and flagged for a deprecation audit event.
	Legacy bool
}

// FormatSubject renders the canonical "<kind>_<id>" subject.
func FormatSubject(kind Kind, id string) string {
	return string(kind) + "_" + id
}

// ParseSubject splits a token subject into kind and id. A subject without a
// recognized prefix is accepted as a legacy end-user id.
func ParseSubject(sub string) (SubjectRef, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return SubjectRef{}, ErrInvalidToken
	}
	prefix, id, found := strings.Cut(sub, "_")
	if found {
		switch Kind(prefix) {
		case KindEndUser, KindTenantAdmin, KindSuperAdmin:
			if id == "" {
				return SubjectRef{}, ErrInvalidToken
			}
			return SubjectRef{Kind: Kind(prefix), ID: id}, nil
		}
	}
	return SubjectRef{Kind: KindEndUser, ID: sub, Legacy: true}, nil
}

// Codec signs and verifies bearer tokens. The signing key is loaded once at
// startup and never rotates within a process lifetime. Only the configured
// HMAC method is accepted on decode.
type Codec struct {
	secret    []byte
	method    *jwt.SigningMethodHMAC
	adminTTL  time.Duration
	memberTTL time.Duration
	resetTTL  time.Duration
	issuer    string
	now       func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithTTLs overrides the per-kind token lifetimes. Zero values keep the
// defaults.
func WithTTLs(admin, member, reset time.Duration) CodecOption {
	return func(c *Codec) {
		if admin > 0 {
			c.adminTTL = admin
		}
		if member > 0 {
			c.memberTTL = member
		}
		if reset > 0 {
			c.resetTTL = reset
		}
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) { c.issuer = strings.TrimSpace(issuer) }
}

// WithCodecClock overrides the time source, for tests.
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec for the given signing key.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing key is required")
	}
	c := &Codec{
		secret:    []byte(secret),
		method:    jwt.SigningMethodHS256,
		adminTTL:  24 * time.Hour,
		memberTTL: time.Hour,
		resetTTL:  15 * time.Minute,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTLFor returns the access-token lifetime for a principal kind.
func (c *Codec) TTLFor(kind Kind) time.Duration {
	switch kind {
	case KindSuperAdmin, KindTenantAdmin:
		return c.adminTTL
	default:
		return c.memberTTL
	}
}

// MintAccess issues an access token for the principal. Expiration depends on
// the principal kind: admins get the long TTL, end users the short one.
func (c *Codec) MintAccess(p Principal) (string, time.Time, error) {
	if p.ID == "" {
		return "", time.Time{}, ErrInvalidInput
	}
	now := c.now().UTC()
	exp := now.Add(c.TTLFor(p.Kind))
	claims := Claims{
		TokenType: TokenTypeAccess,
		Email:     p.Email,
		Role:      p.Role.String(),
		TenantID:  p.TenantID,
		UserType:  string(p.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   FormatSubject(p.Kind, p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// MintPasswordReset issues a short-lived reset token bound to an email.
func (c *Codec) MintPasswordReset(kind Kind, id, email string) (string, time.Time, error) {
	if id == "" || email == "" {
		return "", time.Time{}, ErrInvalidInput
	}
	now := c.now().UTC()
	exp := now.Add(c.resetTTL)
	claims := Claims{
		TokenType: TokenTypePasswordReset,
		Email:     email,
		UserType:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   FormatSubject(kind, id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies signature and expiry and returns the claims. Every failure
// collapses to ErrInvalidToken; nothing propagates from the jwt library.
func (c *Codec) Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsExpired reports whether the claims expired, comparing in UTC.
func (c *Codec) IsExpired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return c.now().UTC().After(claims.ExpiresAt.Time.UTC())
}
