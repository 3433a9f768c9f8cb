package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/audit"
)

// ClientMeta carries request attribution for audit entries.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// Service orchestrates the credential flows: login, logout and the password
// lifecycle. All row writes go through the identity stores in a single
// UPDATE each, so retries are idempotent.
type Service struct {
	store    Store
	resolver *Resolver
	codec    *Codec
	sink     audit.Sink
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAuditSink routes audit events to the given sink.
func WithAuditSink(sink audit.Sink) ServiceOption {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithServiceClock overrides the time source, for tests.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the Service.
func NewService(store Store, resolver *Resolver, codec *Codec, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		resolver: resolver,
		codec:    codec,
		sink:     audit.NopSink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates the credentials and mints an access token. Every
// failure collapses to ErrUnauthenticated so the response cannot be used to
// probe which store an email lives in. A successful legacy-hash match
// upgrades the stored digest in place.
func (s *Service) Login(ctx context.Context, email, password string, meta ClientMeta) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidInput
	}

	principal, digest, err := s.resolver.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.emit(ctx, audit.EventLoginFailed, Principal{Email: email}, meta, false, map[string]any{"reason": "unknown_email"})
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}

	ok, legacy := VerifyPassword(digest, password)
	if !ok {
		s.emit(ctx, audit.EventLoginFailed, principal, meta, false, map[string]any{"reason": "bad_password"})
		return Session{}, ErrUnauthenticated
	}
	if legacy {
		if rehash, err := HashPassword(password); err == nil {
			_ = s.setPasswordHash(ctx, principal.Kind, principal.ID, rehash)
		}
	}

	token, exp, err := s.codec.MintAccess(principal)
	if err != nil {
		return Session{}, fmt.Errorf("mint access token: %w", err)
	}

	s.emit(ctx, audit.EventLoginSuccess, principal, meta, true, nil)
	return Session{Token: token, ExpiresAt: exp, Principal: principal}, nil
}

// Logout records the event. Cookie teardown happens at the HTTP edge.
func (s *Service) Logout(ctx context.Context, principal Principal, meta ClientMeta) {
	s.emit(ctx, audit.EventLogout, principal, meta, true, nil)
}

// ForceLogout records the unauthenticated logout used by stuck clients.
func (s *Service) ForceLogout(ctx context.Context, meta ClientMeta) {
	s.emit(ctx, audit.EventForceLogout, Principal{}, meta, true, nil)
}

// RequestPasswordReset mints a reset token when the email belongs to an
// active principal. The caller always reports generic success; the token and
// a found flag come back so the host application can deliver the email.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, meta ClientMeta) (token string, found bool, err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", false, ErrInvalidInput
	}
	principal, _, err := s.resolver.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.emit(ctx, audit.EventPasswordResetRequested, Principal{Email: email}, meta, false, map[string]any{"reason": "unknown_email"})
			return "", false, nil
		}
		return "", false, err
	}
	token, _, err = s.codec.MintPasswordReset(principal.Kind, principal.ID, principal.Email)
	if err != nil {
		return "", false, fmt.Errorf("mint reset token: %w", err)
	}
	s.emit(ctx, audit.EventPasswordResetRequested, principal, meta, true, nil)
	return token, true, nil
}

// ConfirmPasswordReset consumes a reset token and installs a new password.
// Access tokens are refused here the same way reset tokens are refused on
// domain endpoints.
func (s *Service) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string, meta ClientMeta) error {
	claims, err := s.codec.Decode(rawToken)
	if err != nil || claims.TokenType != TokenTypePasswordReset {
		return ErrInvalidToken
	}
	if res := ValidateStrength(newPassword); !res.Valid {
		return ErrWeakPassword
	}
	ref, err := ParseSubject(claims.Subject)
	if err != nil {
		return ErrInvalidToken
	}
	digest, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.setPasswordHash(ctx, ref.Kind, ref.ID, digest); err != nil {
		return err
	}
	s.emit(ctx, audit.EventPasswordResetSuccess, Principal{ID: ref.ID, Kind: ref.Kind, Email: claims.Email}, meta, true, nil)
	return nil
}

// ChangePassword verifies the current password and installs the new one.
func (s *Service) ChangePassword(ctx context.Context, principal Principal, current, next string, meta ClientMeta) error {
	digest, err := s.passwordHashOf(ctx, principal.Kind, principal.ID)
	if err != nil {
		return err
	}
	if ok, _ := VerifyPassword(digest, current); !ok {
		return ErrInvalidInput
	}
	if res := ValidateStrength(next); !res.Valid {
		return ErrWeakPassword
	}
	hashed, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.setPasswordHash(ctx, principal.Kind, principal.ID, hashed); err != nil {
		return err
	}
	s.emit(ctx, audit.EventPasswordChanged, principal, meta, true, nil)
	return nil
}

// AuditDenied records a policy denial with its rule id.
func (s *Service) AuditDenied(ctx context.Context, principal Principal, meta ClientMeta, d Decision, kind EntityKind, action Action) {
	s.emit(ctx, audit.EventAccessDenied, principal, meta, false, map[string]any{
		"reason":  d.Reason,
		"rule_id": d.RuleID,
		"entity":  string(kind),
		"action":  string(action),
	})
}

// AuditRateLimited records a rejected login or reset attempt.
func (s *Service) AuditRateLimited(ctx context.Context, meta ClientMeta, route string) {
	s.emit(ctx, audit.EventRateLimitExceeded, Principal{}, meta, false, map[string]any{"route": route})
}

// AuditLegacySubject records acceptance of a bare-id token subject. The
// tolerance is scheduled for removal; the event tracks remaining traffic.
func (s *Service) AuditLegacySubject(ctx context.Context, principal Principal, meta ClientMeta) {
	s.emit(ctx, audit.EventLegacyTokenSubject, principal, meta, true, nil)
}

func (s *Service) emit(ctx context.Context, event string, p Principal, meta ClientMeta, success bool, details map[string]any) {
	s.sink.Emit(ctx, audit.Event{
		Time:        s.now().UTC(),
		Type:        event,
		PrincipalID: p.ID,
		Email:       p.Email,
		ClientIP:    meta.IP,
		UserAgent:   meta.UserAgent,
		Success:     success,
		Details:     details,
	})
}

func (s *Service) setPasswordHash(ctx context.Context, kind Kind, id, digest string) error {
	switch kind {
	case KindEndUser:
		return s.store.Users(ctx).SetPasswordHash(ctx, id, digest)
	case KindTenantAdmin:
		return s.store.Tenants(ctx).SetPasswordHash(ctx, id, digest)
	case KindSuperAdmin:
		return s.store.SuperAdmins(ctx).SetPasswordHash(ctx, id, digest)
	default:
		return ErrInvalidInput
	}
}

func (s *Service) passwordHashOf(ctx context.Context, kind Kind, id string) (string, error) {
	switch kind {
	case KindEndUser:
		u, err := s.store.Users(ctx).FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return u.PasswordHash, nil
	case KindTenantAdmin:
		t, err := s.store.Tenants(ctx).FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return t.PasswordHash, nil
	case KindSuperAdmin:
		sa, err := s.store.SuperAdmins(ctx).FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sa.PasswordHash, nil
	default:
		return "", ErrInvalidInput
	}
}
