package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/audit"
)

type captureSink struct {
	events []audit.Event
}

func (s *captureSink) Emit(_ context.Context, e audit.Event) {
	s.events = append(s.events, e)
}

func (s *captureSink) last() audit.Event {
	if len(s.events) == 0 {
		return audit.Event{}
	}
	return s.events[len(s.events)-1]
}

func serviceWithUser(t *testing.T, u *UserRecord, sink audit.Sink) (*Service, *stubStore) {
	t.Helper()
	store := &stubStore{
		users: stubUserStore{
			findByEmail: func(_ context.Context, email string) (*UserRecord, error) {
				if u != nil && strings.EqualFold(email, u.Email) {
					return u, nil
				}
				return nil, ErrNotFound
			},
			findByID: func(_ context.Context, id string) (*UserRecord, error) {
				if u != nil && id == u.ID {
					return u, nil
				}
				return nil, ErrNotFound
			},
		},
	}
	resolver := NewResolver(store, NewCatalog())
	codec, err := NewCodec("service-test-key")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return NewService(store, resolver, codec, WithAuditSink(sink)), store
}

func TestLoginSuccess(t *testing.T) {
	digest, err := HashPassword("Corr3ct-Horse!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	sink := &captureSink{}
	svc, _ := serviceWithUser(t, u, sink)

	session, err := svc.Login(context.Background(), "U1@Example.com ", "Corr3ct-Horse!", ClientMeta{IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" || session.Principal.ID != "u1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if e := sink.last(); e.Type != audit.EventLoginSuccess || !e.Success || e.ClientIP != "1.2.3.4" {
		t.Fatalf("unexpected audit event: %+v", e)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	sink := &captureSink{}
	svc, _ := serviceWithUser(t, nil, sink)

	if _, err := svc.Login(context.Background(), "ghost@example.com", "whatever", ClientMeta{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	e := sink.last()
	if e.Type != audit.EventLoginFailed || e.Details["reason"] != "unknown_email" {
		t.Fatalf("unexpected audit event: %+v", e)
	}
}

func TestLoginBadPassword(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	sink := &captureSink{}
	svc, _ := serviceWithUser(t, u, sink)

	if _, err := svc.Login(context.Background(), u.Email, "wrong", ClientMeta{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if e := sink.last(); e.Details["reason"] != "bad_password" {
		t.Fatalf("unexpected audit event: %+v", e)
	}
}

func TestLoginEmptyInput(t *testing.T) {
	svc, _ := serviceWithUser(t, nil, audit.NopSink{})
	if _, err := svc.Login(context.Background(), "", "pw", ClientMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.c", "", ClientMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	sum := sha256.Sum256([]byte("OldSecret1!"))
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = hex.EncodeToString(sum[:])

	svc, store := serviceWithUser(t, u, audit.NopSink{})

	var upgraded string
	store.users.setPassword = func(_ context.Context, id, digest string) error {
		if id != "u1" {
			t.Fatalf("unexpected id %q", id)
		}
		upgraded = digest
		return nil
	}

	if _, err := svc.Login(context.Background(), u.Email, "OldSecret1!", ClientMeta{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.HasPrefix(upgraded, "$2") {
		t.Fatalf("expected bcrypt re-hash, got %q", upgraded)
	}
	if ok, legacy := VerifyPassword(upgraded, "OldSecret1!"); !ok || legacy {
		t.Fatalf("upgraded digest must verify as bcrypt")
	}
}

func TestRequestPasswordResetIsGeneric(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	sink := &captureSink{}
	svc, _ := serviceWithUser(t, u, sink)

	token, found, err := svc.RequestPasswordReset(context.Background(), u.Email, ClientMeta{})
	if err != nil || !found || token == "" {
		t.Fatalf("expected reset token, got token=%q found=%v err=%v", token, found, err)
	}

	// Unknown emails produce no error and no token.
	token, found, err = svc.RequestPasswordReset(context.Background(), "ghost@example.com", ClientMeta{})
	if err != nil || found || token != "" {
		t.Fatalf("expected silent miss, got token=%q found=%v err=%v", token, found, err)
	}
}

func TestConfirmPasswordReset(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	svc, store := serviceWithUser(t, u, audit.NopSink{})

	var updated string
	store.users.setPassword = func(_ context.Context, id, d string) error {
		updated = d
		return nil
	}

	token, _, err := svc.RequestPasswordReset(context.Background(), u.Email, ClientMeta{})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := svc.ConfirmPasswordReset(context.Background(), token, "weak", ClientMeta{}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(context.Background(), "garbage", "N3w-Str0ng-Pass!", ClientMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(context.Background(), token, "N3w-Str0ng-Pass!", ClientMeta{}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if ok, _ := VerifyPassword(updated, "N3w-Str0ng-Pass!"); !ok {
		t.Fatalf("stored digest does not match the new password")
	}
}

func TestConfirmPasswordResetRejectsAccessTokens(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	svc, _ := serviceWithUser(t, u, audit.NopSink{})

	session, err := svc.Login(context.Background(), u.Email, "Corr3ct-Horse!", ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.ConfirmPasswordReset(context.Background(), session.Token, "N3w-Str0ng-Pass!", ClientMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not confirm a reset, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	sink := &captureSink{}
	svc, store := serviceWithUser(t, u, sink)

	var updated string
	store.users.setPassword = func(_ context.Context, _, d string) error {
		updated = d
		return nil
	}

	principal := Principal{ID: "u1", Kind: KindEndUser, Email: u.Email}

	if err := svc.ChangePassword(context.Background(), principal, "nope", "N3w-Str0ng-Pass!", ClientMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("wrong current password: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), principal, "Corr3ct-Horse!", "weak", ClientMeta{}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), principal, "Corr3ct-Horse!", "N3w-Str0ng-Pass!", ClientMeta{}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if ok, _ := VerifyPassword(updated, "N3w-Str0ng-Pass!"); !ok {
		t.Fatalf("stored digest does not match the new password")
	}
	if e := sink.last(); e.Type != audit.EventPasswordChanged {
		t.Fatalf("unexpected audit event: %+v", e)
	}
}

func TestAuditEventsCarryNoSecrets(t *testing.T) {
	digest, _ := HashPassword("Corr3ct-Horse!")
	u := activeUser("u1", "t1", "member")
	u.PasswordHash = digest

	var buf bytes.Buffer
	svc, _ := serviceWithUser(t, u, audit.NewWriterSink(&buf))

	_, _ = svc.Login(context.Background(), u.Email, "Corr3ct-Horse!", ClientMeta{IP: "1.2.3.4", UserAgent: "test"})
	_, _ = svc.Login(context.Background(), u.Email, "wrong-pass", ClientMeta{})

	out := buf.String()
	if strings.Contains(out, "Corr3ct-Horse!") || strings.Contains(out, "wrong-pass") {
		t.Fatalf("audit log leaked password material: %s", out)
	}
	if strings.Contains(out, digest) {
		t.Fatalf("audit log leaked a password digest")
	}
}
