package auth

import (
	"testing"
	"time"
)

func testCodec(t *testing.T, opts ...CodecOption) *Codec {
	t.Helper()
	c, err := NewCodec("test-signing-key", opts...)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("  "); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestMintAndDecodeAccess(t *testing.T) {
	c := testCodec(t, WithIssuer("test-api"))
	p := Principal{
		ID:       "u1",
		Kind:     KindEndUser,
		Email:    "agent@example.com",
		Role:     RoleFieldAgent,
		TenantID: "t1",
	}

	token, exp, err := c.MintAccess(p)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got, want := time.Until(exp).Round(time.Minute), time.Hour; got != want {
		t.Fatalf("expected member TTL %v, got %v", want, got)
	}

	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("expected access token, got %q", claims.TokenType)
	}
	if claims.Subject != "user_u1" {
		t.Fatalf("expected subject user_u1, got %q", claims.Subject)
	}
	if claims.TenantID != "t1" || claims.Role != "FieldAgent" {
		t.Fatalf("unexpected snapshot claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
}

func TestAdminTokensGetLongTTL(t *testing.T) {
	c := testCodec(t)
	for _, kind := range []Kind{KindTenantAdmin, KindSuperAdmin} {
		if got := c.TTLFor(kind); got != 24*time.Hour {
			t.Fatalf("kind %s: expected 24h TTL, got %v", kind, got)
		}
	}
	if got := c.TTLFor(KindEndUser); got != time.Hour {
		t.Fatalf("expected 1h TTL for end users, got %v", got)
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	token, _, err := testCodec(t).MintAccess(Principal{ID: "u1", Kind: KindEndUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other, _ := NewCodec("other-key")
	if _, err := other.Decode(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }
	c := testCodec(t, WithCodecClock(clock))

	token, _, err := c.MintAccess(Principal{ID: "u1", Kind: KindEndUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := c.Decode(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := testCodec(t)
	for _, raw := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := c.Decode(raw); err != ErrInvalidToken {
			t.Fatalf("raw %q: expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestMintPasswordReset(t *testing.T) {
	c := testCodec(t)
	token, exp, err := c.MintPasswordReset(KindTenantAdmin, "t9", "owner@example.com")
	if err != nil {
		t.Fatalf("mint reset: %v", err)
	}
	if got := time.Until(exp).Round(time.Minute); got != 15*time.Minute {
		t.Fatalf("expected 15m reset TTL, got %v", got)
	}
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.TokenType != TokenTypePasswordReset {
		t.Fatalf("expected reset token type, got %q", claims.TokenType)
	}
	if claims.Subject != "tenant_t9" {
		t.Fatalf("expected subject tenant_t9, got %q", claims.Subject)
	}
}

func TestParseSubject(t *testing.T) {
	cases := []struct {
		sub    string
		kind   Kind
		id     string
		legacy bool
	}{
		{"user_42", KindEndUser, "42", false},
		{"tenant_t1", KindTenantAdmin, "t1", false},
		{"superadmin_s1", KindSuperAdmin, "s1", false},
		// Bare ids and unrecognized prefixes fall back to legacy end users.
		{"42", KindEndUser, "42", true},
		{"some_thing", KindEndUser, "some_thing", true},
	}
	for _, tc := range cases {
		ref, err := ParseSubject(tc.sub)
		if err != nil {
			t.Fatalf("subject %q: %v", tc.sub, err)
		}
		if ref.Kind != tc.kind || ref.ID != tc.id || ref.Legacy != tc.legacy {
			t.Fatalf("subject %q: got %+v", tc.sub, ref)
		}
	}
	for _, sub := range []string{"", "   ", "user_"} {
		if _, err := ParseSubject(sub); err != ErrInvalidToken {
			t.Fatalf("subject %q: expected ErrInvalidToken, got %v", sub, err)
		}
	}
}

func TestIsExpired(t *testing.T) {
	current := time.Now()
	c := testCodec(t, WithCodecClock(func() time.Time { return current }))
	token, _, err := c.MintAccess(Principal{ID: "u1", Kind: KindEndUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.IsExpired(claims) {
		t.Fatalf("fresh token must not be expired")
	}
	current = current.Add(90 * time.Minute)
	if !c.IsExpired(claims) {
		t.Fatalf("token past TTL must be expired")
	}
	if !c.IsExpired(nil) {
		t.Fatalf("nil claims count as expired")
	}
}
