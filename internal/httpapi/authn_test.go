package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

func agentToken(t *testing.T, e *testEnv) string {
	return e.tokenFor(t, auth.Principal{
		ID: "u1", Kind: auth.KindEndUser, Email: "agent@example.com",
		TenantID: "t1", Role: auth.RoleFieldAgent,
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken(t, e))
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuthAcceptsCookie(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: agentToken(t, e)})
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAuthHeaderBeatsCookie(t *testing.T) {
	e := newTestEnv(t)

	// A valid cookie does not rescue a garbage header.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: agentToken(t, e)})
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthMalformedHeaderDoesNotFallThrough(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Token abc")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: agentToken(t, e)})
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	e := newTestEnv(t)

	past := time.Now().Add(-3 * time.Hour)
	codec, err := auth.NewCodec("httpapi-test-key", auth.WithCodecClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	token, _, err := codec.MintAccess(auth.Principal{ID: "u1", Kind: auth.KindEndUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}
}

func TestAuthRejectsResetTokenOnDomainEndpoints(t *testing.T) {
	e := newTestEnv(t)

	token, _, err := e.codec.MintPasswordReset(auth.KindEndUser, "u1", "agent@example.com")
	if err != nil {
		t.Fatalf("mint reset: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reset token must not pass the pipeline, got %d", rr.Code)
	}
}

func TestAuthRejectsDeletedPrincipal(t *testing.T) {
	e := newTestEnv(t)
	token := e.tokenFor(t, auth.Principal{ID: "ghost", Kind: auth.KindEndUser})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for vanished principal, got %d", rr.Code)
	}
}

func TestAuthRejectsInactivePrincipal(t *testing.T) {
	e := newTestEnv(t)
	e.store.users["u1"].Status = auth.StatusInactive

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+agentToken(t, e))
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive principal, got %d", rr.Code)
	}
}

func TestAuthAcceptsLegacyBareSubject(t *testing.T) {
	e := newTestEnv(t)

	// Mint a token whose subject is a bare id, the way the old system did.
	claims := &auth.Claims{TokenType: auth.TokenTypeAccess}
	token := signRawClaims(t, "httpapi-test-key", "u1", claims)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("legacy subject must still resolve, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPublicPathsSkipAuth(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		e.api.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("path %s: expected 200, got %d", path, rr.Code)
		}
	}
}
