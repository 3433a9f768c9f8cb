package httpapi

import (
	"net/http"
	"strings"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// publicPaths never require a principal.
var publicPaths = map[string]struct{}{
	"/auth/login":                  {},
	"/auth/logout-force":           {},
	"/auth/password-reset":         {},
	"/auth/password-reset/confirm": {},
	"/auth/validate-password":      {},
	"/healthz":                     {},
	"/readyz":                      {},
	"/metrics":                     {},
}

// optionalPaths get a principal when a valid token is present but serve
// anonymous requests as well.
var optionalPaths = map[string]struct{}{}

// withAuth is the per-request authentication pipeline. Token extraction
// prefers the Authorization header over the cookie; decode strictly precedes
// the principal load, which strictly precedes any policy decision downstream.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}
		_, optional := optionalPaths[r.URL.Path]

		raw := extractToken(r, a.cookies)
		if raw == "" {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := a.codec.Decode(raw)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w, "invalid token")
			return
		}

		principal, err := a.resolver.LoadFromClaims(r.Context(), claims)
		if err != nil {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			writeDomainError(w, err)
			return
		}

		if ref, err := auth.ParseSubject(claims.Subject); err == nil && ref.Legacy {
			a.service.AuditLegacySubject(r.Context(), principal, clientMeta(r))
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withLoginRateLimit guards the credential endpoints with the sliding-window
// limiter keyed by client IP and route. Both windows must hold.
func (a *API) withLoginRateLimit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next(w, r)
			return
		}
		identifier := clientIP(r) + ":" + route
		if !a.limiter.Check(identifier) {
			a.service.AuditRateLimited(r.Context(), clientMeta(r), route)
			a.observeRateLimited()
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// extractToken prefers the Authorization header; the cookie is the fallback.
func extractToken(r *http.Request, cookies *CookieAdapter) string {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" {
		if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(header[len(bearerPrefix):])
		}
		// A malformed header does not fall through to the cookie; the
		// client asked for header auth and got it wrong.
		return ""
	}
	if cookies != nil {
		return cookies.ReadToken(r)
	}
	return ""
}
