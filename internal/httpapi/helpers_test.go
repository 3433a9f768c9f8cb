package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/config"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/store/pg"
)

// fakeStore backs the handler tests with a handful of in-memory rows.
type fakeStore struct {
	users       map[string]*auth.UserRecord
	tenants     map[string]*auth.TenantRecord
	superAdmins map[string]*auth.SuperAdminRecord
}

var _ auth.Store = (*fakeStore)(nil)

func (s *fakeStore) Users(context.Context) auth.UserStore             { return fakeUsers{s} }
func (s *fakeStore) Tenants(context.Context) auth.TenantStore         { return fakeTenants{s} }
func (s *fakeStore) SuperAdmins(context.Context) auth.SuperAdminStore { return fakeSupers{s} }
func (s *fakeStore) Roles(context.Context) auth.RoleStore             { return fakeRoles{} }

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) FindByID(_ context.Context, id string) (*auth.UserRecord, error) {
	if u, ok := f.s.users[id]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f fakeUsers) SetPasswordHash(_ context.Context, id, digest string) error {
	u, ok := f.s.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = digest
	return nil
}

type fakeTenants struct{ s *fakeStore }

func (f fakeTenants) FindByID(_ context.Context, id string) (*auth.TenantRecord, error) {
	if t, ok := f.s.tenants[id]; ok {
		return t, nil
	}
	return nil, auth.ErrNotFound
}

func (f fakeTenants) FindByEmail(_ context.Context, email string) (*auth.TenantRecord, error) {
	for _, t := range f.s.tenants {
		if strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f fakeTenants) SetPasswordHash(_ context.Context, id, digest string) error {
	t, ok := f.s.tenants[id]
	if !ok {
		return auth.ErrNotFound
	}
	t.PasswordHash = digest
	return nil
}

type fakeSupers struct{ s *fakeStore }

func (f fakeSupers) FindByID(_ context.Context, id string) (*auth.SuperAdminRecord, error) {
	if sa, ok := f.s.superAdmins[id]; ok {
		return sa, nil
	}
	return nil, auth.ErrNotFound
}

func (f fakeSupers) FindByEmail(_ context.Context, email string) (*auth.SuperAdminRecord, error) {
	for _, sa := range f.s.superAdmins {
		if strings.EqualFold(sa.Email, email) {
			return sa, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f fakeSupers) SetPasswordHash(_ context.Context, id, digest string) error {
	sa, ok := f.s.superAdmins[id]
	if !ok {
		return auth.ErrNotFound
	}
	sa.PasswordHash = digest
	return nil
}

type fakeRoles struct{}

func (fakeRoles) Find(context.Context, string) (*auth.RoleRecord, error) {
	return nil, auth.ErrNotFound
}

func (fakeRoles) PermissionsOfRole(context.Context, string) ([]string, error) {
	return nil, nil
}

type fakeIssues struct {
	rows []pg.Issue
	got  auth.Filter
}

func (f *fakeIssues) List(_ context.Context, filter auth.Filter) ([]pg.Issue, error) {
	f.got = filter
	if filter.None {
		return nil, nil
	}
	return f.rows, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0", RequestDeadline: 30 * time.Second},
		Cookie: config.CookieConfig{
			Name: "access_token", Path: "/", SameSite: http.SameSiteLaxMode,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 10, PerHour: 100},
		CORS: config.CORSConfig{
			AllowedOrigins:   []string{"https://app.example.com"},
			AllowCredentials: true,
		},
	}
}

type testEnv struct {
	api    *API
	store  *fakeStore
	issues *fakeIssues
	codec  *auth.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	digest, err := auth.HashPassword("Corr3ct-Horse!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &fakeStore{
		users: map[string]*auth.UserRecord{
			"u1": {
				ID: "u1", TenantID: "t1", RoleName: "field_agent",
				Email: "agent@example.com", Name: "Agent One",
				PasswordHash: digest, Status: auth.StatusActive,
			},
		},
		tenants: map[string]*auth.TenantRecord{
			"t1": {
				ID: "t1", Email: "owner@example.com", Name: "Tenant One",
				PasswordHash: digest, Status: auth.StatusActive,
			},
		},
		superAdmins: map[string]*auth.SuperAdminRecord{},
	}

	catalog := auth.NewCatalog()
	resolver := auth.NewResolver(store, catalog)
	codec, err := auth.NewCodec("httpapi-test-key")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	service := auth.NewService(store, resolver, codec)
	issues := &fakeIssues{rows: []pg.Issue{
		{ID: "i1", TenantID: "t1", OwnerID: "u1", Title: "road repair", Status: "open"},
	}}

	api := New(Options{
		Config:   testConfig(),
		Codec:    codec,
		Resolver: resolver,
		Service:  service,
		Policy:   auth.NewPolicy(catalog),
		Limiter:  auth.NewLimiter(10, 100),
		Issues:   issues,
		Version:  "test",
	})
	return &testEnv{api: api, store: store, issues: issues, codec: codec}
}

// signRawClaims signs arbitrary claims directly, bypassing the codec. Used
// to reproduce token shapes the old system emitted.
func signRawClaims(t *testing.T, key, subject string, claims *auth.Claims) string {
	t.Helper()
	now := time.Now()
	claims.Subject = subject
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func (e *testEnv) tokenFor(t *testing.T, p auth.Principal) string {
	t.Helper()
	token, _, err := e.codec.MintAccess(p)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}
