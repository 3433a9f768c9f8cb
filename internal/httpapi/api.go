package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/config"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/obs"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/store/pg"
)

// ReadyProbe checks the database for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// IssueLister lists issue rows under a policy filter.
type IssueLister interface {
	List(ctx context.Context, f auth.Filter) ([]pg.Issue, error)
}

// API is the HTTP adapter over the auth core. Deep code returns typed
// results; the translation to status codes happens here and nowhere else.
type API struct {
	mux        *http.ServeMux
	cfg        *config.Config
	codec      *auth.Codec
	resolver   *auth.Resolver
	service    *auth.Service
	policy     *auth.Policy
	limiter    *auth.Limiter
	cookies    *CookieAdapter
	issues     IssueLister
	readyProbe ReadyProbe
	version    string
	metrics    bool
}

// Options carries the collaborators New wires into the API.
type Options struct {
	Config   *config.Config
	Codec    *auth.Codec
	Resolver *auth.Resolver
	Service  *auth.Service
	Policy   *auth.Policy
	Limiter  *auth.Limiter
	Issues   IssueLister
	Ready    ReadyProbe
	Version  string
	// Metrics controls whether decision counters are recorded; tests
	// leave it off to avoid the global registry.
	Metrics bool
}

// New constructs the API and registers its routes.
func New(opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		cfg:        opts.Config,
		codec:      opts.Codec,
		resolver:   opts.Resolver,
		service:    opts.Service,
		policy:     opts.Policy,
		limiter:    opts.Limiter,
		issues:     opts.Issues,
		readyProbe: opts.Ready,
		version:    opts.Version,
		metrics:    opts.Metrics,
	}
	a.cookies = NewCookieAdapter(opts.Config.Cookie, opts.Codec)

	a.mux.HandleFunc("/auth/login", a.withLoginRateLimit("login", a.handleLogin))
	a.mux.HandleFunc("/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/auth/logout-force", a.handleLogoutForce)
	a.mux.HandleFunc("/auth/me", a.handleMe)
	a.mux.HandleFunc("/auth/password-reset", a.withLoginRateLimit("password-reset", a.handlePasswordReset))
	a.mux.HandleFunc("/auth/password-reset/confirm", a.handlePasswordResetConfirm)
	a.mux.HandleFunc("/auth/change-password", a.handleChangePassword)
	a.mux.HandleFunc("/auth/validate-password", a.handleValidatePassword)

	a.mux.HandleFunc("/issues", a.handleListIssues)

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux. Order matters:
// metrics wrap everything, then logging, headers, the per-IP bucket, CORS,
// body cap, deadline and finally authentication.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = Deadline(h, a.cfg.Server.RequestDeadline)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.cfg.CORS)
	h = RateLimit(h, a.cfg.RateLimit.Burst, a.cfg.RateLimit.RPS)
	h = SecurityHeaders(h, a.cfg.Cookie.Secure)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "loktantra-api",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) observeDecision(outcome string, kind auth.EntityKind) {
	if a.metrics {
		obs.ObserveDecision(outcome, string(kind))
	}
}

func (a *API) observeLogin(result string) {
	if a.metrics {
		obs.ObserveLogin(result)
	}
}

func (a *API) observeRateLimited() {
	if a.metrics {
		obs.ObserveRateLimited()
	}
}
