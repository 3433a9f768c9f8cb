package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/audit"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/config"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/httpapi"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/obs"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/store/pg"
)

var version = "1.2.0"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.Database.DSN == "" {
		log.Fatal("config: PG_DSN is required")
	}
	store, err := pg.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	catalog := auth.NewCatalog()
	resolver := auth.NewResolver(store, catalog)

	codec, err := auth.NewCodec(cfg.Signing.Key,
		auth.WithTTLs(cfg.Token.AdminTTL, cfg.Token.MemberTTL, cfg.Token.ResetTTL),
		auth.WithIssuer("loktantra-api"),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	var sink audit.Sink = audit.NopSink{}
	if cfg.Audit.Enabled {
		sink = pg.NewAuditSink(store.DB())
	}

	service := auth.NewService(store, resolver, codec, auth.WithAuditSink(sink))
	policy := auth.NewPolicy(catalog)
	limiter := auth.NewLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.PerHour)

	api := httpapi.New(httpapi.Options{
		Config:   cfg,
		Codec:    codec,
		Resolver: resolver,
		Service:  service,
		Policy:   policy,
		Limiter:  limiter,
		Issues:   pg.NewIssueStore(store.DB()),
		Ready:    httpapi.ReadyProbe{DB: store.DB()},
		Version:  version,
		Metrics:  true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.Server.RequestDeadline + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting loktantra-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
