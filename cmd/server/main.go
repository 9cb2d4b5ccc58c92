package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	campaignhandler "givehub/internal/campaign/handler"
	campaignservice "givehub/internal/campaign/service"
	campaignstore "givehub/internal/campaign/store"
	certhandler "givehub/internal/certificate/handler"
	certmetrics "givehub/internal/certificate/metrics"
	certservice "givehub/internal/certificate/service"
	certstore "givehub/internal/certificate/store"
	contributionhandler "givehub/internal/contribution/handler"
	contributionmetrics "givehub/internal/contribution/metrics"
	contributionservice "givehub/internal/contribution/service"
	contributionstore "givehub/internal/contribution/store"
	moderationhandler "givehub/internal/moderation/handler"
	moderationservice "givehub/internal/moderation/service"
	moderationstore "givehub/internal/moderation/store"
	opportunityhandler "givehub/internal/opportunity/handler"
	opportunityservice "givehub/internal/opportunity/service"
	opportunitystore "givehub/internal/opportunity/store"
	organizationhandler "givehub/internal/organization/handler"
	organizationservice "givehub/internal/organization/service"
	organizationstore "givehub/internal/organization/store"
	"givehub/internal/platform/config"
	"givehub/internal/platform/events"
	"givehub/internal/platform/httpserver"
	"givehub/internal/platform/logger"
	"givehub/internal/platform/metrics"
	"givehub/internal/platform/middleware"
	"givehub/internal/platform/postgres"
	"givehub/internal/platform/ratelimit"
	platformredis "givehub/internal/platform/redis"
	id "givehub/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		certSt     certservice.Store
		orgSt      organizationservice.Store
		campaignSt campaignBackend
		contribSt  contributionservice.Store
		oppSt      opportunityservice.Store
		modSt      moderationservice.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		certSt = certstore.NewPostgres(db)
		orgSt = organizationstore.NewPostgres(db)
		campaignSt = campaignstore.NewPostgres(db)
		contribSt = contributionstore.NewPostgres(db)
		oppSt = opportunitystore.NewPostgres(db)
		modSt = moderationstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		certSt = certstore.NewMemory()
		orgSt = organizationstore.NewMemory()
		campaignSt = campaignstore.NewMemory()
		contribSt = contributionstore.NewMemory()
		oppSt = opportunitystore.NewMemory()
		modSt = moderationstore.NewMemory()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := events.New(cfg.Kafka, log)
	if err != nil {
		log.Error("event publisher setup failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	directory := newOrgDirectory(orgSt)
	httpMetrics := metrics.New()

	certSvc := certservice.New(certSt,
		certservice.WithLogger(log),
		certservice.WithMetrics(certmetrics.New()),
		certservice.WithPublisher(publisher),
	)
	orgSvc := organizationservice.New(orgSt, log)
	campaignSvc := campaignservice.New(campaignSt, certSvc, directory, log)
	contribSvc := contributionservice.New(contribSt, campaignSt, certSvc, directory, log,
		contributionservice.WithMetrics(contributionmetrics.New()),
		contributionservice.WithPublisher(publisher),
	)
	oppSvc := opportunityservice.New(oppSt, certSvc, directory, log)
	modSvc := moderationservice.New(modSt, newFlagTargets(orgSt, campaignSt), log,
		moderationservice.WithPublisher(publisher),
	)

	certH := certhandler.New(certSvc, log)
	orgH := organizationhandler.New(orgSvc, log)
	campaignH := campaignhandler.New(campaignSvc, log)
	contribH := contributionhandler.New(contribSvc, log)
	oppH := opportunityhandler.New(oppSvc, log)
	modH := moderationhandler.New(modSvc, log)

	validator := middleware.NewJWTValidator(cfg.JWTSigningKey)
	var flagLimiter *ratelimit.Limiter
	if redisClient != nil {
		flagLimiter = ratelimit.New(redisClient.Client, cfg.FlagRequestsPerHour, time.Hour, log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public directory reads.
	orgH.Register(r)
	campaignH.Register(r)
	oppH.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, id.RoleContributor))
			contribH.RegisterContributor(r)
			campaignH.RegisterContributor(r)
			oppH.RegisterContributor(r)
			certH.Register(r)

			r.Group(func(r chi.Router) {
				if flagLimiter != nil {
					r.Use(flagLimiter.Middleware)
				}
				modH.RegisterContributor(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, id.RoleOrganization))
			orgH.RegisterOrganization(r)
			campaignH.RegisterOrganization(r)
			contribH.RegisterOrganization(r)
			oppH.RegisterOrganization(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(log, id.RoleAdmin))
			modH.RegisterAdmin(r)
			orgH.RegisterAdmin(r)
			campaignH.RegisterAdmin(r)
			certH.RegisterAdmin(r)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting givehub workflow engine", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped cleanly")
}
