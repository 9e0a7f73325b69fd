package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/handler"
	"abitur/internal/admission/metrics"
	"abitur/internal/admission/service"
	"abitur/internal/admission/store"
	"abitur/internal/audit"
	"abitur/internal/platform/config"
	"abitur/internal/platform/httpserver"
	"abitur/internal/platform/logger"
	"abitur/internal/platform/middleware"
	"abitur/internal/platform/redis"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the campaign HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New()

	campaign, err := loadCampaign(cfg)
	if err != nil {
		return err
	}
	policy, err := policyFromConfig(cfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(campaign.Programs, policy)
	if err != nil {
		return err
	}

	var (
		dayStore   store.Store = store.NewInMemory()
		auditStore audit.Store = audit.NewInMemoryStore()
		db         *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		dayStore = pg

		auditPg := audit.NewPostgresStore(db)
		if err := auditPg.Migrate(ctx); err != nil {
			return err
		}
		auditStore = auditPg
	}

	cache, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return err
	}
	auditorOpts := []audit.Option{audit.WithLogger(log)}
	if sink != nil {
		defer sink.Close()
		auditorOpts = append(auditorOpts, audit.WithSink(sink))
	}
	auditor := audit.NewPublisher(auditStore, auditorOpts...)

	m := metrics.New()
	svc, err := service.New(eng, dayStore,
		service.WithLogger(log),
		service.WithAuditor(auditor),
		service.WithMetrics(m),
		service.WithCache(cache, cfg.CacheTTL),
	)
	if err != nil {
		return err
	}

	var validator middleware.TokenValidator
	if cfg.JWTSigningKey != "" {
		validator = middleware.NewHMACValidator(cfg.JWTSigningKey)
	}
	h := handler.New(svc, campaign, cfg.DataDir,
		handler.WithLogger(log),
		handler.WithMetrics(m),
	)
	srv := httpserver.New(cfg.Addr, h.Router(validator))

	errc := make(chan error, 1)
	go func() {
		log.Info("starting abitur server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
