package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scriba/internal/assemble"
	"scriba/internal/audit"
	"scriba/internal/blob"
	"scriba/internal/generate"
	"scriba/internal/generate/handler"
	"scriba/internal/masterdata/store"
	"scriba/internal/pdffill"
	"scriba/internal/platform/config"
	"scriba/internal/platform/httpserver"
	"scriba/internal/platform/logger"
	"scriba/internal/platform/metrics"
	"scriba/internal/platform/middleware"
	platformredis "scriba/internal/platform/redis"
	"scriba/internal/templates"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Master record provider: Postgres when configured, in-memory otherwise so
	// the server still runs in development without a database.
	var records generate.RecordProvider
	var pg *store.PostgresProvider
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg = store.NewPostgres(db)
		records = pg
		log.Info("using postgres master record store")
	} else {
		records = store.NewMemory()
		log.Warn("no postgres DSN configured, using in-memory master record store")
	}

	// Template source: local directory, fronted by Redis when configured.
	var source templates.Source = templates.NewDir(cfg.TemplateDir)
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		source = templates.NewCached(source, redisClient, cfg.TemplateCacheTTL, log)
		log.Info("template cache enabled")
	}

	blobs := blob.NewFS(cfg.BlobDir)
	signer := blob.NewSigner(cfg.URLSigningKey, cfg.PublicBaseURL)

	engine := pdffill.NewPDFCPUEngine()
	filler := pdffill.New(engine, pdffill.WithLogger(log))
	assembler := assemble.New(engine, filler, source, log)

	opts := []generate.Option{
		generate.WithLogger(log),
		generate.WithMetrics(m),
		generate.WithURLTTL(cfg.URLTTL),
		generate.WithTimeout(cfg.ExternalCallTimeout * 3),
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, generate.WithAuditPublisher(publisher))
		log.Info("audit publisher enabled", "topic", cfg.AuditTopic)
	}

	service := generate.New(records, source, blobs, signer, engine, filler, assembler, opts...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.ExternalCallTimeout * 3))

	handler.New(service, blobs, signer, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if pg != nil {
			if err := pg.Health(hctx); err != nil {
				http.Error(w, `{"status":"postgres unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(hctx); err != nil {
				http.Error(w, `{"status":"redis unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting scriba", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
