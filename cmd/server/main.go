package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"custos/internal/audit"
	"custos/internal/authorization"
	authorizationhandler "custos/internal/authorization/handler"
	authorizationmetrics "custos/internal/authorization/metrics"
	"custos/internal/catalog"
	cataloghandler "custos/internal/catalog/handler"
	"custos/internal/classification"
	"custos/internal/evidence"
	evidencehandler "custos/internal/evidence/handler"
	"custos/internal/integration"
	integrationhandler "custos/internal/integration/handler"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/logger"
	platformredis "custos/internal/platform/redis"
	"custos/internal/revocation"
	revocationhandler "custos/internal/revocation/handler"
	revocationmetrics "custos/internal/revocation/metrics"
	httptransport "custos/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	registry, err := classification.LoadFile(cfg.ClassificationFile)
	if err != nil {
		fatal(log, "loading classification registry", err)
	}
	approvals := classification.NewApprovalStore()

	var (
		auditStore         audit.Store
		authorizationStore authorization.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			fatal(log, "opening postgres", err)
		}
		defer db.Close()
		if _, err := db.Exec(audit.Schema()); err != nil {
			fatal(log, "applying audit schema", err)
		}
		if _, err := db.Exec(authorization.Schema()); err != nil {
			fatal(log, "applying authorization schema", err)
		}
		auditStore = audit.NewPostgresStore(db)
		authorizationStore = authorization.NewPostgresStore(db)
	} else {
		auditStore = audit.NewInMemoryStore()
		authorizationStore = authorization.NewInMemoryStore()
	}

	recorder, err := audit.NewRecorder(auditStore)
	if err != nil {
		fatal(log, "building audit recorder", err)
	}

	var blocklist revocation.Blocklist = revocation.NewInMemoryBlocklist()
	if cfg.RedisAddr != "" {
		redisClient, err := platformredis.New(cfg.RedisAddr)
		if err != nil {
			fatal(log, "connecting to redis", err)
		}
		defer redisClient.Close()
		blocklist = revocation.NewRedisBlocklist(redisClient.Client)
	}

	source, err := catalog.LoadStaticSource(cfg.PrincipalsFile)
	if err != nil {
		log.Warn("principals file unavailable, catalog starts empty",
			slog.String("path", cfg.PrincipalsFile),
			slog.String("error", err.Error()))
		source = catalog.NewStaticSource(nil)
	}
	inactivity := time.Duration(cfg.InactivityThresholdDays) * 24 * time.Hour
	aggregator, err := catalog.NewAggregator(source, cfg.Environments, inactivity, log)
	if err != nil {
		fatal(log, "building catalog aggregator", err)
	}

	authorizationService, err := authorization.NewService(authorizationStore, registry, approvals, recorder, authorizationmetrics.New(), log)
	if err != nil {
		fatal(log, "building authorization service", err)
	}
	integrationService, err := integration.NewService(integration.NewInMemoryStore(), recorder, log)
	if err != nil {
		fatal(log, "building integration service", err)
	}
	revocationService, err := revocation.NewService(revocation.NewInMemoryStore(), blocklist, recorder, revocationmetrics.New(), cfg.RevocationSLA, log)
	if err != nil {
		fatal(log, "building revocation service", err)
	}
	evidenceBuilder, err := evidence.NewBuilder(auditStore, log)
	if err != nil {
		fatal(log, "building evidence builder", err)
	}

	router := httptransport.NewRouter(log,
		cataloghandler.New(aggregator, log),
		authorizationhandler.New(authorizationService, log),
		integrationhandler.New(integrationService, log),
		revocationhandler.New(revocationService, log),
		evidencehandler.New(evidenceBuilder, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting custos", slog.String("addr", cfg.Addr), slog.Int("classified_tools", registry.Len()))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fatal(log, "graceful shutdown failed", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
