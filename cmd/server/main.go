package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"tradedesk/internal/approval"
	approvalhandler "tradedesk/internal/approval/handler"
	approvalmetrics "tradedesk/internal/approval/metrics"
	"tradedesk/internal/audit"
	authzhandler "tradedesk/internal/authz/handler"
	"tradedesk/internal/backend"
	"tradedesk/internal/platform/config"
	"tradedesk/internal/platform/httpserver"
	"tradedesk/internal/platform/logger"
	"tradedesk/internal/platform/metrics"
	platformredis "tradedesk/internal/platform/redis"
	"tradedesk/internal/session"
	sessionhandler "tradedesk/internal/session/handler"
	httptransport "tradedesk/internal/transport/http"
	"tradedesk/internal/users"
	usershandler "tradedesk/internal/users/handler"
	"tradedesk/pkg/platform/circuit"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Credential store: Redis when configured, in-memory otherwise.
	var store session.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient.Client, cfg.SessionTTL)
		log.Info("using redis credential store")
	} else {
		store = session.NewInMemoryStore()
		log.Info("using in-memory credential store")
	}

	oracle, err := session.NewOracle(store,
		session.WithLogger(log),
		session.WithPurgeCounter(m.SessionsPurged),
	)
	if err != nil {
		log.Error("failed to build session oracle", "error", err)
		os.Exit(1)
	}

	backendClient, err := backend.New(cfg.BackendURL,
		backend.WithLogger(log),
		backend.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
		backend.WithFailureCounter(m.BackendFailures),
		backend.WithBreaker(circuit.New("trading-backend")),
	)
	if err != nil {
		log.Error("failed to build backend client", "error", err)
		os.Exit(1)
	}

	// Audit trail: Postgres when configured, in-memory otherwise.
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgStore := audit.NewPostgresStore(db)
		if err := pgStore.Migrate(context.Background()); err != nil {
			log.Error("audit store migration failed", "error", err)
			os.Exit(1)
		}
		auditStore = pgStore
		log.Info("using postgres audit store")
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory audit store")
	}
	auditor := audit.NewPublisher(auditStore)

	engine, err := approval.New(backendClient,
		approval.WithLogger(log),
		approval.WithAuditPublisher(auditor),
		approval.WithMetrics(approvalmetrics.New()),
	)
	if err != nil {
		log.Error("failed to build approval engine", "error", err)
		os.Exit(1)
	}

	usersService, err := users.New(backendClient,
		users.WithLogger(log),
		users.WithAuditPublisher(auditor),
	)
	if err != nil {
		log.Error("failed to build users service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:   log,
		Oracle:   oracle,
		Store:    store,
		Session:  sessionhandler.New(backendClient, store, log, m),
		Authz:    authzhandler.New(oracle, log, m),
		Approval: approvalhandler.New(engine, log),
		Users:    usershandler.New(usersService, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting tradedesk console gateway", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
