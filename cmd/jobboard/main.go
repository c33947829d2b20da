package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/api"
	"github.com/platinummonkey/jobboard/pkg/applications"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/auth"
	"github.com/platinummonkey/jobboard/pkg/board"
	"github.com/platinummonkey/jobboard/pkg/config"
	"github.com/platinummonkey/jobboard/pkg/database"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/middleware"
	"github.com/platinummonkey/jobboard/pkg/notify"
	"github.com/platinummonkey/jobboard/pkg/observability"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/tenant"
	"github.com/platinummonkey/jobboard/pkg/users"
)

var version = "dev"

var (
	migrateOnly = flag.Bool("migrate", false, "Run database migrations and exit")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		os.Stdout.WriteString(version + "\n")
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	db, err := database.Open(cfg.DatabaseConnection())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if *migrateOnly || cfg.Database.AutoMigrate {
		if err := database.RunMigrations(context.Background(), db, logger); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		if *migrateOnly {
			logger.Info("Migrations complete")
			return
		}
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup, continuing")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTel, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize OpenTelemetry")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	if otelProviders != nil {
		otelMetrics, err := observability.NewOTelMetrics(otelProviders.MeterProvider.Meter("jobboard"))
		if err != nil {
			logger.WithError(err).Warn("OpenTelemetry metrics unavailable")
		} else {
			metrics.WithOTel(otelMetrics)
		}
	}

	srv, asyncNotifier := buildServer(ctx, cfg, db, redisClient, metrics, registry, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.Addr(),
			"version": version,
		}).Info("Starting job board server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if asyncNotifier != nil {
		if err := asyncNotifier.Wait(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Pending notifications abandoned")
		}
	}
	if err := otelProviders.Shutdown(shutdownCtx, logger); err != nil {
		logger.WithError(err).Error("OpenTelemetry shutdown failed")
	}

	logger.Info("Server stopped")
}

// buildServer wires the stores, services and request pipeline. The returned
// AsyncNotifier is nil when notifications are sent inline.
func buildServer(ctx context.Context, cfg *config.Config, db *sql.DB, redisClient redis.UniversalClient, metrics *observability.Metrics, registry *prometheus.Registry, logger *logrus.Logger) (http.Handler, *board.AsyncNotifier) {
	userStore := users.NewStore(db)
	memberStore := rbac.NewStore(db)
	jobStore := jobs.NewPostgresStore(db)
	appStore := applications.NewStore(db)

	institutionStore := institutions.NewCachedStore(institutions.NewStore(db), cfg.InstitutionCache())
	institutionStore.OnLookup = func(hit bool) {
		metrics.RecordCacheLookup("institution", hit)
	}

	gateways := []notify.Gateway{notify.NewLogGateway(logger)}
	if redisClient != nil {
		gateways = append(gateways, notify.NewRedisGateway(redisClient, cfg.Notifications.RedisChannel))
	}
	if cfg.Notifications.WebhookURL != "" {
		gateways = append(gateways, notify.NewWebhookGateway(cfg.Notifications.WebhookURL, cfg.Notifications.WebhookSecret, cfg.Notifications.Retry))
	}
	dispatcher := notify.NewDispatcher(notify.NewMultiGateway(gateways...), memberStore, appStore, metrics, logger)

	var notifier board.Notifier = dispatcher
	var asyncNotifier *board.AsyncNotifier
	if cfg.Notifications.Async {
		asyncNotifier = board.NewAsyncNotifier(dispatcher, cfg.Notifications.DispatchTimeout, logger)
		notifier = asyncNotifier
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create token manager")
	}

	resolver := tenant.NewResolver(userStore, institutionStore, logger)
	deps := board.Deps{
		Audit:   audit.NewDBLogger(db),
		Metrics: metrics,
		Logger:  logger,
	}

	services := api.Services{
		Accounts:     board.NewAccountService(userStore, tokens, deps),
		Jobs:         board.NewJobService(jobStore, institutionStore, resolver, notifier, deps),
		Applications: board.NewApplicationService(appStore, appStore, jobStore, deps),
		Memberships:  board.NewMembershipService(memberStore, institutionStore, userStore, deps),
		Institutions: board.NewInstitutionService(institutionStore, deps),
		Tenants:      board.NewTenantService(resolver, deps),
		Audit:        board.NewAuditService(deps),
	}

	opts := api.Options{
		Health: observability.NewHealthChecker(db, redisClient, version),
		Logger: logger,
	}
	if cfg.Observability.MetricsEnabled {
		opts.Metrics = metrics
		opts.Gatherer = registry
	}
	server := api.NewServer(services, opts)

	pipeline := api.Pipeline{
		Tokens:       tokens,
		Memberships:  memberStore,
		CORSOrigins:  cfg.Server.AllowedOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Tracing:      cfg.Observability.OTel.Enabled,
	}
	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			pipeline.Limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimits(), "")
		} else {
			limiter := middleware.NewMemoryRateLimiter(cfg.RateLimits())
			limiter.StartCleanup(ctx)
			pipeline.Limiter = limiter
		}
	}

	return server.Handler(pipeline), asyncNotifier
}
