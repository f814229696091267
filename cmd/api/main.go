package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"docflow/docs"
	"docflow/internal/audit"
	"docflow/internal/auth"
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/database/migration"
	handlers "docflow/internal/http/handler"
	"docflow/internal/http/middleware"
	"docflow/internal/lock"
	"docflow/internal/logger"
	"docflow/internal/metrics"
	"docflow/internal/otel"
	"docflow/internal/repository/postgres"
	"docflow/internal/service"
	"docflow/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	// room for the multipart fields around the file itself
	formOverhead = 1 << 20
)

// @title Document Workflow API
// @version 1.0
// @description Upload, review and audit versioned documents.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	loc := cfg.Location()

	log := logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Pretty:   cfg.LogPretty,
		Location: loc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracing")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise object storage")
	}

	checks := map[string]handlers.Check{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}

	var locker lock.Locker = lock.Nop{}
	if cfg.Redis.Enabled {
		rdb, err := lock.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, rdb) }
	}

	verifier, err := auth.New(ctx, cfg.Auth, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise token verification")
	}

	// Repositories, audit and services
	auditRepo := postgres.NewAuditPostgres(db)
	recorder := audit.NewRecorder(auditRepo)
	deps := &service.Deps{
		Store:         objStore,
		Docs:          postgres.NewDocumentPostgres(db),
		Comments:      postgres.NewCommentPostgres(db),
		Profiles:      postgres.NewProfilePostgres(db),
		Tx:            postgres.NewTxManager(db),
		Audit:         recorder,
		Locker:        locker,
		Metrics:       metrics.New(prometheus.DefaultRegisterer),
		Log:           log,
		Upload:        cfg.Upload,
		PresignExpiry: cfg.MinIO.PresignExpiry,
	}

	h := handlers.New(handlers.Handler{
		Docs:          service.NewDocumentService(deps),
		Workflow:      service.NewWorkflowService(deps),
		Reports:       service.NewReportService(deps),
		Profiles:      service.NewProfileService(deps),
		Audit:         recorder,
		Checks:        checks,
		Location:      loc,
		PresignExpiry: cfg.MinIO.PresignExpiry,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxBytes) + formOverhead,
		ReadTimeout:  cfg.RequestTimeout,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	// Register global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Timeout(cfg.RequestTimeout))
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New())

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, h, verifier, prometheus.DefaultGatherer)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

func pingRedis(ctx context.Context, rdb redis.UniversalClient) error {
	return rdb.Ping(ctx).Err()
}
