package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	activityrepo "github.com/Ramsey-B/clover/internal/repositories/activity"
	commentrepo "github.com/Ramsey-B/clover/internal/repositories/comment"
	requestrepo "github.com/Ramsey-B/clover/internal/repositories/request"
	voterepo "github.com/Ramsey-B/clover/internal/repositories/vote"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/redis"
	activityroutes "github.com/Ramsey-B/clover/pkg/routes/activity"
	commentroutes "github.com/Ramsey-B/clover/pkg/routes/comments"
	healthroutes "github.com/Ramsey-B/clover/pkg/routes/health"
	mergeroutes "github.com/Ramsey-B/clover/pkg/routes/merge"
	requestroutes "github.com/Ramsey-B/clover/pkg/routes/requests"
	voteroutes "github.com/Ramsey-B/clover/pkg/routes/votes"
	"github.com/Ramsey-B/clover/pkg/similarity"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/voting"
	"github.com/Ramsey-B/clover/pkg/workflow"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, zlog, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.TracingServiceName, tracing.ExporterConfig{
		Endpoint: cfg.TracingOTLPEndpoint,
		Protocol: cfg.TracingOTLPProtocol,
		Insecure: cfg.TracingOTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	var (
		db          database.DB
		redisClient *redis.Client
		producer    *kafka.Producer
		checker     *healthroutes.Checker
		server      *echo.Echo
	)

	manager := startup.NewManager(logger, 5)

	manager.Add(startup.Dependency{
		Name: "database",
		Start: func(ctx context.Context) error {
			dsn := fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
				cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
			)
			sqlxDB, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
			if err != nil {
				return err
			}
			sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			db = database.NewDatabaseInstance(sqlxDB, logger)
			return nil
		},
		Stop: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})

	manager.Add(startup.Dependency{
		Name:      "migrations",
		DependsOn: []string{"database"},
		Start: func(ctx context.Context) error {
			instance, ok := db.(*database.DatabaseInstance)
			if !ok {
				return fmt.Errorf("unexpected database handle %T", db)
			}
			driver, err := migratepg.WithInstance(instance.DB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			service := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
			})
			return service.Migrate(cfg.DatabaseName, driver)
		},
		Stop: func(ctx context.Context) error { return nil },
	})

	if cfg.RateLimitEnabled {
		manager.Add(startup.Dependency{
			Name: "redis",
			Start: func(ctx context.Context) error {
				client, err := redis.NewClient(redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				if err != nil {
					return err
				}
				redisClient = client
				return nil
			},
			Stop: func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Close()
			},
		})
	}

	if cfg.EventsEnabled {
		manager.Add(startup.Dependency{
			Name: "kafka",
			Start: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			Stop: func(ctx context.Context) error {
				if producer == nil {
					return nil
				}
				return producer.Close()
			},
		})
	}

	manager.Add(startup.Dependency{
		Name:      "http",
		DependsOn: []string{"database", "migrations"},
		Start: func(ctx context.Context) error {
			server, checker = buildServer(cfg, logger, db, redisClient, producer)
			go func() {
				if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped")
				}
			}()
			checker.SetReady(true)
			return nil
		},
		Stop: func(ctx context.Context) error {
			if server == nil {
				return nil
			}
			checker.SetReady(false)
			return server.Shutdown(ctx)
		},
	})

	if err := manager.Start(ctx); err != nil {
		return err
	}
	logger.WithField("port", cfg.Port).Infof("%s listening on :%d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return manager.Stop(stopCtx)
}

func buildServer(
	cfg config.Config,
	logger ectologger.Logger,
	db database.DB,
	redisClient *redis.Client,
	producer *kafka.Producer,
) (*echo.Echo, *healthroutes.Checker) {
	requests := requestrepo.NewRepository(db, logger)
	votes := voterepo.NewRepository(db, logger)
	comments := commentrepo.NewRepository(db, logger)
	activities := activityrepo.NewRepository(db, logger)

	finder := similarity.NewFinder(requests, similarity.Config{
		CandidateLimit: cfg.SimilarityCandidateLimit,
		MaxSuggestions: cfg.SimilarityMaxSuggestions,
		MinScore:       cfg.SimilarityMinScore,
	}, logger)
	aggregator := voting.NewAggregator(db, requests, votes, logger)
	wf := workflow.NewService(db, requests, activities, logger)
	engine := merging.NewEngine(db, requests, votes, comments, activities, logger)

	var publisher events.Publisher
	if producer != nil {
		publisher = producer
	}
	emitter := events.NewEmitter(publisher, logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.TracingServiceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	if cfg.AuthEnabled {
		e.Use(middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimit := passthrough()
	if redisClient != nil {
		limiter := redis.NewRateLimiter(redisClient, "clover:ratelimit:")
		rateLimit = middleware.VoteRateLimit(limiter, middleware.RateLimitConfig{
			Requests: cfg.RateLimitToggles,
			Window:   cfg.RateLimitWindow,
		}, logger)
	}
	admin := middleware.RequireAdmin()

	api := e.Group("/api/v1/requests")
	requestroutes.NewHandler(requests, finder, wf, emitter).Register(api, admin)
	voteroutes.NewHandler(aggregator).Register(api, rateLimit)
	mergeroutes.NewHandler(engine, emitter).Register(api, admin)
	activityroutes.NewHandler(requests, activities).Register(api)
	commentroutes.NewHandler(requests, comments).Register(api)

	var redisPinger healthroutes.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	checker := healthroutes.NewChecker(db, redisPinger, cfg.Version)
	checker.RegisterRoutes(e)

	return e, checker
}

func passthrough() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return next
	}
}
