package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"coursemate/internal/catalog"
	"coursemate/internal/config"
	"coursemate/internal/db"
	"coursemate/internal/health"
	"coursemate/internal/kafka"
	"coursemate/internal/messaging"
	"coursemate/internal/middleware"
	"coursemate/internal/notification"
	"coursemate/internal/portal"
	"coursemate/internal/registration"
	"coursemate/internal/results"
	"coursemate/internal/session"
	"coursemate/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type closer interface {
	Close() error
}

type App struct {
	config       *config.Config
	router       chi.Router
	server       *http.Server
	grpcServer   *grpc.Server
	logger       *slog.Logger
	telemetry    *telemetry.Telemetry
	database     *bun.DB
	redis        *redis.Client
	producer     closer
	registration *registration.Service
	portal       *portal.Portal

	bootCtx    context.Context
	bootCancel context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application", "env", cfg.Env, "data_source", cfg.Data.Source)

	tel, err := telemetry.Init(ctx, ServiceName, Version, cfg.Telemetry.OTLPEndpoint, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		telemetry: tel,
	}
	app.bootCtx, app.bootCancel = context.WithCancel(context.Background())

	healthHandler := health.NewHandler(tel.Metrics)

	var catalogProvider catalog.Provider = catalog.NewStaticProvider(catalog.SampleCourses())
	var resultsProvider results.Provider = results.NewStaticProvider(results.SampleResults())

	if cfg.Data.Source == "postgres" {
		database, err := db.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		app.database = database

		if err := tel.Metrics.Database.RegisterDB(database.DB, tel.MeterProvider.Meter(ServiceName)); err != nil {
			logger.Warn("failed to register database metrics", "error", err)
		}

		if err := db.RunMigrations(ctx, database, (*catalog.Course)(nil), (*results.CourseResult)(nil)); err != nil {
			return nil, err
		}

		catalogRepo := catalog.NewRepository(database, tel.Metrics)
		if err := catalogRepo.Seed(ctx, catalog.SampleCourses()); err != nil {
			return nil, err
		}
		resultsRepo := results.NewRepository(database, tel.Metrics)
		if err := resultsRepo.Seed(ctx, results.SampleResults()); err != nil {
			return nil, err
		}

		catalogProvider = catalogRepo
		resultsProvider = resultsRepo
		healthHandler.AddCheck("database", database.PingContext)
	}

	var store session.Store = session.NewMemoryStore()
	if client := connectRedis(ctx, cfg.Redis, logger); client != nil {
		app.redis = client
		store = session.NewRedisStore(client)
		ttl := time.Duration(cfg.Redis.ResultsTTL) * time.Second
		resultsProvider = results.NewCachedProvider(resultsProvider, client, ttl, logger)
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	publisher := app.connectPublisher(cfg)

	app.registration = registration.NewService(registration.Options{
		Catalog:       catalogProvider,
		Publisher:     publisher,
		Bounds:        registration.Bounds{Min: cfg.Portal.MinCredits, Max: cfg.Portal.MaxCredits},
		ApprovalDelay: cfg.Portal.ApprovalDelay(),
		DefaultLevel:  cfg.Portal.DefaultLevel,
		Logger:        logger,
		Metrics:       tel.Metrics,
	})

	tracker := notification.NewTracker(notification.SampleNotifications())

	app.portal = portal.New(portal.Options{
		Store:         store,
		Registration:  app.registration,
		Notifications: tracker,
		StudentName:   cfg.Portal.StudentName,
		SplashDelay:   cfg.Portal.SplashDelay(),
		LoginDelay:    cfg.Portal.LoginDelay(),
		Logger:        logger,
		Metrics:       tel.Metrics,
	})

	resultsService := results.NewService(resultsProvider, cfg.Portal.ResultsDelay(), logger, tel.Metrics)

	portalHandler := portal.NewHandler(app.portal, logger)
	catalogHandler := catalog.NewHandler(catalogProvider, logger)
	registrationHandler := registration.NewHandler(app.registration, logger)
	resultsHandler := results.NewHandler(resultsService, logger)
	notificationHandler := notification.NewHandler(tracker, logger, tel.Metrics)

	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no login required)
	healthHandler.RegisterRoutes(app.router)

	app.router.Route("/api", func(r chi.Router) {
		portalHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(portalHandler.RequireLogin)
			portalHandler.RegisterRoutes(r)
			catalogHandler.RegisterRoutes(r)
			registrationHandler.RegisterRoutes(r)
			resultsHandler.RegisterRoutes(r)
			notificationHandler.RegisterRoutes(r)
		})
	})

	if cfg.Grpc.Port != "" {
		app.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthServer := grpchealth.NewServer()
		grpc_health_v1.RegisterHealthServer(app.grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	logger.Info("application initialized successfully")

	return app, nil
}

// Router exposes the HTTP routes (useful for testing).
func (a *App) Router() http.Handler {
	return a.router
}

// Boot runs the portal start-up sequence until the splash ends or the app
// shuts down.
func (a *App) Boot() error {
	return a.portal.Boot(a.bootCtx)
}

func (a *App) Run() error {
	go func() {
		if err := a.Boot(); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("portal boot failed", "error", err)
		}
	}()

	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.config.Grpc.Port))
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		go func() {
			a.logger.Info("gRPC server starting", "port", a.config.Grpc.Port)
			if err := a.grpcServer.Serve(lis); err != nil {
				a.logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.bootCancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	a.registration.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("event producer close error", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", "error", err)
		}
	}
	db.Close(a.database)

	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// portal then keeps its state in memory.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, session flag and results stay in memory")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}

	logger.Info("connected to redis", "addr", cfg.Addr)
	return client
}

func (a *App) connectPublisher(cfg *config.Config) registration.Publisher {
	switch cfg.Events.Driver {
	case "", "none":
		return nil
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, a.logger)
		if err != nil {
			a.logger.Warn("failed to initialize NATS producer", "error", err)
			return nil
		}
		a.producer = producer
		return producer
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, a.logger)
		if err != nil {
			a.logger.Warn("failed to initialize kafka producer", "error", err)
			return nil
		}
		a.producer = producer
		return producer
	default:
		a.logger.Warn("unknown events driver, registration events disabled", "driver", cfg.Events.Driver)
		return nil
	}
}
