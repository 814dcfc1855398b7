package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/config"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/database"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/directions"
	routeEvents "github.com/Kilat-Pet-Delivery/service-routing/internal/events"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/handler"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/health"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/kafka"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/logger"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/middleware"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/repository"
)

const serviceName = "service-routing"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("default_backend", string(cfg.RouteConfig.DefaultBackend)),
	)
	if cfg.RouteConfig.APIKey == "" {
		log.Warn("no routing API key configured; route requests will be rejected")
	}

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.RouteSnapshotModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize route fetcher
	fetcher, err := directions.NewFetcher(
		directions.NewHTTPClient(),
		log.Named("directions"),
		directions.WithLegacyURL(cfg.RouteConfig.LegacyURL),
		directions.WithRoutesV2URL(cfg.RouteConfig.RoutesV2URL),
	)
	if err != nil {
		log.Fatal("failed to create route fetcher", zap.Error(err))
	}

	// Initialize application services
	routeRepo := repository.NewGormRouteSnapshotRepository(db)
	routeService := application.NewRouteService(
		fetcher,
		routeRepo,
		kafkaProducer,
		application.RouteDefaults{
			APIKey:      cfg.RouteConfig.APIKey,
			Backend:     cfg.RouteConfig.DefaultBackend,
			Destination: cfg.RouteConfig.Destination,
			Topic:       cfg.KafkaConfig.RouteTopic,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := application.NewLocationTracker(ctx, routeService, log.Named("tracker"))

	// Initialize location event consumer
	groupID := cfg.KafkaConfig.GroupPrefix + "routing-service"
	locationConsumer := routeEvents.NewLocationEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		cfg.KafkaConfig.LocationTopic,
		tracker,
		log,
	)
	defer func() { _ = locationConsumer.Close() }()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewRouteHandler(routeService, tracker).RegisterRoutes(&router.RouterGroup)
	handler.NewAdminRouteHandler(routeService).RegisterRoutes(&router.RouterGroup)
	handler.NewPolylineHandler().RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting location event consumer", zap.String("topic", cfg.KafkaConfig.LocationTopic))
		if err := locationConsumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("location event consumer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + serviceName + "...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
	}

	// Abort in-flight device fetches and wait for them to record their outcome.
	stop()
	tracker.Wait()

	log.Info(serviceName + " stopped")
}
