package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/epiwatch/surveillance/internal/adapters/cache"
	"github.com/epiwatch/surveillance/internal/adapters/database"
	"github.com/epiwatch/surveillance/internal/adapters/events"
	"github.com/epiwatch/surveillance/internal/adapters/search"
	"github.com/epiwatch/surveillance/internal/api/handlers"
	"github.com/epiwatch/surveillance/internal/api/middleware"
	"github.com/epiwatch/surveillance/internal/api/routes"
	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/redis"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/typesense"
	"github.com/epiwatch/surveillance/internal/infrastructure/observability"
	"github.com/epiwatch/surveillance/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The service degrades to uncached operation
	// without it.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	// Initialize Typesense client. Quick search falls back to the relational
	// query path when the index is unavailable.
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Typesense client, quick search disabled")
		typesenseClient = nil
	} else {
		log.Info().Msg("Typesense client initialized")
	}

	// Initialize adapters
	patientAdapter := database.NewPatientAdapter(pgClient)
	providerAdapter := database.NewProviderAdapter(pgClient)
	catalogAdapter := database.NewCatalogAdapter(pgClient)
	encounterAdapter := database.NewEncounterAdapter(pgClient)
	diagnosisAdapter := database.NewDiagnosisAdapter(pgClient)
	riskFactorAdapter := database.NewRiskFactorAdapter(pgClient)
	medicationAdapter := database.NewMedicationAdapter(pgClient)
	labAdapter := database.NewLabAdapter(pgClient)
	observationAdapter := database.NewObservationAdapter(pgClient)
	regionAdapter := database.NewRegionAdapter(pgClient)
	cohortAdapter := database.NewCohortAdapter(pgClient)
	surveillanceAdapter := database.NewSurveillanceAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for ledger change notices
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	} else {
		log.Info().Msg("event bus disabled (Redis not available)")
	}

	var searchIndex providers.PatientSearchIndex
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := typesenseClient.InitSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		searchIndex = adapter
	}

	// Initialize services
	registryService := services.NewRegistryService(patientAdapter, searchIndex)
	ledgerService := services.NewLedgerService(
		patientAdapter,
		encounterAdapter,
		diagnosisAdapter,
		riskFactorAdapter,
		medicationAdapter,
		labAdapter,
		observationAdapter,
		catalogAdapter,
		eventBus,
	)
	cohortService := services.NewCohortService(cohortAdapter, patientAdapter, eventBus)
	regionService := services.NewRegionIndexService(regionAdapter)
	surveillanceService := services.NewSurveillanceService(surveillanceAdapter, regionService, metrics)
	directoryService := services.NewDirectoryService(providerAdapter)

	// Load the region hierarchy into memory before serving requests.
	// Coordinate resolution and rollups read the in-memory snapshot.
	if err := regionService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load region hierarchy")
	}
	log.Info().Msg("region hierarchy loaded")

	// Initialize handlers
	patientHandler := handlers.NewPatientHandler(registryService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	catalogHandler := handlers.NewCatalogHandler(catalogAdapter)
	regionHandler := handlers.NewRegionHandler(regionService)
	cohortHandler := handlers.NewCohortHandler(cohortService)
	surveillanceHandler := handlers.NewSurveillanceHandler(surveillanceService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
		log.Info().Msg("cache middleware initialized")
	}

	// Set up router
	router := routes.NewRouter(
		patientHandler,
		ledgerHandler,
		directoryHandler,
		catalogHandler,
		regionHandler,
		cohortHandler,
		surveillanceHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
