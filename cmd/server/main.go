package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/config"
	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/category"
	"github.com/claimstack/pricing-service/internal/enhance"
	"github.com/claimstack/pricing-service/internal/estimate"
	"github.com/claimstack/pricing-service/internal/handlers"
	"github.com/claimstack/pricing-service/internal/jobs"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/middleware"
	"github.com/claimstack/pricing-service/internal/pipeline"
	"github.com/claimstack/pricing-service/internal/query"
	"github.com/claimstack/pricing-service/internal/rank"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/results"
	"github.com/claimstack/pricing-service/internal/scheduler"
	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/storage"
	"github.com/claimstack/pricing-service/internal/telemetry"
	"github.com/claimstack/pricing-service/internal/trust"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting pricing service")

	if err := cfg.ValidateCredentials(); err != nil {
		logger.Fatal().Err(err).Msg("Provider credentials missing")
	}

	ctx := context.Background()
	cleanup, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	defer cleanup(ctx)

	store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	core := buildCore(cfg, *logger)

	resultStore := results.NewStore(cfg.Results.Retention)
	sweeper := results.NewSweeper(resultStore, *logger, cfg.Results.SweepInterval)
	go sweeper.Start(ctx)

	sched := scheduler.New(core.pipeline, *logger)
	manager := jobs.NewManager(sched, resultStore, *logger)
	h := handlers.New(manager, resultStore, store, core.llmCache, core.searchCache, *logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.Server.APIKey))
	internal.Use(middleware.ServiceRateLimit(50, 100))
	{
		internal.GET("/health", h.HealthCheck)
		internal.GET("/cache/stats", h.CacheStats)

		jobsGroup := internal.Group("/jobs")
		{
			jobsGroup.POST("", h.SubmitJob)
			jobsGroup.GET("", h.ListJobs)
			jobsGroup.GET("/:jobId", h.GetJob)
			jobsGroup.DELETE("/:jobId", h.CancelJob)
			jobsGroup.GET("/:jobId/results", h.GetResults)
			jobsGroup.GET("/:jobId/export", h.ExportResults)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// core bundles the assembled pricing components.
type core struct {
	pipeline    *pipeline.Pipeline
	llmCache    *cache.Cache
	searchCache *cache.Cache
}

// buildCore wires providers, policies and caches into a pipeline.
func buildCore(cfg *config.Config, logger zerolog.Logger) core {
	llmCache := cache.New(cfg.Cache.TTL, cfg.Cache.Capacity)
	searchCache := cache.New(cfg.Cache.TTL, cfg.Cache.Capacity)

	policy := trust.NewPolicy(trust.Config{
		TrustedDomains:        cfg.Trust.TrustedDomains,
		UntrustedPatterns:     cfg.Trust.UntrustedPatterns,
		BlockedURLPatterns:    cfg.Trust.BlockedPatterns,
		DirectProductPatterns: cfg.Trust.DirectPatterns,
		FriendlyNames:         cfg.Trust.FriendlyNames,
	})

	completer := llm.NewClient(cfg.LLM, logger)
	provider := search.NewCachedProvider(search.NewSERPProvider(cfg.Search, logger), searchCache)
	resolver := resolve.New(policy, nil, cfg.Resolver, logger)
	enhancer := enhance.New(completer, llmCache, logger)
	estimator := estimate.New(completer, llmCache, cfg.Estimator, logger)
	builder := query.NewBuilder(query.Config{})
	ranker := rank.New(policy, rank.DefaultWeights())
	table := category.LoadTable(cfg.Category.TablePath, logger)
	categorizer := category.New(table, completer, llmCache, logger)

	return core{
		pipeline: pipeline.New(cfg.Pipeline, provider, resolver, enhancer, estimator,
			policy, builder, ranker, categorizer, logger),
		llmCache:    llmCache,
		searchCache: searchCache,
	}
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "pricing-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
