package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"courtvision/backend/internal/api"
	"courtvision/backend/internal/cache"
	"courtvision/backend/internal/config"
	"courtvision/backend/internal/metrics"
	"courtvision/backend/internal/repository"
	"courtvision/backend/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting CourtVision summary API")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Int("port", cfg.APIPort).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// The summary cache and its health check stay nil interfaces when
	// Redis is unreachable, so the API degrades instead of failing.
	var summaryCache service.SummaryCache
	var cacheHealth api.CacheChecker
	redisCache, err := cache.NewRedisCache(cache.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
		summaryCache = redisCache
		cacheHealth = redisCache
		log.Info().Msg("Redis cache connected")
	}

	summaries := service.NewSummaryService(db, summaryCache, cfg.CacheTTLSummary)

	// Scheduled cache warm keeps summary latency flat after each load
	var scheduler *cron.Cron
	if redisCache != nil {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.CacheWarmCron, func() {
			if _, err := summaries.WarmPlayerSummaries(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled cache warm failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("cron", cfg.CacheWarmCron).Msg("Invalid cache warm schedule")
		}
		scheduler.Start()
		log.Info().Str("cron", cfg.CacheWarmCron).Msg("Cache warm scheduled")

		if cfg.CacheWarmOnBoot {
			go func() {
				if _, err := summaries.WarmPlayerSummaries(ctx); err != nil {
					log.Error().Err(err).Msg("Boot cache warm failed")
				}
			}()
		}
	}

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				ps := db.PoolStats()
				metrics.RecordPoolStats(ps.TotalConns, ps.AcquiredConns, ps.IdleConns)
			case <-ctx.Done():
				return
			}
		}
	}()

	server := api.NewServer(api.ServerConfig{
		Port:         cfg.APIPort,
		ReadTimeout:  cfg.APIReadTimeout,
		WriteTimeout: cfg.APIWriteTimeout,
	}, db, summaries, cacheHealth)

	go func() {
		log.Info().Int("port", cfg.APIPort).Msg("API server listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	select {
	case <-sigChan:
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
	case <-ctx.Done():
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}

	log.Info().Msg("API shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
