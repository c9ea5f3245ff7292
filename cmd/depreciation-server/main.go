package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/depreciation-forecast/internal/cache"
	"github.com/iwvelando/depreciation-forecast/internal/config"
	"github.com/iwvelando/depreciation-forecast/internal/forecast"
	"github.com/iwvelando/depreciation-forecast/internal/logging"
	"github.com/iwvelando/depreciation-forecast/internal/server"
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/dataset"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if envErr != nil {
		logger.Debug(".env file not loaded, using the process environment",
			zap.String("op", "main"),
		)
	}

	conf, err := config.LoadConfiguration(cfg.ForecastConfig)
	if err != nil {
		logger.Fatal("failed to load forecast configuration",
			zap.String("op", "main"),
			zap.String("path", cfg.ForecastConfig),
			zap.Error(err),
		)
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid forecast configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx := context.Background()
	listings, err := forecast.LoadListings(ctx, logger, conf.Dataset)
	if err != nil {
		logger.Fatal("failed to load listings",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	regressionModel, evaluation, err := forecast.TrainModel(logger, listings, conf.Model)
	if err != nil {
		logger.Fatal("failed to train depreciation model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	var store cache.Repository = cache.NewMemoryCache()
	if cfg.Cache.RedisAddress != "" {
		redisCache := cache.NewRedisCache(cfg.Cache.RedisAddress, cfg.Cache.TTL())
		defer func() {
			_ = redisCache.Close()
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, caching in memory",
				zap.String("op", "main"),
				zap.String("address", cfg.Cache.RedisAddress),
				zap.Error(err),
			)
		} else {
			store = redisCache
		}
		cancel()
	}

	model := server.Model{
		Regression:    regressionModel,
		Evaluation:    evaluation,
		MeanListPrice: dataset.MeanListPrice(listings),
		Defaults:      conf.Common,
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.NewHandler(logger, model, store, cfg, version),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("depreciation API listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case <-quit:
		logger.Info("shutting down server", zap.String("op", "main"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
