// Package main provides the entry point for the journal backend server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/journal-desktop/journal-backend/internal/api"
	"github.com/journal-desktop/journal-backend/internal/auth"
	"github.com/journal-desktop/journal-backend/internal/config"
	"github.com/journal-desktop/journal-backend/internal/journal"
	"github.com/journal-desktop/journal-backend/internal/news"
	"github.com/journal-desktop/journal-backend/internal/push"
	"github.com/journal-desktop/journal-backend/internal/store/gormstore"
	"github.com/journal-desktop/journal-backend/internal/tax"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	logLevel := flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	metricsAddr := flag.String("metrics", ":9090", "Prometheus metrics listen address, empty to disable")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := setupLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting journal backend",
		zap.String("addr", cfg.Server.ListenAddr),
		zap.String("store", cfg.Store.Path),
	)

	st, err := gormstore.New(cfg.Store.Path)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	sessions := auth.NewManager(logger, st, cfg.Auth.SessionTTL)
	journalSvc := journal.NewService(logger, st)

	sender := push.NewWebPushSender(
		cfg.Push.Subscriber,
		cfg.Push.VAPIDPublicKey,
		cfg.Push.VAPIDPrivateKey,
		cfg.Push.TTLSeconds,
	)
	dispatcherConfig := push.DefaultDispatcherConfig()
	dispatcherConfig.NumWorkers = cfg.Push.Workers
	dispatcherConfig.QueueSize = cfg.Push.QueueSize
	dispatcher := push.NewDispatcher(logger, sender, st, dispatcherConfig)
	dispatcher.Start()
	pushSvc := push.NewService(logger, st, dispatcher, cfg.Push.VAPIDPublicKey)
	journalSvc.SetAlerter(push.NewAlerter(logger, pushSvc))

	taxRate, err := cfg.Tax.TaxRate()
	if err != nil {
		logger.Fatal("Invalid tax rate", zap.Error(err))
	}
	taxEst := tax.NewEstimator(taxRate)

	sources := make([]news.Source, 0, len(cfg.News.Feeds))
	for _, feed := range cfg.News.Feeds {
		sources = append(sources, news.NewRSSSource(feed.Name, feed.URL))
	}
	newsAgg := news.NewAggregator(logger, sources, cfg.News.CacheTTL, cfg.News.Limit)

	server := api.NewServer(logger, cfg.Server, sessions, journalSvc, pushSvc, taxEst, newsAgg)

	var metricsServer *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			logger.Info("Metrics listening", zap.String("addr", *metricsAddr))
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully",
		zap.String("http", "http://localhost"+cfg.Server.ListenAddr+"/api/v1"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during metrics shutdown", zap.Error(err))
		}
	}
	if err := dispatcher.Stop(); err != nil {
		logger.Error("Error stopping push dispatcher", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
