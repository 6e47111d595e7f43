package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"houseprice/config"
	qhttp "houseprice/http"
	"houseprice/logger"
	"houseprice/ml"
	"houseprice/monitoring"
	"houseprice/predict"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logging and error reporting
	zlog, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	reporter, err := monitoring.NewReporter(cfg.Sentry.DSN, cfg.Sentry.Environment, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize sentry", zap.Error(err))
	}
	defer reporter.Flush(2 * time.Second)

	// 3. Load the model once; a failure leaves the app running without one
	loader, err := ml.NewLoader(ml.LoaderOptions{
		Path:        cfg.Model.Path,
		Type:        cfg.Model.Type,
		InputName:   cfg.Model.InputName,
		OutputName:  cfg.Model.OutputName,
		OnnxLibrary: cfg.Model.OnnxLibrary,
	}, zlog)
	if err != nil {
		zlog.Fatal("failed to create model loader", zap.Error(err))
	}
	defer loader.Close()

	model, loadErr := loader.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Model.Watch {
		if err := ml.WatchArtifact(ctx, loader.Path(), zlog, nil); err != nil {
			zlog.Warn("artifact watcher disabled", zap.Error(err))
		}
	}

	trigger := predict.NewTrigger(model, zlog, reporter)
	handlers := qhttp.NewHandlers(qhttp.DefaultPageConfig(), trigger, loadErr, zlog)

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		RateLimit:      cfg.Http.RateLimit,
		Burst:          cfg.Http.Burst,
	}, handlers, zlog, reporter)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
		zlog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			zlog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Stop(); err != nil {
		zlog.Warn("server forced to shutdown", zap.Error(err))
	}
	zlog.Info("exiting")
}
