package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"study-assist/api/internal/bootstrap"
	"study-assist/api/internal/config"
	"study-assist/api/internal/handle"
	"study-assist/api/internal/httpserver"
	"study-assist/api/internal/logging"
	"study-assist/api/internal/metrics"
	"study-assist/api/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := storage.New(cfg.UploadDir)
	if err != nil {
		logger.Fatal("working storage", zap.Error(err))
	}

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer app.Close()

	deps := handle.Deps{
		Assistant:   app.Assistant,
		Storage:     files,
		KeepUploads: cfg.KeepUploads,
		MaxUpload:   cfg.MaxUploadBytes(),
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger,
		Metrics:     metrics.New(),
	}
	if app.DB != nil {
		deps.Ping = app.Ping
	}
	h := handle.New(deps)

	srv := httpserver.New(":"+cfg.Port, h.Routes(http.NewServeMux()))
	if err := httpserver.Run(ctx, srv, logger); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}
