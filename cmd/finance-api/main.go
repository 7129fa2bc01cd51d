package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/insight"
	"fintrack/internal/insight/gemini"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	be := cli.InitBackend(ctx, logger, cfg)

	ledgerSvc := services.NewLedgerService(be.Store, be.Publisher)
	engine := aggregate.NewEngine(be.Store, cfg.Location())
	assembler := report.NewAssembler(engine, be.Store)

	insightLogger := logger.WithComponent(log.ComponentInsight).Logger
	var generator insight.Generator
	if client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		// Insight requests fail with a generation error until a key is set.
		logger.Warn("Insight generator disabled", log.FieldError, err)
	} else {
		generator = client
		logger.Info("Initialized Gemini generator", "model", cfg.GeminiModel)
	}
	builder := insight.NewBuilder(assembler, generator,
		insight.WithTimeout(cfg.InsightTimeout),
		insight.WithLogger(insightLogger))

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		JWTSecret:          cfg.JWTSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		WriteTimeout:       cfg.InsightTimeout + 15*time.Second,
		Logger:             logger,
	}, ledgerSvc, assembler, builder)

	done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting finance API",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", cfg.EventsBackend,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = be.Cleanup()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
