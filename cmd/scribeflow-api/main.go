package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribeflow/internal/calibration"
	"scribeflow/internal/config"
	"scribeflow/internal/httpapi"
	"scribeflow/internal/observability"
	"scribeflow/internal/pipeline"
	"scribeflow/internal/summary"
	"scribeflow/internal/transcription"
	"scribeflow/internal/upstream/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()
	for _, warning := range cfg.ConfigWarnings() {
		logger.Warn(warning)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	upstreamHTTPClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}
	speechClient := openai.New(cfg.S2TBaseURL, cfg.S2TAPIKey, upstreamHTTPClient,
		openai.WithName("s2t"), openai.WithObserver(metrics.ObserveUpstream))
	chatClient := openai.New(cfg.OptBaseURL, cfg.OptAPIKey, upstreamHTTPClient,
		openai.WithName("opt"), openai.WithObserver(metrics.ObserveUpstream))

	transcriptionService := transcription.New(speechClient, cfg.S2TModel, cfg.TranscriptionTimeout, cfg.S2TProblem())
	calibrationService := calibration.New(chatClient, calibration.Options{
		Model:      cfg.OptModel,
		ChunkSize:  cfg.ChunkTargetSize,
		Threshold:  cfg.ChunkThreshold,
		Workers:    cfg.CalibrationWorkers,
		Attempts:   cfg.CalibrationAttempts,
		Backoff:    2 * time.Second,
		Timeout:    cfg.CalibrationTimeout,
		SkipReason: cfg.CalibrationSkipReason(),
		OnOutcome: func(o calibration.Outcome) {
			metrics.ObserveCalibration(string(o))
		},
	}, logger)
	summaryService := summary.New(chatClient, cfg.SummaryModel, cfg.SummaryTimeout, chatClient.Configured())
	pipelineService := pipeline.New(transcriptionService, calibrationService, logger)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Pipeline:       pipelineService,
		Summary:        summaryService,
		Upstream:       speechClient,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	// Transcription plus chunked calibration can take minutes.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      cfg.TranscriptionTimeout + cfg.CalibrationTimeout + time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.ListenAddr,
			"s2t_model", cfg.S2TModel,
			"opt_model", cfg.OptModel,
			"calibration_workers", cfg.CalibrationWorkers,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
