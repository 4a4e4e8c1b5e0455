package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"

	"scribeflow/internal/clipboard"
	"scribeflow/internal/config"
	"scribeflow/internal/domain"
	"scribeflow/internal/observability"
	"scribeflow/internal/remote"
	"scribeflow/internal/status"
	"scribeflow/internal/tui"
	"scribeflow/internal/workflow"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "scribeflow: %v\n", err)
		os.Exit(1)
	}
}

func run(paths []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg.LogLevel)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics()
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer stopMetrics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	statuses := status.NewChannel()
	client := remote.New(cfg.ServerURL, &http.Client{Timeout: cfg.RequestTimeout},
		remote.WithObserver(func(endpoint string, code int, d time.Duration) {
			metrics.ObserveUpstream("backend_"+endpoint, code, d)
		}),
	)
	flow := workflow.New(client, statuses,
		workflow.WithLogger(logger),
		workflow.WithObserver(func(op workflow.Operation, outcome string, d time.Duration) {
			metrics.ObserveOperation(string(op), outcome, d)
		}),
	)

	// The exporter reports indicator changes to the program, which only exists
	// once the model is built; no copy can happen before Run.
	var program *tea.Program
	exporter := clipboard.NewExporter(clipboard.System{}, statuses,
		clipboard.WithUnit(cfg.CopyIndicatorUnit),
		clipboard.WithLogger(logger),
		clipboard.WithListener(func(i clipboard.Indicator) {
			program.Send(tui.IndicatorMsg(i))
		}),
	)

	model := tui.New(tui.Config{
		Context:  ctx,
		Workflow: flow,
		Copier:   exporter,
		Notifier: statuses,
		Paths:    paths,
		Load:     domain.LoadDocument,
		Logger:   logger,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribeFlow := flow.Subscribe(func(s workflow.Snapshot) {
		program.Send(tui.SnapshotMsg(s))
	})
	defer unsubscribeFlow()
	unsubscribeStatus := statuses.Subscribe(func(st domain.Status, ok bool) {
		program.Send(tui.StatusMsg{Status: st, OK: ok})
	})
	defer unsubscribeStatus()

	logger.Info("client starting", "server", cfg.ServerURL, "documents", len(paths))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	logger.Info("client stopped")
	return nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *slog.Logger) func() {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listener starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener exited", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func newLogger(w *os.File, level string) *slog.Logger {
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
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}
