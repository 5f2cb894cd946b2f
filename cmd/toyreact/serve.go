package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/toyreact/internal/config"
	"github.com/vango-dev/toyreact/internal/history"
	"github.com/vango-dev/toyreact/internal/preview"
	"github.com/vango-dev/toyreact/pkg/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		app         string
		port        int
		host        string
		watch       bool
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Serve a demo app from a headless document.

Browsers load the rendered page and send their clicks and changes
back over a websocket; the server dispatches them, re-renders, and
pushes the new HTML to every open tab.

Examples:
  toyreact serve
  toyreact serve --app todo --port 8080
  toyreact serve --host 0.0.0.0
  toyreact serve --watch   # switch apps when toyreact.json changes
  toyreact serve --history snapshots.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if app != "" {
				cfg.App = app
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			opts := preview.Options{
				App:         cfg.App,
				HotReload:   cfg.Dev.HotReload,
				MetricsPath: cfg.Metrics.Path,
				Logger:      logger,
			}
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				opts.Metrics = telemetry.NewMetrics(
					telemetry.WithRegistry(reg),
					telemetry.WithNamespace(cfg.Metrics.Namespace),
				)
				opts.Gatherer = reg
			}
			if cfg.Tracing.Enabled {
				tp, shutdown, err := tracerProvider(cfg.Tracing, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer shutdown()
				otel.SetTracerProvider(tp)
				opts.Tracer = telemetry.NewTracer(
					telemetry.WithTracerName(cfg.Tracing.TracerName),
					telemetry.WithTracerProvider(tp),
				)
			}
			if historyPath != "" {
				cfg.History.Path = historyPath
			}
			if p := cfg.HistoryPath(); p != "" {
				store, err := history.Open(p,
					history.WithLimit(cfg.History.Limit),
					history.WithLogger(logger),
				)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.History = store
			}

			server, err := preview.New(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			success(out, "Serving %s at %s", cfg.App, cfg.DevURL())
			if opts.Gatherer != nil {
				info(out, "Metrics at %s%s", cfg.DevURL(), cfg.Metrics.Path)
			}
			if opts.History != nil {
				info(out, "Recording history to %s", cfg.HistoryPath())
			}
			if watch && cfg.Path() != "" {
				go watchConfig(ctx, cfg.Path(), server, logger)
				info(out, "Watching %s", cfg.Path())
			}
			return server.ListenAndServe(ctx, cfg.DevAddress())
		},
	}

	cmd.Flags().StringVarP(&app, "app", "a", "", "Demo app to serve (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the app named in the config file when it changes")
	cmd.Flags().StringVar(&historyPath, "history", "", "Record every snapshot to this file (default from config)")

	return cmd
}

// watchConfig switches the served app whenever the config file names a new
// one.
func watchConfig(ctx context.Context, path string, server *preview.Server, logger *slog.Logger) {
	w := preview.NewWatcher(time.Second, path)
	w.OnChange(func(p string) {
		cfg, err := config.LoadFile(p)
		if err != nil {
			logger.Warn("serve: config reload failed", "path", p, "error", err)
			return
		}
		if cfg.App == server.App() {
			return
		}
		if err := server.SwitchApp(cfg.App); err != nil {
			logger.Warn("serve: app switch failed", "app", cfg.App, "error", err)
		}
	})
	_ = w.Run(ctx)
}

// tracerProvider builds the span exporter for serve. The returned func
// flushes pending spans and closes the output file.
func tracerProvider(cfg config.TracingConfig, stderr io.Writer) (*sdktrace.TracerProvider, func(), error) {
	w, closeOut := stderr, func() error { return nil }
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w, closeOut = f, f.Close
	}
	tp, err := telemetry.NewProvider(w, cfg.TracerName)
	if err != nil {
		closeOut()
		return nil, nil, err
	}
	return tp, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		_ = closeOut()
	}, nil
}
