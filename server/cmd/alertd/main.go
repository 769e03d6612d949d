package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obsidianstack/alertd/server/internal/alerts"
	"github.com/obsidianstack/alertd/server/internal/api"
	"github.com/obsidianstack/alertd/server/internal/auth"
	"github.com/obsidianstack/alertd/server/internal/config"
	"github.com/obsidianstack/alertd/server/internal/metrics"
	"github.com/obsidianstack/alertd/server/internal/monitor"
	"github.com/obsidianstack/alertd/server/internal/publish"
	"github.com/obsidianstack/alertd/server/internal/receiver"
	"github.com/obsidianstack/alertd/server/internal/source"
	"github.com/obsidianstack/alertd/server/internal/store"
	"github.com/obsidianstack/alertd/server/internal/ws"
)

// statusInterval is how often WebSocket clients get the active-alert status.
const statusInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Re-create the logger at the configured level.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("alertd starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"poll_interval", cfg.Server.PollInterval,
		"source", cfg.Source.Type,
		"escalation_policy", cfg.Alerts.EscalationPolicy,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logs := store.New(cfg.Log.Retention)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg, logs.Len)

	engine, err := alerts.New(cfg.Alerts, logs, alerts.LogSink{}, rec)
	if err != nil {
		slog.Error("failed to create alert engine", "err", err)
		os.Exit(1)
	}

	// WebSocket hub: streams engine events and the active-alert status.
	hub := ws.New(engine, statusInterval)
	engine.AddSink(hub)
	go hub.Run(ctx)

	// Optional NATS sink.
	var nc *publish.NATS
	if url := cfg.NATS.URL(); url != "" {
		nc, err = publish.Connect(url, cfg.NATS.Subject)
		if err != nil {
			slog.Error("failed to connect to NATS", "err", err)
			os.Exit(1)
		}
		engine.AddSink(nc)
		slog.Info("publishing events to NATS", "subject", cfg.NATS.Subject)
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(engine, logs))
	httpMux.Handle("/ws/events", hub)
	httpMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	var src source.Source
	if cfg.Source.Type == config.SourcePush {
		push := receiver.New()
		httpMux.Handle("/api/v1/samples", push)
		src = push
	} else {
		src, err = source.New(cfg.Source)
		if err != nil {
			slog.Error("failed to create metric source", "err", err)
			os.Exit(1)
		}
	}

	go func() {
		err := config.Watch(ctx, *configPath, func(*config.Config) {
			slog.Warn("config file changed; restart alertd to apply", "path", *configPath)
		})
		if err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	authed := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
		"/api/v1/health", "/metrics",
	)(httpMux)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           authed,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	loop := monitor.New(engine, logs, src, cfg.Server.PollInterval, monitor.Options{
		FlushPath: cfg.Log.FlushPath,
		Observer:  rec,
	})
	runErr := loop.Run(ctx)

	slog.Info("alertd shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	if nc != nil {
		if err := nc.Close(); err != nil {
			slog.Warn("NATS drain failed", "err", err)
		}
	}

	if runErr != nil {
		slog.Error("shutdown incomplete", "err", runErr)
		os.Exit(1)
	}
}
